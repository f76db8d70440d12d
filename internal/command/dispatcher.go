package command

import (
	"context"

	"github.com/kapu/duty-rotation-bot/internal/domain"
)

// NormalizeFunc converts a domain command type plus params into the registry key
// and normalized parameter map used for execution.
type NormalizeFunc func(domain.CommandType, map[string]any) (string, map[string]any)

// ExecutedFunc is called after each successfully executed event.
type ExecutedFunc func(cmdType domain.CommandType)

type sequentialDispatcher struct {
	registry   *Registry
	normalize  NormalizeFunc
	onExecuted ExecutedFunc
}

// NewSequentialDispatcher creates a dispatcher that executes command events in
// the order they are received. Each handler sees the log as left by the
// previous one.
func NewSequentialDispatcher(registry *Registry, normalize NormalizeFunc, onExecuted ExecutedFunc) Dispatcher {
	return &sequentialDispatcher{registry: registry, normalize: normalize, onExecuted: onExecuted}
}

func (d *sequentialDispatcher) Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...CommandEvent) (int, error) {
	if d == nil || d.registry == nil || d.normalize == nil {
		return 0, nil
	}

	executed := 0
	for _, event := range events {
		if event.Type == domain.CommandUnknown {
			continue
		}

		normalizedParams := cloneParams(event.Params)
		key, params := d.normalize(event.Type, normalizedParams)
		if err := d.registry.Execute(ctx, cmdCtx, key, params); err != nil {
			return executed, err
		}
		executed++
		if d.onExecuted != nil {
			d.onExecuted(event.Type)
		}
	}
	return executed, nil
}

func cloneParams(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	clone := make(map[string]any, len(src))
	for k, v := range src {
		clone[k] = v
	}
	return clone
}
