package command

import (
	"context"
	"fmt"

	"github.com/kapu/duty-rotation-bot/internal/adapter"
	"github.com/kapu/duty-rotation-bot/internal/domain"
)

// SwapCommand handles "heute X, nicht Y": the earlier mention goes back to
// the pool, the later one is marked as served.
type SwapCommand struct {
	deps *Dependencies
}

func NewSwapCommand(deps *Dependencies) *SwapCommand {
	return &SwapCommand{deps: deps}
}

func (c *SwapCommand) Name() string {
	return domain.CommandSwap.String()
}

func (c *SwapCommand) Description() string {
	return "Tauscht einen bedienten gegen einen anderen Teilnehmer"
}

func (c *SwapCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	restore, err := memberParam(params, adapter.ParamRestore)
	if err != nil {
		return err
	}
	serve, err := memberParam(params, adapter.ParamServe)
	if err != nil {
		return err
	}

	// mentions may carry only one identifier; stored entries carry both
	restore = cmdCtx.Group.Resolve(restore)
	serve = cmdCtx.Group.Resolve(serve)

	if err := c.deps.Rotations.Swap(ctx, cmdCtx.GroupID(), cmdCtx.Log, restore, serve); err != nil {
		return err
	}

	message, err := c.deps.Formatter.FormatSwap(restore, serve)
	if err != nil {
		return err
	}
	return c.deps.SendMessage(ctx, cmdCtx.GroupID(), message)
}

func memberParam(params map[string]any, key string) (domain.Member, error) {
	member, ok := params[key].(domain.Member)
	if !ok || member.IsZero() {
		return domain.Member{}, fmt.Errorf("swap command missing %s member", key)
	}
	return member, nil
}
