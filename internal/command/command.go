package command

import (
	"context"

	"github.com/kapu/duty-rotation-bot/internal/adapter"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/rotation"
	"go.uber.org/zap"
)

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error
}

// Rotations is the part of rotation.Rotator the handlers drive.
type Rotations interface {
	Announce(ctx context.Context, group *domain.GroupContext, log *domain.RotationLog, template string) (rotation.Pick, error)
	Undo(ctx context.Context, groupID string, log *domain.RotationLog) (domain.Member, bool, error)
	Ignore(ctx context.Context, groupID string, log *domain.RotationLog) (domain.Member, bool, error)
	Swap(ctx context.Context, groupID string, log *domain.RotationLog, restore, serve domain.Member) error
}

type Dependencies struct {
	Rotations   Rotations
	Formatter   *adapter.ResponseFormatter
	SendMessage func(ctx context.Context, groupID string, msg domain.OutboundMessage) error
	Logger      *zap.Logger
}

// CommandEvent is one parsed chat command queued for execution.
type CommandEvent struct {
	Type   domain.CommandType
	Params map[string]any
}

// Dispatcher executes command events against a command context.
type Dispatcher interface {
	Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...CommandEvent) (int, error)
}

// NewRegistryWithDefaults registers every rotation command.
func NewRegistryWithDefaults(deps *Dependencies) *Registry {
	registry := NewRegistry()
	registry.Register(NewHelpCommand(deps))
	registry.Register(NewUndoCommand(deps))
	registry.Register(NewRedrawCommand(deps))
	registry.Register(NewIgnoreCommand(deps))
	registry.Register(NewSwapCommand(deps))
	return registry
}

// NormalizeCommand maps a command type onto its registry key.
func NormalizeCommand(cmdType domain.CommandType, params map[string]any) (string, map[string]any) {
	return cmdType.String(), params
}
