package command

import (
	"context"

	"github.com/kapu/duty-rotation-bot/internal/domain"
	"go.uber.org/zap"
)

// UndoCommand takes back the latest pick without drawing a new one.
type UndoCommand struct {
	deps *Dependencies
}

func NewUndoCommand(deps *Dependencies) *UndoCommand {
	return &UndoCommand{deps: deps}
}

func (c *UndoCommand) Name() string {
	return domain.CommandUndo.String()
}

func (c *UndoCommand) Description() string {
	return "Macht den letzten Zug rückgängig"
}

func (c *UndoCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	restored, ok, err := c.deps.Rotations.Undo(ctx, cmdCtx.GroupID(), cmdCtx.Log)
	if err != nil {
		return err
	}
	if !ok {
		c.deps.Logger.Debug("Nothing to undo", zap.String("group_id", cmdCtx.GroupID()))
		return nil
	}

	message, err := c.deps.Formatter.FormatUndo(restored)
	if err != nil {
		return err
	}
	return c.deps.SendMessage(ctx, cmdCtx.GroupID(), message)
}
