package command

import (
	"context"

	"github.com/kapu/duty-rotation-bot/internal/domain"
)

// RedrawCommand takes back the latest pick and draws again.
type RedrawCommand struct {
	deps *Dependencies
}

func NewRedrawCommand(deps *Dependencies) *RedrawCommand {
	return &RedrawCommand{deps: deps}
}

func (c *RedrawCommand) Name() string {
	return domain.CommandRedraw.String()
}

func (c *RedrawCommand) Description() string {
	return "Macht den letzten Zug rückgängig und zieht neu"
}

func (c *RedrawCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	restored, ok, err := c.deps.Rotations.Undo(ctx, cmdCtx.GroupID(), cmdCtx.Log)
	if err != nil {
		return err
	}
	if ok {
		message, err := c.deps.Formatter.FormatRestored(restored)
		if err != nil {
			return err
		}
		if err := c.deps.SendMessage(ctx, cmdCtx.GroupID(), message); err != nil {
			return err
		}
	}

	_, err = c.deps.Rotations.Announce(ctx, cmdCtx.Group, cmdCtx.Log, cmdCtx.Template)
	return err
}
