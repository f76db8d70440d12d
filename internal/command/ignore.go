package command

import (
	"context"

	"github.com/kapu/duty-rotation-bot/internal/domain"
)

// IgnoreCommand excludes the latest pick for good and draws again.
type IgnoreCommand struct {
	deps *Dependencies
}

func NewIgnoreCommand(deps *Dependencies) *IgnoreCommand {
	return &IgnoreCommand{deps: deps}
}

func (c *IgnoreCommand) Name() string {
	return domain.CommandIgnoreAndRedraw.String()
}

func (c *IgnoreCommand) Description() string {
	return "Den Gezogenen nie mehr ziehen und für heute neu ziehen"
}

func (c *IgnoreCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	ignored, ok, err := c.deps.Rotations.Ignore(ctx, cmdCtx.GroupID(), cmdCtx.Log)
	if err != nil {
		return err
	}
	if ok {
		message, err := c.deps.Formatter.FormatIgnored(ignored)
		if err != nil {
			return err
		}
		if err := c.deps.SendMessage(ctx, cmdCtx.GroupID(), message); err != nil {
			return err
		}
	}

	// the pop above already freed today's slot, so no second undo here
	_, err = c.deps.Rotations.Announce(ctx, cmdCtx.Group, cmdCtx.Log, cmdCtx.Template)
	return err
}
