package command

import (
	"context"

	"github.com/kapu/duty-rotation-bot/internal/domain"
)

type HelpCommand struct {
	deps *Dependencies
}

func NewHelpCommand(deps *Dependencies) *HelpCommand {
	return &HelpCommand{deps: deps}
}

func (c *HelpCommand) Name() string {
	return domain.CommandHelp.String()
}

func (c *HelpCommand) Description() string {
	return "Listet alle Kommandos auf"
}

func (c *HelpCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	message, err := c.deps.Formatter.FormatHelp()
	if err != nil {
		return err
	}
	return c.deps.SendMessage(ctx, cmdCtx.GroupID(), message)
}
