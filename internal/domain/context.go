package domain

// CommandContext carries the rotation state a command handler operates on.
// Log is shared with the cycle driver and mutated in place.
type CommandContext struct {
	Group    *GroupContext
	Log      *RotationLog
	Template string
}

func NewCommandContext(group *GroupContext, log *RotationLog, template string) *CommandContext {
	return &CommandContext{
		Group:    group,
		Log:      log,
		Template: template,
	}
}

func (c *CommandContext) GroupID() string {
	if c == nil || c.Group == nil {
		return ""
	}
	return c.Group.ID
}
