package domain

type CommandType string

const (
	CommandHelp            CommandType = "help"
	CommandUndo            CommandType = "undo"
	CommandRedraw          CommandType = "redraw"
	CommandIgnoreAndRedraw CommandType = "ignore_and_redraw"
	CommandSwap            CommandType = "swap"
	CommandUnknown         CommandType = "unknown"
)

func (c CommandType) String() string {
	return string(c)
}

func (c CommandType) IsValid() bool {
	switch c {
	case CommandHelp, CommandUndo, CommandRedraw, CommandIgnoreAndRedraw, CommandSwap, CommandUnknown:
		return true
	default:
		return false
	}
}
