package adapter

import (
	"sort"
	"strings"

	"github.com/kapu/duty-rotation-bot/internal/config"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/util"
)

// Param keys set on swap commands.
const (
	ParamRestore = "restore"
	ParamServe   = "serve"
)

// MessageAdapter converts inbound chat messages to rotation commands
type MessageAdapter struct {
	address string
	rules   []config.TriggerRule
}

// NewMessageAdapter creates a MessageAdapter. rules are matched in order.
func NewMessageAdapter(address string, rules []config.TriggerRule) *MessageAdapter {
	return &MessageAdapter{address: util.Normalize(address), rules: rules}
}

// ParsedCommand represents a parsed command
type ParsedCommand struct {
	Type       domain.CommandType
	Params     map[string]any
	Mentions   []domain.Mention
	RawMessage string
}

// ParseEvent maps an inbound message to a command. Messages without the bot
// address or without a matching trigger come back as CommandUnknown.
func (ma *MessageAdapter) ParseEvent(event domain.InboundEvent) *ParsedCommand {
	if !event.HasBody() {
		return ma.createUnknownCommand("")
	}

	// only the remainder is trimmed, leading whitespace means not addressed
	text := strings.ToLower(event.Body)
	if !strings.HasPrefix(text, ma.address) {
		return ma.createUnknownCommand(text)
	}

	commandText := strings.TrimSpace(text[len(ma.address):])
	mentions := sortedMentions(event.Mentions)

	for _, rule := range ma.rules {
		if !ma.matches(rule, commandText, len(mentions)) {
			continue
		}
		parsed := &ParsedCommand{
			Type:       rule.Command,
			Params:     make(map[string]any),
			Mentions:   mentions,
			RawMessage: commandText,
		}
		if rule.Command == domain.CommandSwap {
			if len(mentions) != 2 {
				// a swap needs exactly one member to restore and one to serve
				return ma.createUnknownCommand(commandText)
			}
			if mentions[0].Member.IsZero() || mentions[1].Member.IsZero() {
				return ma.createUnknownCommand(commandText)
			}
			parsed.Params[ParamRestore] = mentions[0].Member
			parsed.Params[ParamServe] = mentions[1].Member
		}
		return parsed
	}

	return ma.createUnknownCommand(commandText)
}

func (ma *MessageAdapter) matches(rule config.TriggerRule, text string, mentionCount int) bool {
	if rule.Mentions > 0 && mentionCount != rule.Mentions {
		return false
	}
	if util.Contains(rule.Exact, text) {
		return true
	}
	if len(rule.ContainsAll) == 0 && len(rule.ContainsAny) == 0 {
		return false
	}
	return util.ContainsAll(text, rule.ContainsAll) && util.ContainsAny(text, rule.ContainsAny)
}

// sortedMentions orders mentions by their position in the text.
func sortedMentions(mentions []domain.Mention) []domain.Mention {
	out := make([]domain.Mention, len(mentions))
	copy(out, mentions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func (ma *MessageAdapter) createUnknownCommand(text string) *ParsedCommand {
	return &ParsedCommand{
		Type:       domain.CommandUnknown,
		Params:     make(map[string]any),
		RawMessage: text,
	}
}
