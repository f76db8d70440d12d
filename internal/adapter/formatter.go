package adapter

import (
	"fmt"

	"github.com/kapu/duty-rotation-bot/internal/config"
	"github.com/kapu/duty-rotation-bot/internal/constants"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/util"
)

// ResponseFormatter renders outbound texts and resolves their mention
// placeholders to spans.
type ResponseFormatter struct {
	address   string
	signature string
	rules     []config.TriggerRule
}

func NewResponseFormatter(address, signature string, rules []config.TriggerRule) *ResponseFormatter {
	return &ResponseFormatter{address: address, signature: signature, rules: rules}
}

// FormatNotification mentions member at the first placeholder of template.
func (f *ResponseFormatter) FormatNotification(template string, member domain.Member) (domain.OutboundMessage, error) {
	start := util.UTF16Index(template, constants.MentionPlaceholder)
	if start < 0 {
		return domain.OutboundMessage{}, fmt.Errorf("message template lacks %q", constants.MentionPlaceholder)
	}
	return domain.OutboundMessage{
		Text: template + f.signature,
		Mentions: []domain.Mention{{
			Member: member,
			Start:  start,
			Length: util.UTF16Len(constants.MentionPlaceholder),
		}},
	}, nil
}

func (f *ResponseFormatter) FormatHelp() (domain.OutboundMessage, error) {
	text, err := executeFormatterTemplate("help", struct {
		Address string
		Rules   []config.TriggerRule
	}{Address: f.address, Rules: f.rules})
	if err != nil {
		return domain.OutboundMessage{}, err
	}
	return domain.OutboundMessage{Text: text + f.signature}, nil
}

func (f *ResponseFormatter) FormatUndo(restored domain.Member) (domain.OutboundMessage, error) {
	return f.formatReply("undo", restored)
}

func (f *ResponseFormatter) FormatRestored(restored domain.Member) (domain.OutboundMessage, error) {
	return f.formatReply("restored", restored)
}

func (f *ResponseFormatter) FormatIgnored(ignored domain.Member) (domain.OutboundMessage, error) {
	return f.formatReply("ignored", ignored)
}

func (f *ResponseFormatter) FormatSwap(restored, served domain.Member) (domain.OutboundMessage, error) {
	return f.formatReply("swap", restored, served)
}

// formatReply renders a reply template and binds members in order to the
// first and second reply placeholders.
func (f *ResponseFormatter) formatReply(name string, members ...domain.Member) (domain.OutboundMessage, error) {
	text, err := executeFormatterTemplate(name, nil)
	if err != nil {
		return domain.OutboundMessage{}, err
	}

	placeholders := []string{constants.ReplyFirstPlaceholder, constants.ReplySecondPlaceholder}
	mentions := make([]domain.Mention, 0, len(members))
	for i, member := range members {
		if i >= len(placeholders) {
			break
		}
		start := util.UTF16Index(text, placeholders[i])
		if start < 0 {
			return domain.OutboundMessage{}, fmt.Errorf("template %s lacks placeholder %q", name, placeholders[i])
		}
		mentions = append(mentions, domain.Mention{
			Member: member,
			Start:  start,
			Length: util.UTF16Len(placeholders[i]),
		})
	}

	return domain.OutboundMessage{Text: text + f.signature, Mentions: mentions}, nil
}
