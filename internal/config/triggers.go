package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TriggerRule maps a command kind to the normalized text that selects it.
// A rule matches when the text equals one of Exact, or when it contains all
// of ContainsAll and at least one of ContainsAny. Mentions, when non-zero,
// additionally requires exactly that many mentions on the message.
type TriggerRule struct {
	Command     domain.CommandType `yaml:"command"`
	Exact       []string           `yaml:"exact,omitempty"`
	ContainsAll []string           `yaml:"contains_all,omitempty"`
	ContainsAny []string           `yaml:"contains_any,omitempty"`
	Mentions    int                `yaml:"mentions,omitempty"`
	Usage       string             `yaml:"usage,omitempty"`
}

type triggerFile struct {
	Triggers []TriggerRule `yaml:"triggers"`
}

// DefaultTriggers returns the built-in table in dispatch priority order.
func DefaultTriggers() []TriggerRule {
	return []TriggerRule{
		{Command: domain.CommandHelp, Exact: []string{"help"}},
		{Command: domain.CommandUndo, Exact: []string{"heute nicht"},
			Usage: "mach den letzten zug rückgängig."},
		{Command: domain.CommandRedraw, Exact: []string{"neu ziehen"},
			Usage: "mach den letzten zug rückgängig und ziehe neu."},
		{Command: domain.CommandIgnoreAndRedraw, Exact: []string{"ignorieren und neu ziehen"},
			Usage: "den gezogenen zukünftig nie mehr ziehen und für heute neu ziehen."},
		{Command: domain.CommandSwap, ContainsAll: []string{"heute"}, ContainsAny: []string{", nicht", ",nicht"}, Mentions: 2,
			Usage: "'heute X, nicht Y' - wenn Y gezogen wurde, stattdessen X nehmen und Y zurück in den pool legen."},
	}
}

// LoadTriggers reads a YAML trigger table from path, or returns the defaults
// when path is empty.
func LoadTriggers(path string) ([]TriggerRule, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTriggers(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewUnexpectedError(fmt.Sprintf("failed to read trigger file %s", path), err)
	}
	return ParseTriggers(data)
}

func ParseTriggers(data []byte) ([]TriggerRule, error) {
	var file triggerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid trigger file: %v", err), "TRIGGERS_FILE", nil)
	}
	if len(file.Triggers) == 0 {
		return nil, errors.NewValidationError("trigger file defines no triggers", "TRIGGERS_FILE", nil)
	}
	for i := range file.Triggers {
		rule := &file.Triggers[i]
		if !rule.Command.IsValid() || rule.Command == domain.CommandUnknown {
			return nil, errors.NewValidationError("unknown trigger command", "command", rule.Command)
		}
		rule.Exact = normalizeAll(rule.Exact)
		rule.ContainsAll = normalizeAll(rule.ContainsAll)
		rule.ContainsAny = lowerAll(rule.ContainsAny)
		if len(rule.Exact) == 0 && len(rule.ContainsAll) == 0 && len(rule.ContainsAny) == 0 {
			return nil, errors.NewValidationError("trigger has no phrases", "command", rule.Command)
		}
	}
	return file.Triggers, nil
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// lowerAll keeps surrounding whitespace: ", nicht" is only meaningful with it.
func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}
