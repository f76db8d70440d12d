package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/pkg/errors"
)

func validConfig() *Config {
	return &Config{
		Iris: IrisConfig{BaseURL: "http://iris", WSURL: "ws://iris/ws"},
		Rotation: RotationConfig{
			GroupID:          "group",
			Message:          "Heute kocht @mention!",
			IgnoreBeforeHour: 5,
			ReceiveTimeout:   3 * time.Second,
			CycleInterval:    10 * time.Second,
			Location:         time.UTC,
		},
		Bot:      BotConfig{Address: "lieber bot:"},
		Store:    StoreConfig{Backend: BackendFile},
		Triggers: DefaultTriggers(),
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsUserErrors(t *testing.T) {
	cases := map[string]func(*Config){
		"missing group":        func(c *Config) { c.Rotation.GroupID = "  " },
		"missing placeholder":  func(c *Config) { c.Rotation.Message = "Heute kocht jemand" },
		"negative cycles":      func(c *Config) { c.Rotation.Cycles = -1 },
		"hour out of range":    func(c *Config) { c.Rotation.IgnoreBeforeHour = 24 },
		"unknown backend":      func(c *Config) { c.Store.Backend = "s3" },
		"mirror equal primary": func(c *Config) { c.Store.Mirrors = []string{BackendFile} },
	}

	for name, mutate := range cases {
		cfg := validConfig()
		mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
		if !errors.IsUserError(err) {
			t.Fatalf("%s: expected user error, got %T", name, err)
		}
	}
}

func TestLoadRejectsNonIntegerCycles(t *testing.T) {
	t.Setenv("ROTATION_CYCLES", "three")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "ROTATION_CYCLES") {
		t.Fatalf("expected cycle parse error, got %v", err)
	}
}

func TestLoadReadsRotationEnvironment(t *testing.T) {
	t.Setenv("ROTATION_GROUP_ID", "abc==")
	t.Setenv("ROTATION_MESSAGE", "@mention kocht")
	t.Setenv("ROTATION_CYCLES", "4")
	t.Setenv("ROTATION_IGNORE_BEFORE", "not-a-number")
	t.Setenv("ROTATION_TIMEZONE", "UTC")
	t.Setenv("STORE_MIRRORS", "Redis, postgres")
	t.Setenv("BOT_ADDRESS", "Hey Bot:")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Rotation.Cycles != 4 {
		t.Fatalf("expected 4 cycles, got %d", cfg.Rotation.Cycles)
	}
	if cfg.Rotation.IgnoreBeforeHour != 5 {
		t.Fatalf("expected invalid ignore-before to fall back to 5, got %d", cfg.Rotation.IgnoreBeforeHour)
	}
	if cfg.Rotation.Location != time.UTC {
		t.Fatalf("expected UTC location, got %v", cfg.Rotation.Location)
	}
	if len(cfg.Store.Mirrors) != 2 || cfg.Store.Mirrors[0] != BackendRedis {
		t.Fatalf("unexpected mirrors: %v", cfg.Store.Mirrors)
	}
	if cfg.Bot.Address != "hey bot:" {
		t.Fatalf("expected address to be lower-cased, got %q", cfg.Bot.Address)
	}
	if len(cfg.Triggers) != len(DefaultTriggers()) {
		t.Fatalf("expected default triggers")
	}
}

func TestParseTriggersNormalizesPhrases(t *testing.T) {
	data := []byte(`
triggers:
  - command: help
    exact: ["  HELP ", "hilfe"]
  - command: swap
    contains_all: [Today]
    contains_any: [", NOT"]
    mentions: 2
`)
	rules, err := ParseTriggers(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Command != domain.CommandHelp || rules[0].Exact[0] != "help" {
		t.Fatalf("unexpected help rule: %+v", rules[0])
	}
	if rules[1].ContainsAll[0] != "today" || rules[1].ContainsAny[0] != ", not" || rules[1].Mentions != 2 {
		t.Fatalf("unexpected swap rule: %+v", rules[1])
	}
}

func TestParseTriggersRejectsUnknownCommand(t *testing.T) {
	if _, err := ParseTriggers([]byte("triggers:\n  - command: dance\n    exact: [dance]\n")); err == nil {
		t.Fatalf("expected unknown command to be rejected")
	}
	if _, err := ParseTriggers([]byte("triggers: []\n")); err == nil {
		t.Fatalf("expected empty table to be rejected")
	}
}

func TestLoadTriggersFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triggers.yaml")
	if err := os.WriteFile(path, []byte("triggers:\n  - command: undo\n    exact: [not today]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rules, err := LoadTriggers(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rules[0].Command != domain.CommandUndo || rules[0].Exact[0] != "not today" {
		t.Fatalf("unexpected rules: %+v", rules)
	}
}
