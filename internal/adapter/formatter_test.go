package adapter

import (
	"strings"
	"testing"

	"github.com/kapu/duty-rotation-bot/internal/config"
	"github.com/kapu/duty-rotation-bot/internal/domain"
)

const testSignature = " -- Bot"

func newTestFormatter() *ResponseFormatter {
	return NewResponseFormatter("lieber bot:", testSignature, config.DefaultTriggers())
}

func TestFormatNotificationMentionsPlaceholder(t *testing.T) {
	alice := domain.Member{UUID: "a"}
	msg, err := newTestFormatter().FormatNotification("Heute kocht @mention für alle", alice)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if msg.Text != "Heute kocht @mention für alle"+testSignature {
		t.Fatalf("unexpected text: %q", msg.Text)
	}
	if len(msg.Mentions) != 1 || msg.Mentions[0].Start != 12 || msg.Mentions[0].Length != 8 || msg.Mentions[0].Member != alice {
		t.Fatalf("unexpected mentions: %+v", msg.Mentions)
	}
}

func TestFormatNotificationCountsUTF16Offsets(t *testing.T) {
	msg, err := newTestFormatter().FormatNotification("🍲 @mention", domain.Member{UUID: "a"})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if msg.Mentions[0].Start != 3 {
		t.Fatalf("expected offset 3 after a surrogate pair and a space, got %d", msg.Mentions[0].Start)
	}
}

func TestFormatNotificationRequiresPlaceholder(t *testing.T) {
	if _, err := newTestFormatter().FormatNotification("no mention", domain.Member{}); err == nil {
		t.Fatalf("expected error for template without placeholder")
	}
}

func TestFormatSwapBindsBothPlaceholders(t *testing.T) {
	x := domain.Member{UUID: "x"}
	y := domain.Member{UUID: "y"}
	msg, err := newTestFormatter().FormatSwap(x, y)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := "Habe {} wieder in den Pool genommen und [] vorerst als bedient markiert" + testSignature
	if msg.Text != want {
		t.Fatalf("unexpected text: %q", msg.Text)
	}
	if len(msg.Mentions) != 2 {
		t.Fatalf("expected two mentions, got %d", len(msg.Mentions))
	}
	if msg.Mentions[0].Member != x || msg.Mentions[0].Start != 5 || msg.Mentions[0].Length != 2 {
		t.Fatalf("unexpected first mention: %+v", msg.Mentions[0])
	}
	if msg.Mentions[1].Member != y || msg.Mentions[1].Start != strings.Index(want, "[]") {
		t.Fatalf("unexpected second mention: %+v", msg.Mentions[1])
	}
}

func TestFormatUndoAndIgnored(t *testing.T) {
	f := newTestFormatter()
	a := domain.Member{UUID: "a"}

	undo, err := f.FormatUndo(a)
	if err != nil {
		t.Fatalf("format undo: %v", err)
	}
	if !strings.HasPrefix(undo.Text, "Ok, heute nicht, habe {} wieder") || undo.Mentions[0].Start != 22 {
		t.Fatalf("unexpected undo reply: %+v", undo)
	}

	ignored, err := f.FormatIgnored(a)
	if err != nil {
		t.Fatalf("format ignored: %v", err)
	}
	if ignored.Text != "Ok, werde {} fortan ignorieren."+testSignature || ignored.Mentions[0].Start != 10 {
		t.Fatalf("unexpected ignored reply: %+v", ignored)
	}
}

func TestFormatHelpListsTriggers(t *testing.T) {
	msg, err := newTestFormatter().FormatHelp()
	if err != nil {
		t.Fatalf("format help: %v", err)
	}
	for _, phrase := range []string{"'lieber bot:'", "'heute nicht'", "'neu ziehen'", "'ignorieren und neu ziehen'", "'heute X, nicht Y'"} {
		if !strings.Contains(msg.Text, phrase) {
			t.Fatalf("help text lacks %s: %q", phrase, msg.Text)
		}
	}
	if len(msg.Mentions) != 0 {
		t.Fatalf("help must not mention anyone")
	}
}
