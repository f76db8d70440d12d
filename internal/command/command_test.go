package command

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/kapu/duty-rotation-bot/internal/adapter"
	"github.com/kapu/duty-rotation-bot/internal/config"
	"github.com/kapu/duty-rotation-bot/internal/constants"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/rotation"
	"github.com/kapu/duty-rotation-bot/internal/service/rotationlog"
	"go.uber.org/zap"
)

var (
	anna  = domain.Member{Number: "+491", UUID: "u1"}
	ben   = domain.Member{Number: "+492", UUID: "u2"}
	clara = domain.Member{Number: "+493", UUID: "u3"}
)

type recordingSender struct {
	sent []domain.OutboundMessage
}

func (s *recordingSender) SendMessage(_ context.Context, _ string, msg domain.OutboundMessage) ([]domain.SendResult, error) {
	s.sent = append(s.sent, msg)
	return nil, nil
}

type harness struct {
	store    *rotationlog.MemoryStore
	sender   *recordingSender
	registry *Registry
	cmdCtx   *domain.CommandContext
}

func newHarness(t *testing.T, served ...domain.Member) *harness {
	t.Helper()
	store := rotationlog.NewMemoryStore()
	sender := &recordingSender{}
	formatter := adapter.NewResponseFormatter(constants.BotDefaults.Address, constants.BotDefaults.Signature, config.DefaultTriggers())
	rotator := rotation.NewRotator(store, rotation.NewSelector(rand.New(rand.NewPCG(3, 4))), sender, formatter, nil, zap.NewNop())

	deps := &Dependencies{
		Rotations: rotator,
		Formatter: formatter,
		SendMessage: func(ctx context.Context, groupID string, msg domain.OutboundMessage) error {
			return rotator.Send(ctx, groupID, msg)
		},
		Logger: zap.NewNop(),
	}

	log := domain.NewRotationLog()
	for _, m := range served {
		log.Served.Append(m)
	}
	group := domain.NewGroupContext("g", "Kitchen", []domain.Member{anna, ben, clara})
	return &harness{
		store:    store,
		sender:   sender,
		registry: NewRegistryWithDefaults(deps),
		cmdCtx:   domain.NewCommandContext(group, log, "Heute kocht @mention"),
	}
}

func (h *harness) run(t *testing.T, cmdType domain.CommandType, params map[string]any) {
	t.Helper()
	if err := h.registry.Execute(context.Background(), h.cmdCtx, cmdType.String(), params); err != nil {
		t.Fatalf("%s: %v", cmdType, err)
	}
}

func TestRegistryHasEveryRotationCommand(t *testing.T) {
	h := newHarness(t)
	if h.registry.Count() != 5 {
		t.Fatalf("expected 5 commands, got %d", h.registry.Count())
	}
	for _, cmd := range h.registry.Commands() {
		if !domain.CommandType(cmd.Name()).IsValid() {
			t.Fatalf("command %q has no matching command type", cmd.Name())
		}
		if cmd.Description() == "" {
			t.Fatalf("command %q lacks a description", cmd.Name())
		}
	}
}

func TestHelpSendsTriggerList(t *testing.T) {
	h := newHarness(t)
	h.run(t, domain.CommandHelp, nil)

	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(h.sender.sent))
	}
	if !strings.Contains(h.sender.sent[0].Text, "heute nicht") {
		t.Fatalf("help text lacks the undo trigger: %q", h.sender.sent[0].Text)
	}
	if h.store.Saves() != 0 {
		t.Fatalf("help must not touch the log")
	}
}

func TestUndoRepliesWithRestoredMember(t *testing.T) {
	h := newHarness(t, anna, ben)
	h.run(t, domain.CommandUndo, nil)

	if h.cmdCtx.Log.Served.Contains(ben) {
		t.Fatalf("ben should be back in the pool")
	}
	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(h.sender.sent))
	}
	reply := h.sender.sent[0]
	if !strings.HasPrefix(reply.Text, "Ok, heute nicht, habe {} wieder in den Pool genommen") {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
	if len(reply.Mentions) != 1 || reply.Mentions[0].Member != ben {
		t.Fatalf("expected ben to be mentioned, got %+v", reply.Mentions)
	}
}

func TestUndoOnEmptyLogIsSilent(t *testing.T) {
	h := newHarness(t)
	h.run(t, domain.CommandUndo, nil)

	if len(h.sender.sent) != 0 {
		t.Fatalf("expected no reply, got %d", len(h.sender.sent))
	}
}

func TestRedrawRestoresThenAnnounces(t *testing.T) {
	h := newHarness(t, anna)
	h.run(t, domain.CommandRedraw, nil)

	if len(h.sender.sent) != 2 {
		t.Fatalf("expected restored reply and notification, got %d messages", len(h.sender.sent))
	}
	if !strings.HasPrefix(h.sender.sent[0].Text, "Habe {} wieder in den Pool genommen") {
		t.Fatalf("unexpected first reply: %q", h.sender.sent[0].Text)
	}
	if !strings.HasPrefix(h.sender.sent[1].Text, "Heute kocht @mention") {
		t.Fatalf("unexpected notification: %q", h.sender.sent[1].Text)
	}
	if h.cmdCtx.Log.Served.Len() != 1 {
		t.Fatalf("expected exactly the new pick to be served, got %v", h.cmdCtx.Log.Served.Members())
	}
}

func TestRedrawOnEmptyLogOnlyAnnounces(t *testing.T) {
	h := newHarness(t)
	h.run(t, domain.CommandRedraw, nil)

	if len(h.sender.sent) != 1 {
		t.Fatalf("expected only the notification, got %d messages", len(h.sender.sent))
	}
}

func TestIgnoreExcludesAndRedrawsOnce(t *testing.T) {
	h := newHarness(t, anna, ben)
	h.run(t, domain.CommandIgnoreAndRedraw, nil)

	log := h.cmdCtx.Log
	if !log.Ignored.Contains(ben) {
		t.Fatalf("ben should be ignored")
	}
	if !log.Served.Contains(anna) {
		t.Fatalf("the earlier pick must stay served")
	}
	if log.Served.Len() != 2 {
		t.Fatalf("expected anna plus one new pick, got %v", log.Served.Members())
	}
	if pick, _ := log.Served.Last(); pick != clara {
		t.Fatalf("only clara is left to pick, got %v", pick)
	}
	if !strings.HasPrefix(h.sender.sent[0].Text, "Ok, werde {} fortan ignorieren.") {
		t.Fatalf("unexpected reply: %q", h.sender.sent[0].Text)
	}
}

func TestSwapResolvesMentionsAgainstGroup(t *testing.T) {
	h := newHarness(t, anna)
	params := map[string]any{
		adapter.ParamRestore: domain.Member{UUID: "u1"},
		adapter.ParamServe:   domain.Member{UUID: "u2"},
	}
	h.run(t, domain.CommandSwap, params)

	log := h.cmdCtx.Log
	if log.Served.Contains(anna) || !log.Served.Contains(ben) {
		t.Fatalf("expected anna restored and ben served, got %v", log.Served.Members())
	}
	reply := h.sender.sent[0]
	if len(reply.Mentions) != 2 || reply.Mentions[0].Member != anna || reply.Mentions[1].Member != ben {
		t.Fatalf("unexpected mentions: %+v", reply.Mentions)
	}
}

func TestSwapRejectsMissingMembers(t *testing.T) {
	h := newHarness(t)
	err := h.registry.Execute(context.Background(), h.cmdCtx, domain.CommandSwap.String(), map[string]any{})
	if err == nil {
		t.Fatalf("expected error for swap without members")
	}
}

func TestDispatcherRunsEventsInOrderAndSkipsUnknown(t *testing.T) {
	h := newHarness(t, anna, ben)
	var executed []domain.CommandType
	dispatcher := NewSequentialDispatcher(h.registry, NormalizeCommand, func(cmdType domain.CommandType) {
		executed = append(executed, cmdType)
	})

	count, err := dispatcher.Publish(context.Background(), h.cmdCtx,
		CommandEvent{Type: domain.CommandUndo},
		CommandEvent{Type: domain.CommandUnknown},
		CommandEvent{Type: domain.CommandUndo},
	)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if count != 2 || len(executed) != 2 {
		t.Fatalf("expected 2 executed events, got %d", count)
	}
	if h.cmdCtx.Log.Served.Len() != 0 {
		t.Fatalf("both undos should have applied in order, got %v", h.cmdCtx.Log.Served.Members())
	}
}

func TestRegistryUnknownKey(t *testing.T) {
	h := newHarness(t)
	err := h.registry.Execute(context.Background(), h.cmdCtx, "dance", nil)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}
