package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/duty-rotation-bot/internal/adapter"
	"github.com/kapu/duty-rotation-bot/internal/command"
	"github.com/kapu/duty-rotation-bot/internal/config"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/observability"
	"github.com/kapu/duty-rotation-bot/internal/rotation"
	"github.com/kapu/duty-rotation-bot/internal/util"
	"github.com/kapu/duty-rotation-bot/pkg/errors"
	"go.uber.org/zap"
)

// Channel sends to and receives from the rotation's group.
type Channel interface {
	SendMessage(ctx context.Context, groupID string, msg domain.OutboundMessage) ([]domain.SendResult, error)
	Receive(ctx context.Context, timeout time.Duration, max int) domain.ReceiveResult
}

type GroupResolver interface {
	ResolveGroup(ctx context.Context, groupID string) (*domain.GroupContext, error)
}

type LogLoader interface {
	Load(ctx context.Context, groupID string) (*domain.RotationLog, error)
}

type Announcer interface {
	Announce(ctx context.Context, group *domain.GroupContext, log *domain.RotationLog, template string) (rotation.Pick, error)
}

// Stream is the live connection feeding the channel's receive side.
type Stream interface {
	Connect(ctx context.Context) error
	Disconnect() error
}

type Dependencies struct {
	Config         config.RotationConfig
	Logger         *zap.Logger
	Channel        Channel
	Groups         GroupResolver
	Store          LogLoader
	Rotator        Announcer
	MessageAdapter *adapter.MessageAdapter
	Dispatcher     command.Dispatcher
	Stream         Stream
	Metrics        *observability.Metrics

	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Bot runs one rotation invocation: announce once, then watch the group for
// correction commands for a fixed number of cycles.
type Bot struct {
	cfg            config.RotationConfig
	logger         *zap.Logger
	channel        Channel
	groups         GroupResolver
	store          LogLoader
	rotator        Announcer
	messageAdapter *adapter.MessageAdapter
	dispatcher     command.Dispatcher
	stream         Stream
	metrics        *observability.Metrics
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewBot(deps *Dependencies) (*Bot, error) {
	if deps == nil {
		return nil, fmt.Errorf("bot dependencies must not be nil")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if deps.Channel == nil || deps.Groups == nil || deps.Store == nil || deps.Rotator == nil {
		return nil, fmt.Errorf("channel, group resolver, store and rotator are required")
	}
	if deps.MessageAdapter == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("message adapter and dispatcher are required")
	}

	b := &Bot{
		cfg:            deps.Config,
		logger:         deps.Logger,
		channel:        deps.Channel,
		groups:         deps.Groups,
		store:          deps.Store,
		rotator:        deps.Rotator,
		messageAdapter: deps.MessageAdapter,
		dispatcher:     deps.Dispatcher,
		stream:         deps.Stream,
		metrics:        deps.Metrics,
		now:            deps.Now,
		sleep:          deps.Sleep,
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.sleep == nil {
		b.sleep = sleepContext
	}
	return b, nil
}

// Run resolves the group, announces the next member and then runs the
// configured number of watch cycles. Cancellation is honoured between
// cycles only and ends the run without error.
func (b *Bot) Run(ctx context.Context) error {
	group, err := b.groups.ResolveGroup(ctx, b.cfg.GroupID)
	if err != nil {
		return err
	}
	b.logger.Info("Round-robin notification system started",
		zap.String("group", group.Title),
		zap.Int("members", len(group.Members)),
		zap.Int("cycles", b.cfg.Cycles),
	)

	log, err := b.store.Load(ctx, group.ID)
	if err != nil {
		b.metrics.ObserveStoreError("load")
		return err
	}

	if b.cfg.Cycles > 0 && b.stream != nil {
		if err := b.stream.Connect(ctx); err != nil {
			return errors.NewUnexpectedError("Failed to connect message stream", err)
		}
		defer func() {
			if err := b.stream.Disconnect(); err != nil {
				b.logger.Warn("Failed to disconnect message stream", zap.Error(err))
			}
		}()
	}

	if _, err := b.rotator.Announce(ctx, group, log, b.cfg.Message); err != nil {
		return err
	}

	for cycle := 1; cycle <= b.cfg.Cycles; cycle++ {
		if err := b.watch(ctx, group, log); err != nil {
			return err
		}
		remaining := b.cfg.Cycles - cycle
		b.logger.Debug("Watch cycle finished", zap.Int("remaining", remaining))
		if remaining == 0 {
			break
		}
		if err := b.sleep(ctx, b.cfg.CycleInterval); err != nil {
			b.logger.Info("Stopping early", zap.Int("remaining", remaining), zap.Error(err))
			return nil
		}
	}
	return nil
}

// watch receives once and applies every accepted command in arrival order.
func (b *Bot) watch(ctx context.Context, group *domain.GroupContext, log *domain.RotationLog) error {
	result := b.channel.Receive(ctx, b.cfg.ReceiveTimeout, b.cfg.MaxEvents)
	b.metrics.ObserveReceive(result.Status.String())

	switch result.Status {
	case domain.ReceiveTransportError:
		return errors.NewUnexpectedError("Failed to receive messages", result.Err)
	case domain.ReceiveTimeout:
		return nil
	}

	b.logger.Debug("Received messages", zap.Int("count", len(result.Events)))
	now := b.now()
	for _, event := range result.Events {
		if !b.accept(event, group, now) {
			continue
		}
		parsed := b.messageAdapter.ParseEvent(event)
		if parsed.Type == domain.CommandUnknown {
			continue
		}

		b.logger.Info("Applying command",
			zap.String("command", parsed.Type.String()),
			zap.String("sender", event.Sender.String()),
			zap.String("text", parsed.RawMessage),
			zap.Int("mentions", len(parsed.Mentions)),
		)
		cmdCtx := domain.NewCommandContext(group, log, b.cfg.Message)
		if _, err := b.dispatcher.Publish(ctx, cmdCtx, command.CommandEvent{
			Type:   parsed.Type,
			Params: parsed.Params,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) accept(event domain.InboundEvent, group *domain.GroupContext, now time.Time) bool {
	if !event.HasGroup() || event.GroupID != group.ID {
		return false
	}
	if util.IsBeforeCutoff(event.DeliveredAt, now, b.cfg.IgnoreBeforeHour, b.cfg.Location) {
		b.logger.Debug("Skipping message from before cutoff", zap.Time("delivered_at", event.DeliveredAt))
		return false
	}
	return event.HasBody()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
