package rotation

import (
	"context"
	"fmt"

	"github.com/kapu/duty-rotation-bot/internal/adapter"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/observability"
	"go.uber.org/zap"
)

// Sender delivers an outbound message to a group.
type Sender interface {
	SendMessage(ctx context.Context, groupID string, msg domain.OutboundMessage) ([]domain.SendResult, error)
}

// LogSaver persists a rotation log.
type LogSaver interface {
	Save(ctx context.Context, groupID string, log *domain.RotationLog) error
}

// Rotator applies picks and corrective edits to a rotation log. Every
// mutation is saved before the method returns.
type Rotator struct {
	store     LogSaver
	selector  *Selector
	sender    Sender
	formatter *adapter.ResponseFormatter
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewRotator(store LogSaver, selector *Selector, sender Sender, formatter *adapter.ResponseFormatter, metrics *observability.Metrics, logger *zap.Logger) *Rotator {
	if selector == nil {
		selector = NewSelector(nil)
	}
	return &Rotator{
		store:     store,
		selector:  selector,
		sender:    sender,
		formatter: formatter,
		metrics:   metrics,
		logger:    logger,
	}
}

// Announce picks the next member, records it and sends the notification
// rendered from template.
func (r *Rotator) Announce(ctx context.Context, group *domain.GroupContext, log *domain.RotationLog, template string) (Pick, error) {
	pick, err := r.selector.PickNext(group.Members, log)
	if err != nil {
		return Pick{}, err
	}

	if pick.Reset {
		r.logger.Info("Everyone has served, starting a new round",
			zap.String("group_id", group.ID),
			zap.Int("served", log.Served.Len()),
		)
		log.Served.Clear()
	}
	log.Served.Append(pick.Member)

	if err := r.persist(ctx, group.ID, log); err != nil {
		return Pick{}, err
	}

	msg, err := r.formatter.FormatNotification(template, pick.Member)
	if err != nil {
		return Pick{}, err
	}
	if err := r.Send(ctx, group.ID, msg); err != nil {
		return Pick{}, err
	}

	r.metrics.ObserveAnnouncement(pick.Reset)
	r.logger.Info("Announced next member",
		zap.String("group_id", group.ID),
		zap.String("member", pick.Member.String()),
		zap.Bool("reset", pick.Reset),
	)
	return pick, nil
}

// Undo returns the most recently served member to the pool. ok is false
// when nobody has served yet; the log is then left untouched.
func (r *Rotator) Undo(ctx context.Context, groupID string, log *domain.RotationLog) (domain.Member, bool, error) {
	member, ok := log.Served.PopLast()
	if !ok {
		return domain.Member{}, false, nil
	}
	if err := r.persist(ctx, groupID, log); err != nil {
		return domain.Member{}, false, err
	}
	return member, true, nil
}

// Ignore moves the most recently served member to the ignored set.
func (r *Rotator) Ignore(ctx context.Context, groupID string, log *domain.RotationLog) (domain.Member, bool, error) {
	member, ok := log.Served.PopLast()
	if !ok {
		return domain.Member{}, false, nil
	}
	log.Ignored.Append(member)
	if err := r.persist(ctx, groupID, log); err != nil {
		return domain.Member{}, false, err
	}
	return member, true, nil
}

// Swap puts restore back into the pool and marks serve as served. Either
// half is a no-op when already in the target state.
func (r *Rotator) Swap(ctx context.Context, groupID string, log *domain.RotationLog, restore, serve domain.Member) error {
	log.Served.Remove(restore)
	log.Served.Append(serve)
	return r.persist(ctx, groupID, log)
}

// Send delivers msg and logs per-recipient failures reported by the
// transport. Only a failed request is returned as an error.
func (r *Rotator) Send(ctx context.Context, groupID string, msg domain.OutboundMessage) error {
	results, err := r.sender.SendMessage(ctx, groupID, msg)
	if err != nil {
		return err
	}
	for _, res := range results {
		if !res.Success {
			r.logger.Warn("Message not delivered to recipient",
				zap.String("group_id", groupID),
				zap.String("recipient", res.Recipient),
				zap.String("error", res.Error),
			)
		}
	}
	return nil
}

func (r *Rotator) persist(ctx context.Context, groupID string, log *domain.RotationLog) error {
	if err := r.store.Save(ctx, groupID, log); err != nil {
		r.metrics.ObserveStoreError("save")
		r.logger.Error("Failed to persist rotation log",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		return fmt.Errorf("persist rotation log: %w", err)
	}
	return nil
}
