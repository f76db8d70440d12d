package iris

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kapu/duty-rotation-bot/internal/domain"
	"go.uber.org/zap"
)

// ErrInboxFailed is reported when the stream feeding the inbox has failed
// for good.
var ErrInboxFailed = errors.New("inbound message stream failed")

// Inbox buffers events pushed by the WebSocket listener until the cycle
// driver receives them. When full, the oldest event is dropped.
type Inbox struct {
	mu       sync.Mutex
	events   []domain.InboundEvent
	capacity int
	failure  error
	notify   chan struct{}
	logger   *zap.Logger
}

func NewInbox(capacity int, logger *zap.Logger) *Inbox {
	if capacity <= 0 {
		capacity = 1
	}
	return &Inbox{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		logger:   logger,
	}
}

func (in *Inbox) Push(event domain.InboundEvent) {
	in.mu.Lock()
	if len(in.events) >= in.capacity {
		in.logger.Warn("Inbox full, dropping oldest event",
			zap.Int("capacity", in.capacity),
			zap.String("group_id", in.events[0].GroupID),
		)
		in.events = in.events[1:]
	}
	in.events = append(in.events, event)
	in.mu.Unlock()
	in.signal()
}

// Fail marks the stream as broken; subsequent receives report a transport
// error until Recover is called.
func (in *Inbox) Fail(err error) {
	if err == nil {
		err = ErrInboxFailed
	}
	in.mu.Lock()
	in.failure = err
	in.mu.Unlock()
	in.signal()
}

func (in *Inbox) Recover() {
	in.mu.Lock()
	in.failure = nil
	in.mu.Unlock()
}

func (in *Inbox) signal() {
	select {
	case in.notify <- struct{}{}:
	default:
	}
}

// Receive collects events for up to timeout, returning early once max
// events are gathered (max < 0 means no limit). It never blocks longer than
// timeout. Events beyond max stay queued for the next call.
func (in *Inbox) Receive(ctx context.Context, timeout time.Duration, max int) domain.ReceiveResult {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var collected []domain.InboundEvent
	for {
		in.mu.Lock()
		if in.failure != nil {
			err := in.failure
			in.mu.Unlock()
			return domain.ReceiveFailed(err)
		}
		collected = append(collected, in.take(max-len(collected), max < 0)...)
		in.mu.Unlock()

		if max >= 0 && len(collected) >= max {
			return domain.ReceivedEvents(collected)
		}

		select {
		case <-in.notify:
		case <-timer.C:
			return domain.ReceivedEvents(collected)
		case <-ctx.Done():
			return domain.ReceivedEvents(collected)
		}
	}
}

// take removes up to n queued events (all when unlimited). Caller holds mu.
func (in *Inbox) take(n int, unlimited bool) []domain.InboundEvent {
	if unlimited || n > len(in.events) {
		n = len(in.events)
	}
	if n <= 0 {
		return nil
	}
	out := make([]domain.InboundEvent, n)
	copy(out, in.events[:n])
	in.events = in.events[n:]
	return out
}

// Len reports the number of queued events.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.events)
}
