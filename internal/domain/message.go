package domain

import "time"

// Mention references a member at a span of message text. Start and Length
// are counted in UTF-16 code units.
type Mention struct {
	Member Member
	Start  int
	Length int
}

// InboundEvent is a message received from the channel. GroupID and Body are
// empty when the event carries none.
type InboundEvent struct {
	GroupID     string
	Sender      Member
	Body        string
	Mentions    []Mention
	DeliveredAt time.Time
}

func (e InboundEvent) HasGroup() bool {
	return e.GroupID != ""
}

func (e InboundEvent) HasBody() bool {
	return e.Body != ""
}

// OutboundMessage is text plus resolved mention spans.
type OutboundMessage struct {
	Text     string
	Mentions []Mention
}

// SendResult reports delivery to a single recipient.
type SendResult struct {
	Recipient string
	Success   bool
	Error     string
}

type ReceiveStatus string

const (
	ReceiveOK             ReceiveStatus = "ok"
	ReceiveTimeout        ReceiveStatus = "timeout"
	ReceiveTransportError ReceiveStatus = "transport_error"
)

func (s ReceiveStatus) String() string {
	return string(s)
}

// ReceiveResult is the outcome of one bounded receive call.
type ReceiveResult struct {
	Status ReceiveStatus
	Events []InboundEvent
	Err    error
}

func ReceivedEvents(events []InboundEvent) ReceiveResult {
	if len(events) == 0 {
		return ReceiveResult{Status: ReceiveTimeout}
	}
	return ReceiveResult{Status: ReceiveOK, Events: events}
}

func ReceiveFailed(err error) ReceiveResult {
	return ReceiveResult{Status: ReceiveTransportError, Err: err}
}
