package iris

import (
	"time"

	"github.com/kapu/duty-rotation-bot/internal/domain"
)

type MemberJSON struct {
	Number string `json:"number,omitempty"`
	UUID   string `json:"uuid,omitempty"`
}

type MentionJSON struct {
	Recipient string `json:"recipient,omitempty"`
	Number    string `json:"number,omitempty"`
	UUID      string `json:"uuid,omitempty"`
	Start     int    `json:"start"`
	Length    int    `json:"length"`
}

type ReplyRequest struct {
	Type     string        `json:"type"`
	Room     string        `json:"room"`
	Data     string        `json:"data"`
	Mentions []MentionJSON `json:"mentions,omitempty"`
}

type SendResultJSON struct {
	Recipient string `json:"recipient"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type ReplyResponse struct {
	Results []SendResultJSON `json:"results"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type GroupJSON struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Members []MemberJSON `json:"members"`
}

// Message is an inbound WebSocket frame.
type Message struct {
	Msg         string        `json:"msg"`
	Room        string        `json:"room"`
	Sender      *MemberJSON   `json:"sender,omitempty"`
	Mentions    []MentionJSON `json:"mentions,omitempty"`
	DeliveredAt int64         `json:"delivered_at,omitempty"`
}

// ToInboundEvent converts a frame, stamping receivedAt when the bridge
// reported no delivery time.
func ToInboundEvent(message *Message, receivedAt time.Time) domain.InboundEvent {
	event := domain.InboundEvent{
		GroupID:     message.Room,
		Body:        message.Msg,
		DeliveredAt: receivedAt,
	}
	if message.DeliveredAt > 0 {
		event.DeliveredAt = time.UnixMilli(message.DeliveredAt)
	}
	if message.Sender != nil {
		event.Sender = domain.NewMember(message.Sender.Number, message.Sender.UUID)
	}
	for _, m := range message.Mentions {
		uuid := m.UUID
		if uuid == "" && m.Number == "" {
			uuid = m.Recipient
		}
		event.Mentions = append(event.Mentions, domain.Mention{
			Member: domain.NewMember(m.Number, uuid),
			Start:  m.Start,
			Length: m.Length,
		})
	}
	return event
}

type WebSocketState string

const (
	WSStateConnecting   WebSocketState = "CONNECTING"
	WSStateConnected    WebSocketState = "CONNECTED"
	WSStateDisconnected WebSocketState = "DISCONNECTED"
	WSStateReconnecting WebSocketState = "RECONNECTING"
	WSStateFailed       WebSocketState = "FAILED"
)

func (s WebSocketState) String() string {
	return string(s)
}
