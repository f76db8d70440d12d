package iris

import (
	"time"

	"go.uber.org/zap"
)

// Channel pairs the HTTP client (send, group lookup) with the inbox fed by
// the WebSocket listener (receive).
type Channel struct {
	*Client
	*Inbox
}

// NewChannel wires ws into a fresh inbox: frames are queued as inbound
// events and a WebSocket that gives up reconnecting fails the inbox.
func NewChannel(client *Client, ws *WebSocket, inboxCapacity int, logger *zap.Logger) *Channel {
	inbox := NewInbox(inboxCapacity, logger)

	ws.OnMessage(func(message *Message, receivedAt time.Time) {
		inbox.Push(ToInboundEvent(message, receivedAt))
	})
	ws.OnStateChange(func(state WebSocketState, err error) {
		switch state {
		case WSStateFailed:
			inbox.Fail(err)
		case WSStateConnected:
			inbox.Recover()
		}
	})

	return &Channel{Client: client, Inbox: inbox}
}
