package iris

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type MessageCallback func(message *Message, receivedAt time.Time)

type StateCallback func(state WebSocketState, err error)

// WebSocket streams inbound frames from the bridge and reconnects with a
// bounded number of attempts.
type WebSocket struct {
	wsURL                string
	conn                 *websocket.Conn
	connMu               sync.Mutex
	state                WebSocketState
	stateMu              sync.RWMutex
	onMessage            MessageCallback
	onState              StateCallback
	callbacksMu          sync.RWMutex
	reconnectAttempts    int
	maxReconnectAttempts int
	reconnectDelay       time.Duration
	logger               *zap.Logger
	stopCh               chan struct{}
	stopOnce             sync.Once
	listenerWg           sync.WaitGroup
}

func NewWebSocket(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration, logger *zap.Logger) *WebSocket {
	return &WebSocket{
		wsURL:                wsURL,
		state:                WSStateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		logger:               logger,
		stopCh:               make(chan struct{}),
	}
}

// OnMessage sets the frame handler. It runs on the listener goroutine.
func (ws *WebSocket) OnMessage(callback MessageCallback) {
	ws.callbacksMu.Lock()
	defer ws.callbacksMu.Unlock()
	ws.onMessage = callback
}

// OnStateChange sets the state handler; err is the failure that caused a
// transition, if any.
func (ws *WebSocket) OnStateChange(callback StateCallback) {
	ws.callbacksMu.Lock()
	defer ws.callbacksMu.Unlock()
	ws.onState = callback
}

func (ws *WebSocket) Connect(ctx context.Context) error {
	ws.stateMu.RLock()
	current := ws.state
	ws.stateMu.RUnlock()
	if current == WSStateConnected || current == WSStateConnecting {
		ws.logger.Warn("WebSocket already connected or connecting")
		return nil
	}

	ws.setState(WSStateConnecting, nil)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, ws.wsURL, nil)
	if err != nil {
		ws.logger.Error("Failed to connect WebSocket", zap.Error(err))
		ws.scheduleReconnect(ctx, err)
		return err
	}

	ws.connMu.Lock()
	ws.conn = conn
	ws.connMu.Unlock()
	ws.reconnectAttempts = 0
	ws.setState(WSStateConnected, nil)

	ws.logger.Info("WebSocket connected", zap.String("url", ws.wsURL))

	ws.listenerWg.Add(1)
	go ws.listen(ctx, conn)

	return nil
}

func (ws *WebSocket) listen(ctx context.Context, conn *websocket.Conn) {
	defer ws.listenerWg.Done()
	defer ws.logger.Debug("WebSocket listener stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ws.stopCh:
			return
		default:
		}

		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ws.stopCh:
				return
			default:
			}
			ws.logger.Error("WebSocket read error", zap.Error(err))
			ws.setState(WSStateDisconnected, err)
			ws.scheduleReconnect(ctx, err)
			return
		}

		ws.handleMessage(msgBytes)
	}
}

func (ws *WebSocket) handleMessage(data []byte) {
	receivedAt := time.Now()
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		dataStr := string(data)
		if len(dataStr) > 200 {
			dataStr = dataStr[:200]
		}
		ws.logger.Error("Failed to parse message",
			zap.Error(err),
			zap.String("data", dataStr),
		)
		return
	}

	ws.callbacksMu.RLock()
	callback := ws.onMessage
	ws.callbacksMu.RUnlock()

	if callback != nil {
		callback(&message, receivedAt)
	}
}

func (ws *WebSocket) scheduleReconnect(ctx context.Context, cause error) {
	ws.reconnectAttempts++

	if ws.reconnectAttempts > ws.maxReconnectAttempts {
		ws.logger.Error("Max reconnect attempts reached",
			zap.Int("attempts", ws.reconnectAttempts),
		)
		ws.setState(WSStateFailed, fmt.Errorf("websocket gave up after %d attempts: %w", ws.maxReconnectAttempts, cause))
		return
	}

	ws.setState(WSStateReconnecting, cause)

	ws.logger.Info("Scheduling reconnect",
		zap.Int("attempt", ws.reconnectAttempts),
		zap.Int("max", ws.maxReconnectAttempts),
		zap.Duration("delay", ws.reconnectDelay),
	)

	go func() {
		select {
		case <-time.After(ws.reconnectDelay):
			if err := ws.Connect(ctx); err != nil {
				ws.logger.Error("Reconnect failed", zap.Error(err))
			}
		case <-ws.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}()
}

func (ws *WebSocket) setState(newState WebSocketState, cause error) {
	ws.stateMu.Lock()
	oldState := ws.state
	ws.state = newState
	ws.stateMu.Unlock()

	if oldState == newState {
		return
	}

	ws.logger.Debug("WebSocket state changed",
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
	)

	ws.callbacksMu.RLock()
	callback := ws.onState
	ws.callbacksMu.RUnlock()

	if callback != nil {
		callback(newState, cause)
	}
}

func (ws *WebSocket) GetState() WebSocketState {
	ws.stateMu.RLock()
	defer ws.stateMu.RUnlock()
	return ws.state
}

func (ws *WebSocket) IsConnected() bool {
	return ws.GetState() == WSStateConnected
}

func (ws *WebSocket) Disconnect() error {
	ws.stopOnce.Do(func() {
		close(ws.stopCh)
	})

	ws.connMu.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.connMu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			ws.logger.Error("Failed to close WebSocket", zap.Error(err))
			return err
		}
	}

	ws.setState(WSStateDisconnected, nil)

	done := make(chan struct{})
	go func() {
		ws.listenerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ws.logger.Debug("Listener stopped cleanly")
	case <-time.After(5 * time.Second):
		ws.logger.Warn("Timeout waiting for listener to stop")
	}

	ws.logger.Info("WebSocket disconnected")
	return nil
}
