package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/auth"
	"github.com/plinko-game/backend/internal/config"
	"github.com/plinko-game/backend/internal/events"
)

// WSHub раздаёт события игры и платежей подключённым клиентам. Подписка
// на Redis-стримы общая, доставка — адресная по telegram_id.
type WSHub struct {
	cfg         *config.Config
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[int64][]*websocket.Conn
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:         cfg,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[int64][]*websocket.Conn),
	}
}

// Start подписывается на оба стрима и раздаёт события одной горутиной:
// websocket-соединение не переживает конкурентных записей, поэтому все
// WriteMessage идут через единственный диспетчер.
func (h *WSHub) Start(ctx context.Context) {
	queue := make(chan events.Event, 256)
	for _, stream := range []string{events.StreamPayments, events.StreamGame} {
		_ = h.subscriber.Subscribe(ctx, stream, func(event events.Event) {
			select {
			case queue <- event:
			default:
				h.log.Warn("ws event queue full, dropping event", zap.String("type", event.Type))
			}
		})
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-queue:
				h.dispatch(event)
			}
		}
	}()
}

// eventRecipient извлекает адресата из payload. Второе значение false —
// событие широковещательное.
func eventRecipient(event events.Event) (int64, bool) {
	raw, ok := event.Payload["telegram_id"]
	if !ok {
		return 0, false
	}
	// json decode даёт float64, Publish в том же процессе — int64
	switch id := raw.(type) {
	case float64:
		return int64(id), true
	case int64:
		return id, true
	}
	return 0, false
}

// dispatch шлёт событие владельцу, если payload несёт telegram_id, иначе
// всем.
func (h *WSHub) dispatch(event events.Event) {
	if id, ok := eventRecipient(event); ok {
		h.SendToUser(id, event)
		return
	}
	h.broadcast(event)
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.connections {
		for _, conn := range conns {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}
}

func (h *WSHub) SendToUser(telegramID int64, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[telegramID] {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	// Extract token from query
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	telegramID := claims.TelegramUserID

	// Register
	h.mu.Lock()
	h.connections[telegramID] = append(h.connections[telegramID], conn)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		conns := h.connections[telegramID]
		for i, c := range conns {
			if c == conn {
				h.connections[telegramID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.connections[telegramID]) == 0 {
			delete(h.connections, telegramID)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
