package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"learnpulse-backend/internal/models"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans session events out to a user's open tabs. The engine publishes
// abuse warnings, termination notices and gem awards to a per-user redis
// channel; the hub holds one subscription per connected user and relays
// every payload to all of that user's sockets.
type Hub struct {
	mu          sync.RWMutex
	conns       map[uuid.UUID][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancels     map[uuid.UUID]context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		conns:       make(map[uuid.UUID][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancels:     make(map[uuid.UUID]context.CancelFunc),
	}
}

// HandleWebSocket upgrades the connection. Browsers cannot set an
// Authorization header on the websocket handshake, so the access token
// arrives as a query parameter instead.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.attach(userID, conn)
	h.writeFrame(conn, models.WSMessage{Type: "connected"})

	go h.readLoop(userID, conn)
}

func (h *Hub) authenticate(r *http.Request) (uuid.UUID, bool) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return uuid.Nil, false
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}

	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// readLoop drains client frames (the client never sends anything we act
// on) and keeps the socket alive with pings until it drops.
func (h *Hub) readLoop(userID uuid.UUID, conn *websocket.Conn) {
	defer h.detach(userID, conn)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				deadline := time.Now().Add(writeTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) attach(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[userID] = append(h.conns[userID], conn)

	// First socket for this user opens the redis subscription.
	if len(h.conns[userID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancels[userID] = cancel
		go h.relay(ctx, userID)
	}

	log.Printf("WebSocket connected: user %s (%d open)", userID, len(h.conns[userID]))
}

func (h *Hub) detach(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.conns[userID]
	for i, c := range conns {
		if c == conn {
			h.conns[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// Last socket gone: drop the subscription too.
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
		if cancel, ok := h.cancels[userID]; ok {
			cancel()
			delete(h.cancels, userID)
		}
	}

	log.Printf("WebSocket disconnected: user %s", userID)
}

// relay forwards everything the engine publishes for this user. Payloads
// are already JSON-encoded WSMessage envelopes; they pass through as-is.
func (h *Hub) relay(ctx context.Context, userID uuid.UUID) {
	channel := "session_events:" + userID.String()
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.conns[userID] {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (h *Hub) writeFrame(conn *websocket.Conn, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteMessage(websocket.TextMessage, data)
}
