package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"agriweather/backend/services/insights-service/internal/models"
)

// Frame types pushed to subscribers.
const (
	FrameCurrentState = "current_state"
	FrameError        = "error"
)

// SnapshotFunc produces the current-state view.
type SnapshotFunc func(ctx context.Context) ([]models.CurrentState, error)

// Frame is the envelope of every pushed message.
type Frame struct {
	Type        string                `json:"type"`
	GeneratedAt time.Time             `json:"generated_at"`
	Data        []models.CurrentState `json:"data"`
	Error       string                `json:"error,omitempty"`
	View        string                `json:"view,omitempty"`
}

// Hub tracks subscribers and pushes the current state to them.
type Hub struct {
	mu          sync.RWMutex
	connections map[uint64]*Connection
	nextID      atomic.Uint64

	snapshot     SnapshotFunc
	interval     time.Duration
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	logger       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub builds hub.
func NewHub(snapshot SnapshotFunc, interval time.Duration, logger *zap.Logger) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		connections:  make(map[uint64]*Connection),
		snapshot:     snapshot,
		interval:     interval,
		writeTimeout: 10 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// CORS and auth are enforced by router middleware.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// ServeHTTP upgrades the request and sends an initial snapshot.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := h.nextID.Add(1)
	connection := NewConnection(id, conn, h.writeTimeout, h.logger, h.remove)
	h.add(connection)
	h.logger.Info("stream subscriber connected", zap.Uint64("conn_id", id), zap.Int("subscribers", h.Count()))

	connection.Send(h.frame(r.Context()))
	go connection.Start(h.ctx)
}

// Run pushes a fresh snapshot every interval until ctx is done, then closes all subscribers.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if h.Count() > 0 {
				h.Broadcast(ctx)
			}
		}
	}
}

// Broadcast sends one snapshot to every subscriber.
func (h *Hub) Broadcast(ctx context.Context) {
	msg := h.frame(ctx)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		conn.Send(msg)
	}
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) frame(ctx context.Context) []byte {
	f := Frame{Type: FrameCurrentState, GeneratedAt: time.Now().UTC()}
	states, err := h.snapshot(ctx)
	if err != nil {
		h.logger.Warn("current state snapshot failed", zap.Error(err))
		f = Frame{Type: FrameError, GeneratedAt: f.GeneratedAt, Error: "data unavailable", View: FrameCurrentState}
	} else {
		f.Data = states
	}

	msg, err := json.Marshal(f)
	if err != nil {
		h.logger.Error("encode frame failed", zap.Error(err))
		msg, _ = json.Marshal(Frame{Type: FrameError, GeneratedAt: f.GeneratedAt, Error: "encode failed"})
	}
	return msg
}

func (h *Hub) add(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn.ID()] = conn
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, id)
}
