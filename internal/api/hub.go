package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/orchestrator"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	clientBuffer = 64
)

// Event is one message pushed to websocket clients.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"timestamp"`
	Data any       `json:"data,omitempty"`
}

// Event types.
const (
	EventScanStarted  = "scan_started"
	EventPhase        = "phase_completed"
	EventProgress     = "progress"
	EventActivity     = "activity"
	EventScanFinished = "scan_finished"
	EventScanFailed   = "scan_failed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans observer events out to connected websocket clients.
// Slow clients whose buffer is full are disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *zap.Logger
	now     func() time.Time
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

var _ orchestrator.Observer = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logging.OrNop(logger).Named("ws"),
		now:     time.Now,
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends an event to every client.
func (h *Hub) Broadcast(eventType string, data any) {
	msg, err := json.Marshal(Event{Type: eventType, Time: h.now(), Data: data})
	if err != nil {
		h.logger.Warn("marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.removeLocked(c)
		}
	}
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) ScanStarted(scan *domain.ScanCycle) {
	h.Broadcast(EventScanStarted, map[string]any{"scan_id": scan.ID, "started_at": scan.StartedAt})
}

func (h *Hub) PhaseCompleted(scanID string, phase domain.Phase, tokens []domain.PhaseToken) {
	h.Broadcast(EventPhase, map[string]any{"scan_id": scanID, "phase": phase, "count": len(tokens)})
}

func (h *Hub) Progress(scanID string, phase domain.Phase, done, total int) {
	h.Broadcast(EventProgress, map[string]any{"scan_id": scanID, "phase": phase, "done": done, "total": total})
}

func (h *Hub) Activity(level, message string) {
	h.Broadcast(EventActivity, orchestrator.ActivityEntry{Time: h.now(), Level: level, Message: message})
}

func (h *Hub) ScanFinished(res *orchestrator.ScanResult) {
	h.Broadcast(EventScanFinished, map[string]any{
		"scan":    res.Cycle,
		"results": newResultViews(res.Detected),
	})
}

func (h *Hub) ScanFailed(scan *domain.ScanCycle, err error) {
	h.Broadcast(EventScanFailed, map[string]any{"scan_id": scan.ID, "error": err.Error()})
}
