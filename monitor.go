package voxelnav

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"voxelnav/internal/pathing"
	"voxelnav/internal/telemetry"
)

const monitorWriteWait = 5 * time.Second

// Monitor exposes a navigator over WebSocket: subscribers receive lifecycle
// events and periodic status snapshots, and may submit goal commands. Each
// subscriber's goal commands are rate limited; the navigator itself never
// sees a flood.
type Monitor struct {
	logger telemetry.Logger

	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[string]*monitorSubscriber

	goals chan GoalRequest
}

type monitorSubscriber struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	limiter *rate.Limiter
}

// GoalRequest is an inbound goal command. Kind selects the goal flavor:
// "block" targets one exact cell, "xz" targets a column at any height.
type GoalRequest struct {
	Kind string `json:"kind"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
}

// Goal converts the request into a search goal, or nil for an unknown kind.
func (r GoalRequest) Goal() pathing.Goal {
	switch r.Kind {
	case "block":
		return pathing.GoalBlock{Pos: pathing.Pos{X: r.X, Y: r.Y, Z: r.Z}}
	case "xz":
		return pathing.GoalXZ{X: r.X, Z: r.Z}
	default:
		return nil
	}
}

// StatusSnapshot is the periodic state message pushed to subscribers.
type StatusSnapshot struct {
	Tick         uint64  `json:"tick"`
	Pathing      bool    `json:"pathing"`
	PathLength   int     `json:"pathLength"`
	Cursor       int     `json:"cursor"`
	FeetX        int     `json:"feetX"`
	FeetY        int     `json:"feetY"`
	FeetZ        int     `json:"feetZ"`
	Goal         string  `json:"goal,omitempty"`
	EstimatedETA float64 `json:"estimatedEta,omitempty"`
	ETAKnown     bool    `json:"etaKnown"`
	ServerTimeMS int64   `json:"serverTime"`
}

type monitorMessage struct {
	Type    string          `json:"type"`
	Event   string          `json:"event,omitempty"`
	Status  *StatusSnapshot `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NewMonitor builds a monitor. Goal commands are limited to two per second
// per subscriber, with a small burst.
func NewMonitor(logger telemetry.Logger) *Monitor {
	return &Monitor{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subscribers: make(map[string]*monitorSubscriber),
		goals:       make(chan GoalRequest, 16),
	}
}

// HandleWS upgrades the request and services the connection until it drops.
func (m *Monitor) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logf("monitor: upgrade failed: %v", err)
		return
	}
	id := uuid.NewString()
	sub := &monitorSubscriber{
		conn:    conn,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}

	m.mu.Lock()
	m.subscribers[id] = sub
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req GoalRequest
		if err := json.Unmarshal(data, &req); err != nil {
			m.send(id, sub, monitorMessage{Type: "error", Message: "malformed goal request"})
			continue
		}
		if req.Goal() == nil {
			m.send(id, sub, monitorMessage{Type: "error", Message: "unknown goal kind"})
			continue
		}
		if !sub.limiter.Allow() {
			m.send(id, sub, monitorMessage{Type: "error", Message: "goal commands throttled"})
			continue
		}
		select {
		case m.goals <- req:
			m.send(id, sub, monitorMessage{Type: "ack"})
		default:
			m.send(id, sub, monitorMessage{Type: "error", Message: "goal queue full"})
		}
	}
}

// PendingGoal pops one queued goal command without blocking. The tick loop
// drains this between ticks.
func (m *Monitor) PendingGoal() (GoalRequest, bool) {
	select {
	case req := <-m.goals:
		return req, true
	default:
		return GoalRequest{}, false
	}
}

// BroadcastEvent pushes a lifecycle event to every subscriber. Suitable as
// a navigator EventListener.
func (m *Monitor) BroadcastEvent(event PathEvent) {
	m.broadcast(monitorMessage{Type: "event", Event: string(event)})
}

// BroadcastStatus pushes a status snapshot to every subscriber.
func (m *Monitor) BroadcastStatus(status StatusSnapshot) {
	status.ServerTimeMS = time.Now().UnixMilli()
	m.broadcast(monitorMessage{Type: "status", Status: &status})
}

func (m *Monitor) broadcast(msg monitorMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		m.logf("monitor: marshal failed: %v", err)
		return
	}

	m.mu.Lock()
	subs := make(map[string]*monitorSubscriber, len(m.subscribers))
	for id, sub := range m.subscribers {
		subs[id] = sub
	}
	m.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(monitorWriteWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			m.logf("monitor: dropping subscriber %s: %v", id, err)
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
			sub.conn.Close()
		}
	}
}

func (m *Monitor) send(id string, sub *monitorSubscriber, msg monitorMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	sub.mu.Lock()
	sub.conn.SetWriteDeadline(time.Now().Add(monitorWriteWait))
	err = sub.conn.WriteMessage(websocket.TextMessage, data)
	sub.mu.Unlock()
	if err != nil {
		m.logf("monitor: send to %s failed: %v", id, err)
	}
}

// Close disconnects every subscriber.
func (m *Monitor) Close() {
	m.mu.Lock()
	for id, sub := range m.subscribers {
		sub.conn.Close()
		delete(m.subscribers, id)
	}
	m.mu.Unlock()
}

func (m *Monitor) logf(format string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Printf(format, args...)
}
