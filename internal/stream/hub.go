// Package stream broadcasts per-tick snapshots of a physics system to
// websocket clients and accepts desired rigid-body type changes from them.
//
// The hub never touches the system from its own goroutines. Snapshots are
// built inside OnTick on the ticking goroutine and type changes are queued
// on Commands for the simulation loop to apply between steps.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
	"github.com/san-kum/hinape/internal/scene"
	"github.com/san-kum/hinape/internal/system"
)

var ErrClosed = errors.New("hub closed")

const (
	MessageTypeSnapshot = "snapshot"
	MessageTypeSetType  = "set_type"
	MessageTypeError    = "error"
)

type ObjectState struct {
	ID       uint32         `json:"id"`
	Type     rigidbody.Type `json:"type"`
	Mass     float64        `json:"mass"`
	Position mgl64.Vec3     `json:"position"`
	Rotation mgl64.Vec3     `json:"rotation"`
	Velocity mgl64.Vec3     `json:"velocity"`
}

type Snapshot struct {
	Type    string        `json:"type"`
	Step    int           `json:"step"`
	Time    float64       `json:"time"`
	Objects []ObjectState `json:"objects"`
}

// Command asks for the desired rigid-body type of an entity to change.
type Command struct {
	Type   string         `json:"type"`
	Entity uint32         `json:"entity"`
	Body   rigidbody.Type `json:"body"`

	origin *conn
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// conn serializes writes to a websocket connection.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(messageType, data)
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*conn]struct{}
	closed  bool

	commands chan Command
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   slog.Default(),
		clients:  make(map[*conn]struct{}),
		commands: make(chan Command, 64),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Commands yields type changes sent by clients. Drain it between steps.
func (h *Hub) Commands() <-chan Command { return h.commands }

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and reads commands until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &conn{ws: ws}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = ws.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("stream client connected", "remote", r.RemoteAddr)

	defer h.drop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *conn) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.reply(c, err)
			continue
		}
		if cmd.Type != MessageTypeSetType {
			h.reply(c, fmt.Errorf("unknown message type: %s", cmd.Type))
			continue
		}
		cmd.origin = c

		select {
		case h.commands <- cmd:
		default:
			h.reply(c, errors.New("command queue full"))
		}
	}
}

// reply sends err to c if it is still connected.
func (h *Hub) reply(c *conn, err error) {
	h.mu.RLock()
	_, ok := h.clients[c]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if werr := c.writeJSON(errorMessage{Type: MessageTypeError, Error: err.Error()}); werr != nil {
		h.logger.Debug("error reply failed", "err", werr)
	}
}

func (h *Hub) drop(c *conn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.ws.Close()
	}
}

// OnTick snapshots every registered object and broadcasts it.
func (h *Hub) OnTick(s *system.System, t float64) {
	if h.Clients() == 0 {
		return
	}
	if err := h.Broadcast(Capture(s)); err != nil && !errors.Is(err, ErrClosed) {
		h.logger.Warn("snapshot broadcast failed", "err", err)
	}
}

func Capture(s *system.System) Snapshot {
	snap := Snapshot{
		Type:    MessageTypeSnapshot,
		Step:    s.Steps(),
		Time:    s.Time(),
		Objects: make([]ObjectState, 0, s.Len()),
	}
	s.Each(func(id uint32, obj *physics.Object) {
		snap.Objects = append(snap.Objects, ObjectState{
			ID:       id,
			Type:     obj.RigidBodyType(),
			Mass:     obj.Mass(),
			Position: obj.Position(),
			Rotation: obj.Rotation(),
			Velocity: obj.Velocity(),
		})
	})
	return snap
}

// Broadcast sends v to every client. Clients whose write fails are dropped.
func (h *Hub) Broadcast(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	clients := make([]*conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("dropping stream client", "err", err)
			h.drop(c)
		}
	}
	return nil
}

func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[*conn]struct{})
	h.mu.Unlock()

	for c := range clients {
		_ = c.ws.Close()
	}
}

// Apply applies a queued command to sc. When it fails the client that
// sent the command gets an error message.
func (h *Hub) Apply(sc *scene.Scene, cmd Command) error {
	err := Apply(sc, cmd)
	if err != nil && cmd.origin != nil {
		h.reply(cmd.origin, err)
	}
	return err
}

// Apply sets the desired type carried by cmd on its entity in sc.
func Apply(sc *scene.Scene, cmd Command) error {
	e, ok := sc.Entity(cmd.Entity)
	if !ok {
		return fmt.Errorf("set_type: unknown entity %d", cmd.Entity)
	}
	e.SetRigidBodyType(cmd.Body)
	return nil
}
