package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
	"github.com/san-kum/hinape/internal/scene"
	"github.com/san-kum/hinape/internal/system"
)

func dial(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(h)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("failed to connect: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return ws, func() {
		ws.Close()
		server.Close()
	}
}

func TestSnapshotBroadcast(t *testing.T) {
	h := NewHub()
	defer h.Close()
	ws, cleanup := dial(t, h)
	defer cleanup()

	sys := system.New(system.WithKernel(system.NewEuler()))
	sys.AddObserver(h)
	k := rigidbody.NewKinematic()
	k.SetLinearVelocity(mgl64.Vec3{2, 0, 0})
	sys.Register(7, physics.FromRigidBody(k))

	if err := sys.Tick(0.5); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap Snapshot
	if err := ws.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	if snap.Type != MessageTypeSnapshot || snap.Step != 1 || snap.Time != 0.5 {
		t.Errorf("unexpected snapshot header: %+v", snap)
	}
	if len(snap.Objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(snap.Objects))
	}
	obj := snap.Objects[0]
	if obj.ID != 7 || obj.Type != rigidbody.TypeKinematic {
		t.Errorf("unexpected object: %+v", obj)
	}
	if obj.Position != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("expected position {1,0,0}, got %v", obj.Position)
	}
}

func TestCommandsQueued(t *testing.T) {
	h := NewHub()
	defer h.Close()
	ws, cleanup := dial(t, h)
	defer cleanup()

	msg := `{"type":"set_type","entity":3,"body":"static"}`
	if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case cmd := <-h.Commands():
		if cmd.Entity != 3 || cmd.Body != rigidbody.TypeStatic {
			t.Errorf("unexpected command: %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command never queued")
	}
}

func TestInvalidCommandReportsError(t *testing.T) {
	h := NewHub()
	defer h.Close()
	ws, cleanup := dial(t, h)
	defer cleanup()

	for _, msg := range []string{
		`{"type":"teleport","entity":1}`,
		`{"type":"set_type","entity":1,"body":"floppy"}`,
		`not json`,
	} {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var reply errorMessage
		if err := ws.ReadJSON(&reply); err != nil {
			t.Fatalf("read reply: %v", err)
		}
		if reply.Type != MessageTypeError || reply.Error == "" {
			t.Errorf("%s: expected error reply, got %+v", msg, reply)
		}
	}

	select {
	case cmd := <-h.Commands():
		t.Errorf("invalid messages should not be queued, got %+v", cmd)
	default:
	}
}

func TestApply(t *testing.T) {
	sc := scene.New(system.New())
	e, err := scene.NewPhysicsEntity(1, "box", scene.Pose{}, rigidbody.TypeDynamic)
	if err != nil {
		t.Fatalf("entity: %v", err)
	}
	if err := sc.Add(e); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := Apply(sc, Command{Type: MessageTypeSetType, Entity: 1, Body: rigidbody.TypeKinematic}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if e.RigidBodyType() != rigidbody.TypeKinematic || !e.Pending() {
		t.Errorf("expected pending kinematic, got %s", e.RigidBodyType())
	}

	if err := Apply(sc, Command{Type: MessageTypeSetType, Entity: 9}); err == nil {
		t.Error("expected error for unknown entity")
	}
}

func TestApplyRejectedRepliesToSender(t *testing.T) {
	h := NewHub()
	defer h.Close()
	ws, cleanup := dial(t, h)
	defer cleanup()

	sc := scene.New(system.New())
	msg := `{"type":"set_type","entity":42,"body":"static"}`
	if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	var cmd Command
	select {
	case cmd = <-h.Commands():
	case <-time.After(2 * time.Second):
		t.Fatal("command never queued")
	}
	if err := h.Apply(sc, cmd); err == nil {
		t.Fatal("expected error for unknown entity")
	}

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply errorMessage
	if err := ws.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != MessageTypeError || !strings.Contains(reply.Error, "unknown entity 42") {
		t.Errorf("expected unknown entity error, got %+v", reply)
	}
}

func TestBroadcastAfterClose(t *testing.T) {
	h := NewHub()
	h.Close()
	if err := h.Broadcast(Snapshot{}); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
