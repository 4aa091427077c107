package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/infrastructure/eventbus"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, zap.NewNop()).ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func TestHub_ForwardsActivityEvents(t *testing.T) {
	hub, srv := startHub(t)
	bus := eventbus.NewInMemoryBus(zap.NewNop(), 16)
	defer bus.Close()
	detach := hub.Attach(bus)
	defer detach()

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	bus.Publish(context.Background(), eventbus.NewActivityEvent(entity.Activity{
		Kind:     entity.ActivityWorkflowRun,
		Subject:  "report",
		TargetID: 12,
		Outcome:  entity.OutcomeSuccess,
		At:       time.Now(),
	}))

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeActivity {
		t.Fatalf("expected activity, got %q", msg.Type)
	}
	if msg.Title != "Workflow Execution #12" || msg.Activity == nil || msg.Activity.Subject != "report" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestHub_IgnoresNonActivityEvents(t *testing.T) {
	hub, srv := startHub(t)
	bus := eventbus.NewInMemoryBus(zap.NewNop(), 16)
	defer bus.Close()
	defer hub.Attach(bus)()

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	bus.Publish(context.Background(), eventbus.NewEvent("other", "payload"))
	bus.Publish(context.Background(), eventbus.NewActivityEvent(entity.Activity{Kind: entity.ActivitySettingsSaved}))

	if msg := readMessage(t, conn); msg.Title != "Settings saved" {
		t.Errorf("only activities should be forwarded, got %+v", msg)
	}
}

func TestClient_PingPong(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if err := conn.WriteJSON(WSMessage{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("expected pong, got %q", msg.Type)
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}
