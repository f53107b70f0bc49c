package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/deadman360/gridpointer/pointer/config"
	"github.com/deadman360/gridpointer/pointer/loop"
	"github.com/deadman360/gridpointer/pointer/motion"
	"github.com/deadman360/gridpointer/pointer/service"
)

// fakeService records calls without a running loop.
type fakeService struct {
	mu     sync.Mutex
	moves  []string
	clicks int
}

func (f *fakeService) Move(ctx context.Context, direction string, dash bool) (*service.MoveResult, error) {
	if _, err := motion.ParseDirection(direction); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, direction)
	return &service.MoveResult{Accepted: true, Direction: direction, Dash: dash}, nil
}

func (f *fakeService) Click(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks++
	return nil
}

func (f *fakeService) Status(ctx context.Context) (loop.Status, error) {
	return loop.Status{Screen: motion.ScreenPos{X: 0.5, Y: 0.5}}, nil
}

func (f *fakeService) Metrics(ctx context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeService) GetConfig(ctx context.Context) (config.Config, error) {
	return config.Default(), nil
}

func (f *fakeService) UpdateConfig(ctx context.Context, cfg config.Config) error {
	return nil
}

func httpHandler(hub *Hub) http.Handler {
	return http.HandlerFunc(hub.ServeWS)
}

func TestHub_InitialStatusFrame(t *testing.T) {
	_, _, conn := dialHub(t)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}
	if frame.Type != "status" {
		t.Errorf("expected status frame, got %q", frame.Type)
	}
	if frame.Status == nil || frame.Status.Screen != (motion.ScreenPos{X: 0.5, Y: 0.5}) {
		t.Errorf("unexpected initial status: %+v", frame.Status)
	}
}

func TestHub_ForwardsMoveActions(t *testing.T) {
	_, svc, conn := dialHub(t)

	if err := conn.WriteJSON(Action{Action: "move", Direction: "right", Dash: true}); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitFor(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.moves) == 1 && svc.moves[0] == "right"
	}, "move never reached the service")
}

func TestHub_ForwardsClickActions(t *testing.T) {
	_, svc, conn := dialHub(t)

	if err := conn.WriteJSON(Action{Action: "click"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitFor(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.clicks == 1
	}, "click never reached the service")
}

func TestHub_RejectsUnknownAction(t *testing.T) {
	_, _, conn := dialHub(t)

	// Drain the initial status frame.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}

	if err := conn.WriteJSON(Action{Action: "teleport"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame.Type != "error" || !strings.Contains(frame.Error, "teleport") {
		t.Errorf("expected error frame naming the action, got %+v", frame)
	}
}

func TestHub_BroadcastsPositions(t *testing.T) {
	hub, _, conn := dialHub(t)

	// Drain the initial status frame.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}

	status := loop.Status{
		Grid:   motion.GridPos{Col: 3, Row: 0},
		Screen: motion.ScreenPos{X: 1.0 / 3.0, Y: 0},
		Moving: true,
	}
	hub.Notify(status)

	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read position frame: %v", err)
	}
	if frame.Type != "position" {
		t.Errorf("expected position frame, got %q", frame.Type)
	}
	if frame.Status == nil || frame.Status.Grid != status.Grid {
		t.Errorf("unexpected broadcast payload: %+v", frame.Status)
	}
}

// dialHub spins up a hub behind an httptest server and returns a connected
// client.
func dialHub(t *testing.T) (*Hub, *fakeService, *gws.Conn) {
	t.Helper()

	svc := &fakeService{}
	hub := NewHub(svc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(httpHandler(hub))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return hub, svc, conn
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}
