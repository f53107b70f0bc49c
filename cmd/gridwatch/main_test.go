package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func (w *watcher) snapshot() (status, bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status, w.gotOne, w.lastErr
}

func TestConsumeMessage_PositionFrames(t *testing.T) {
	w := &watcher{}

	w.consumeMessage([]byte(`{"type":"position","status":{"grid":{"col":3,"row":1},"screen":{"x":0.25,"y":0.1},"moving":true,"tick":42}}`))

	st, gotOne, _ := w.snapshot()
	if !gotOne {
		t.Fatal("position frame was not applied")
	}
	if st.Grid.Col != 3 || st.Grid.Row != 1 || !st.Moving {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestConsumeMessage_CoalescedFrames(t *testing.T) {
	w := &watcher{}

	// The hub joins queued frames with newlines into one message; the last
	// position must win.
	payload := strings.Join([]string{
		`{"type":"status","status":{"grid":{"col":0,"row":0},"screen":{"x":0.5,"y":0.5}}}`,
		`{"type":"position","status":{"grid":{"col":1,"row":0},"screen":{"x":0.1,"y":0}}}`,
		`{"type":"position","status":{"grid":{"col":2,"row":0},"screen":{"x":0.2,"y":0}}}`,
	}, "\n")
	w.consumeMessage([]byte(payload))

	st, gotOne, _ := w.snapshot()
	if !gotOne {
		t.Fatal("no frame was applied")
	}
	if st.Grid.Col != 2 {
		t.Errorf("expected the last coalesced position (col 2), got col %d", st.Grid.Col)
	}
}

func TestConsumeMessage_ErrorFrames(t *testing.T) {
	w := &watcher{}

	w.consumeMessage([]byte(`{"type":"error","error":"unknown action: teleport"}`))

	_, gotOne, lastErr := w.snapshot()
	if gotOne {
		t.Error("error frame must not count as a status")
	}
	if !strings.Contains(lastErr, "teleport") {
		t.Errorf("error text not recorded: %q", lastErr)
	}
}

func TestReadStatus_LiveStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"position","status":{"grid":{"col":5,"row":2},"screen":{"x":0.263,"y":0.182},"moving":true}}`))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	w := &watcher{conn: conn}
	go w.readStatus()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, gotOne, _ := w.snapshot()
		if gotOne {
			if st.Grid.Col != 5 || st.Grid.Row != 2 || !st.Moving {
				t.Fatalf("unexpected status from stream: %+v", st)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("streamed position frame never reached the watcher")
}
