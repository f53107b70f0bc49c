// Command gridwatch renders a live view of the cursor grid in the terminal.
//
// It connects to a running gridpointer daemon over WebSocket, draws the
// configured grid, highlights the current cell and shows the normalized
// screen position as it animates. Keys typed into gridwatch are forwarded
// as movement commands, which makes it a handy remote control when the
// daemon runs headless.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
)

var (
	addr    = flag.String("addr", "localhost:8080", "daemon address (host:port)")
	apiPath = flag.String("path", "/ws", "WebSocket path on the daemon")
)

// frame mirrors the daemon's WebSocket frame shape.
type frame struct {
	Type   string  `json:"type"`
	Status *status `json:"status,omitempty"`
	Error  string  `json:"error,omitempty"`
}

type status struct {
	Grid struct {
		Col int `json:"col"`
		Row int `json:"row"`
	} `json:"grid"`
	Screen struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"screen"`
	Moving bool   `json:"moving"`
	Tick   uint64 `json:"tick"`
}

// action mirrors the daemon's inbound WebSocket message shape.
type action struct {
	Action    string `json:"action"`
	Direction string `json:"direction,omitempty"`
	Dash      bool   `json:"dash,omitempty"`
}

// watcher owns the screen and the latest status received from the daemon.
type watcher struct {
	screen tcell.Screen
	conn   *websocket.Conn
	cols   int
	rows   int

	mu      sync.Mutex
	status  status
	gotOne  bool
	lastErr string
}

// fetchGrid asks the daemon's REST API for the grid dimensions, falling back
// to defaults when the call fails.
func fetchGrid(addr string) (cols, rows int) {
	cols, rows = 20, 12

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/config")
	if err != nil {
		return cols, rows
	}
	defer resp.Body.Close()

	var cfg struct {
		Grid struct {
			Cols int `json:"cols"`
			Rows int `json:"rows"`
		} `json:"grid"`
	}
	if json.NewDecoder(resp.Body).Decode(&cfg) == nil && cfg.Grid.Cols > 0 && cfg.Grid.Rows > 0 {
		cols, rows = cfg.Grid.Cols, cfg.Grid.Rows
	}
	return cols, rows
}

func main() {
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: *apiPath}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", u.String(), err)
	}
	defer conn.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Failed to init screen: %v", err)
	}
	defer screen.Fini()

	w := &watcher{screen: screen, conn: conn}
	w.cols, w.rows = fetchGrid(*addr)

	go w.readStatus()

	if err := w.run(); err != nil {
		screen.Fini()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readStatus consumes frames from the daemon.
func (w *watcher) readStatus() {
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return
		}
		w.consumeMessage(data)
	}
}

// consumeMessage applies every frame in one WebSocket message. The hub
// coalesces queued frames into a single newline-joined message, so a message
// may carry several JSON values; the last position wins.
func (w *watcher) consumeMessage(data []byte) {
	dec := json.NewDecoder(bytes.NewReader(data))

	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		var f frame
		if err := dec.Decode(&f); err != nil {
			return
		}
		switch f.Type {
		case "status", "position":
			if f.Status != nil {
				w.status = *f.Status
				w.gotOne = true
			}
		case "error":
			w.lastErr = f.Error
		}
	}
}

// run polls terminal events and redraws at a fixed rate.
func (w *watcher) run() error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := w.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	redraw := time.NewTicker(33 * time.Millisecond)
	defer redraw.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				w.screen.Sync()
			case *tcell.EventKey:
				if quit := w.handleKey(ev); quit {
					return nil
				}
			}
		case <-redraw.C:
			w.draw()
		}
	}
}

// handleKey forwards movement keys to the daemon. Returns true on quit.
func (w *watcher) handleKey(ev *tcell.EventKey) bool {
	dash := ev.Modifiers()&tcell.ModShift != 0

	var msg action
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		msg = action{Action: "move", Direction: "up", Dash: dash}
	case tcell.KeyDown:
		msg = action{Action: "move", Direction: "down", Dash: dash}
	case tcell.KeyLeft:
		msg = action{Action: "move", Direction: "left", Dash: dash}
	case tcell.KeyRight:
		msg = action{Action: "move", Direction: "right", Dash: dash}
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case ' ':
			msg = action{Action: "click"}
		default:
			return false
		}
	default:
		return false
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	w.conn.WriteMessage(websocket.TextMessage, data)
	return false
}

// draw renders the grid with the active cell highlighted and a status line.
func (w *watcher) draw() {
	w.mu.Lock()
	st := w.status
	gotOne := w.gotOne
	lastErr := w.lastErr
	w.mu.Unlock()

	s := w.screen
	s.Clear()

	base := tcell.StyleDefault
	dim := base.Foreground(tcell.ColorGray)
	active := base.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen)
	if st.Moving {
		active = base.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	}

	if !gotOne {
		drawText(s, 1, 1, base, "waiting for daemon...")
		s.Show()
		return
	}

	cols, rows := w.cols, w.rows
	if st.Grid.Col >= cols {
		cols = st.Grid.Col + 1
	}
	if st.Grid.Row >= rows {
		rows = st.Grid.Row + 1
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			style := dim
			ch := '·'
			if col == st.Grid.Col && row == st.Grid.Row {
				style = active
				ch = '●'
			}
			s.SetContent(1+col*2, 1+row, ch, nil, style)
		}
	}

	state := "idle"
	if st.Moving {
		state = "moving"
	}
	line := fmt.Sprintf("cell (%d, %d)  screen (%.3f, %.3f)  %s  tick %d",
		st.Grid.Col, st.Grid.Row, st.Screen.X, st.Screen.Y, state, st.Tick)
	drawText(s, 1, rows+2, base, line)
	if lastErr != "" {
		drawText(s, 1, rows+3, base.Foreground(tcell.ColorRed), "error: "+lastErr)
	}

	s.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}
