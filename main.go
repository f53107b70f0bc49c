// Command gridpointer starts the grid cursor daemon.
//
// It supports three modes:
//  1. "run" (default) – reads evdev input devices, drives the cursor through
//     a uinput touchpad, and exposes REST, WebSocket and /mcp HTTP endpoints
//  2. "mcp" – runs an MCP stdio server, reusing an external API if one is
//     listening and spinning up an internal loopback API otherwise
//  3. "simulate" – replays a scripted command sequence against the motion
//     state machine with synthetic time and prints the resulting trace
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/deadman360/gridpointer/api"
	"github.com/deadman360/gridpointer/input"
	"github.com/deadman360/gridpointer/logging"
	"github.com/deadman360/gridpointer/pointer/config"
	"github.com/deadman360/gridpointer/pointer/loop"
	"github.com/deadman360/gridpointer/pointer/motion"
	"github.com/deadman360/gridpointer/pointer/service"
	"github.com/deadman360/gridpointer/pointer/sink"
	"github.com/deadman360/gridpointer/transport/mcp"
	"github.com/deadman360/gridpointer/transport/websocket"
)

const (
	appName = "gridpointer"
	version = "1.0.0"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
	}

	cmd := &cli.Command{
		Name:    appName,
		Usage:   "grid-based cursor motion daemon",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   defaultConfigPath(),
				Usage:   "path to the TOML configuration file",
				Sources: cli.EnvVars("GRIDPOINTER_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "rotating log file (stderr when empty)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the daemon with input devices and the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP listen host"},
					&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP listen port"},
					&cli.BoolFlag{Name: "dry-run", Usage: "do not create a uinput device, positions are only logged"},
					&cli.BoolFlag{Name: "no-input", Usage: "skip evdev devices, commands come from the API only"},
				},
				Action: runDaemon,
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server proxying the REST API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "external API to reuse when reachable"},
					&cli.BoolFlag{Name: "dry-run", Usage: "use a null sink for the internal API"},
				},
				Action: runMCP,
			},
			{
				Name:  "simulate",
				Usage: "replay a command script with synthetic time and print the trace",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "script", Value: "dash right, step down, dash left, step up", Usage: "comma-separated commands, each 'step <dir>' or 'dash <dir>'"},
					&cli.IntFlag{Name: "step-ms", Value: 10, Usage: "synthetic milliseconds between ticks"},
					&cli.IntFlag{Name: "cols", Value: 20, Usage: "grid columns"},
					&cli.IntFlag{Name: "rows", Value: 12, Usage: "grid rows"},
					&cli.IntFlag{Name: "dash-cells", Value: 5, Usage: "cells covered by a dash"},
					&cli.IntFlag{Name: "tween-ms", Value: 150, Usage: "animation duration per move"},
				},
				Action: runSimulate,
			},
		},
		DefaultCommand: "run",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// defaultConfigPath prefers the user config directory, falling back to the
// working directory.
func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appName, "config.toml")
	}
	return "config.toml"
}

// daemon holds the wired components of a running instance.
type daemon struct {
	log     *zap.SugaredLogger
	configs *config.Manager
	loop    *loop.Loop
	service service.PointerService
	hub     *websocket.Hub
	api     *api.Server
}

// buildDaemon wires the config manager, controller, sink, loop, service and
// transports. It does not start any goroutines.
func buildDaemon(cmd *cli.Command, log *zap.SugaredLogger, dryRun bool) (*daemon, error) {
	configs, err := config.NewManager(cmd.String("config"), log)
	if err != nil {
		return nil, fmt.Errorf("config manager: %w", err)
	}

	cfg := configs.Snapshot()

	var out sink.Sink
	if dryRun {
		out = sink.NewNull()
		log.Infow("dry run, cursor positions will not be injected")
	} else {
		out, err = sink.NewUinput(appName, cfg.Display.Width, cfg.Display.Height)
		if err != nil {
			return nil, fmt.Errorf("uinput sink: %w", err)
		}
	}

	ctrl := motion.NewController(configs)
	lp := loop.New(ctrl, out, log, loop.Options{})
	svc := service.NewPointerService(lp, configs, log)
	hub := websocket.NewHub(svc, log)
	lp.SetObserver(hub)

	return &daemon{
		log:     log,
		configs: configs,
		loop:    lp,
		service: svc,
		hub:     hub,
		api:     api.NewServer(svc, hub, log),
	}, nil
}

// start launches the daemon's background goroutines.
func (d *daemon) start(ctx context.Context) {
	go d.configs.Watch(ctx)
	go d.hub.Run(ctx)
	go d.loop.Run(ctx)
}

// runDaemon is the default mode: input devices, driving loop and HTTP API.
func runDaemon(ctx context.Context, cmd *cli.Command) error {
	log := logging.New(logging.Options{
		FilePath: cmd.String("log-file"),
		Debug:    cmd.Bool("debug"),
	})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := buildDaemon(cmd, log, cmd.Bool("dry-run"))
	if err != nil {
		return err
	}
	d.start(ctx)

	if !cmd.Bool("no-input") {
		devices, err := input.NewManager(d.configs.Snapshot().Input, log)
		if err != nil {
			log.Warnw("input devices unavailable, running with API input only", "error", err)
		} else {
			go devices.Run(ctx)
			go consumeInput(devices.Events(), d.loop, cancel)
		}
	}

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mountMCP(d.api, "http://"+addr),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Infow("HTTP server listening",
			"addr", addr,
			"rest", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP server shutdown", "error", err)
	}
	return nil
}

// consumeInput forwards device events into the loop. Quit cancels the run
// context.
func consumeInput(events <-chan input.Event, lp *loop.Loop, quit context.CancelFunc) {
	for ev := range events {
		switch ev.Kind {
		case input.KindMove:
			lp.Submit(ev.Command)
		case input.KindClick:
			lp.Click()
		case input.KindQuit:
			quit()
			return
		}
	}
}

// mountMCP wraps the API handler with a POST /mcp endpoint that feeds raw
// JSON-RPC messages to the MCP server.
func mountMCP(apiHandler http.Handler, baseURL string) http.Handler {
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiHandler)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(data)
	})
	return mux
}

// runMCP runs an MCP stdio server. It reuses an external API when one is
// reachable, otherwise it starts an internal API on a random loopback port.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the MCP protocol, so logs must go elsewhere.
	logFile := cmd.String("log-file")
	if logFile == "" {
		logFile = filepath.Join(os.TempDir(), appName+"-mcp.log")
	}
	log := logging.New(logging.Options{FilePath: logFile, Debug: cmd.Bool("debug")})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL := cmd.String("api-url")

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/healthz")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Infow("reusing external API server", "url", baseURL)
	} else {
		log.Infow("no external API server found, starting internal one")

		d, err := buildDaemon(cmd, log, cmd.Bool("dry-run"))
		if err != nil {
			return err
		}
		d.start(ctx)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("internal listener: %w", err)
		}

		httpServer := &http.Server{Handler: d.api}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Warnw("internal HTTP server stopped", "error", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr())
		log.Infow("internal API server listening", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	return server.ServeStdio(mcpClient.GetMCPServer())
}

// fixedConfig serves a constant configuration to the motion controller
// during simulation.
type fixedConfig struct {
	cfg config.Config
}

func (f fixedConfig) TrySnapshot() (config.Config, bool) {
	return f.cfg, true
}

// simulationConfig builds a validated configuration from simulate's flags.
func simulationConfig(cols, rows, dashCells, tweenMs int) (config.Config, error) {
	cfg := config.Default()
	cfg.Grid.Cols = cols
	cfg.Grid.Rows = rows
	cfg.Movement.DashCells = dashCells
	cfg.Movement.TweenMs = tweenMs
	if err := config.Validate(&cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// runSimulate replays a scripted command sequence against the state machine
// using synthetic time, printing every emitted position.
func runSimulate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := simulationConfig(
		int(cmd.Int("cols")), int(cmd.Int("rows")),
		int(cmd.Int("dash-cells")), int(cmd.Int("tween-ms")))
	if err != nil {
		return err
	}

	commands, err := parseScript(cmd.String("script"))
	if err != nil {
		return err
	}

	step := time.Duration(cmd.Int("step-ms")) * time.Millisecond
	if step <= 0 {
		step = 10 * time.Millisecond
	}

	ctrl := motion.NewController(fixedConfig{cfg})
	now := time.Now()

	fmt.Printf("grid %dx%d, dash %d cells, tween %dms\n",
		cfg.Grid.Cols, cfg.Grid.Rows, cfg.Movement.DashCells, cfg.Movement.TweenMs)

	for _, c := range commands {
		kind := "step"
		if c.Dash {
			kind = "dash"
		}
		fmt.Printf("\n%s %s\n", kind, c.Direction)

		if !ctrl.HandleCommand(c, now) {
			fmt.Println("  ignored (already at grid edge)")
			continue
		}

		start := now
		for {
			now = now.Add(step)
			pos, ok := ctrl.Tick(now)
			if !ok {
				break
			}
			grid := ctrl.GridPosition()
			fmt.Printf("  +%4dms  screen (%.3f, %.3f)  grid (%d, %d)\n",
				now.Sub(start).Milliseconds(), pos.X, pos.Y, grid.Col, grid.Row)
			if !ctrl.Moving() {
				break
			}
		}
	}

	return nil
}

// parseScript turns "dash right, step down" into motion commands.
func parseScript(script string) ([]motion.Command, error) {
	var commands []motion.Command

	for _, part := range strings.Split(script, ",") {
		fields := strings.Fields(strings.ToLower(part))
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("bad script entry %q, want '<step|dash> <direction>'", strings.TrimSpace(part))
		}

		var dash bool
		switch fields[0] {
		case "step":
		case "dash":
			dash = true
		default:
			return nil, fmt.Errorf("unknown command %q, want 'step' or 'dash'", fields[0])
		}

		dir, err := motion.ParseDirection(fields[1])
		if err != nil {
			return nil, err
		}

		commands = append(commands, motion.Command{Direction: dir, Dash: dash})
	}

	if len(commands) == 0 {
		return nil, fmt.Errorf("empty script")
	}
	return commands, nil
}
