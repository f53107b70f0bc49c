package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/deadman360/gridpointer/pointer/config"
	"github.com/deadman360/gridpointer/pointer/loop"
	"github.com/deadman360/gridpointer/pointer/motion"
	"github.com/deadman360/gridpointer/pointer/sink"
)

func newTestService(t *testing.T) PointerService {
	t.Helper()
	manager, err := config.NewManager(filepath.Join(t.TempDir(), "config.toml"), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctrl := motion.NewController(manager)
	l := loop.New(ctrl, sink.NewNull(), nil, loop.Options{})
	return NewPointerService(l, manager, nil)
}

func TestMove_ValidDirections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, dir := range []string{"up", "down", "left", "right"} {
		t.Run(dir, func(t *testing.T) {
			result, err := svc.Move(ctx, dir, false)
			if err != nil {
				t.Fatalf("Move(%s): %v", dir, err)
			}
			if !result.Accepted {
				t.Errorf("Move(%s): command not accepted", dir)
			}
			if result.Direction != dir {
				t.Errorf("Move(%s): echoed direction %q", dir, result.Direction)
			}
		})
	}
}

func TestMove_InvalidDirection(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Move(context.Background(), "sideways", false); err == nil {
		t.Error("expected error for invalid direction")
	}
}

func TestStatusAndMetrics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	status, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Moving {
		t.Error("fresh daemon reports moving")
	}
	if status.Grid != (motion.GridPos{}) {
		t.Errorf("fresh daemon grid: %+v", status.Grid)
	}

	metrics, err := svc.Metrics(ctx)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if _, ok := metrics["tick_count"]; !ok {
		t.Error("metrics missing tick_count")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cfg, err := svc.GetConfig(ctx)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if cfg != config.Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	cfg.Grid.Cols = 32
	cfg.Movement.TweenMs = 90
	if err := svc.UpdateConfig(ctx, cfg); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	got, err := svc.GetConfig(ctx)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got != cfg {
		t.Errorf("expected %+v, got %+v", cfg, got)
	}
}

func TestUpdateConfig_RejectsInvalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cfg, _ := svc.GetConfig(ctx)
	cfg.Grid.Rows = 0
	if err := svc.UpdateConfig(ctx, cfg); err == nil {
		t.Error("expected validation error")
	}
}
