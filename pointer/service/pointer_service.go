package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/deadman360/gridpointer/pointer/config"
	"github.com/deadman360/gridpointer/pointer/loop"
	"github.com/deadman360/gridpointer/pointer/motion"
)

// ErrClickDropped is returned when the click buffer is full.
var ErrClickDropped = errors.New("click discarded: buffer full")

// pointerService implements PointerService over the driving loop and the
// configuration manager.
type pointerService struct {
	loop    *loop.Loop
	configs *config.Manager
	log     *zap.SugaredLogger
}

// NewPointerService wires a service facade around the loop and config
// manager.
func NewPointerService(l *loop.Loop, configs *config.Manager, logger *zap.SugaredLogger) PointerService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &pointerService{loop: l, configs: configs, log: logger}
}

func (s *pointerService) Move(ctx context.Context, direction string, dash bool) (*MoveResult, error) {
	dir, err := motion.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	accepted := s.loop.Submit(motion.Command{Direction: dir, Dash: dash})
	if !accepted {
		s.log.Warnw("command discarded, buffer full", "direction", direction, "dash", dash)
	}

	return &MoveResult{
		Accepted:  accepted,
		Direction: direction,
		Dash:      dash,
		Status:    s.loop.Status(),
	}, nil
}

func (s *pointerService) Click(ctx context.Context) error {
	if !s.loop.Click() {
		return ErrClickDropped
	}
	return nil
}

func (s *pointerService) Status(ctx context.Context) (loop.Status, error) {
	return s.loop.Status(), nil
}

func (s *pointerService) Metrics(ctx context.Context) (map[string]any, error) {
	return s.loop.Metrics().Snapshot(), nil
}

func (s *pointerService) GetConfig(ctx context.Context) (config.Config, error) {
	return s.configs.Snapshot(), nil
}

func (s *pointerService) UpdateConfig(ctx context.Context, cfg config.Config) error {
	return s.configs.Update(cfg)
}
