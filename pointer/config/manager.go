package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Manager owns the active configuration and its backing TOML file.
type Manager struct {
	path string
	log  *zap.SugaredLogger

	mu      sync.RWMutex
	current Config
}

// NewManager loads path (creating it with defaults when missing) and returns
// a manager guarding the result.
func NewManager(path string, logger *zap.SugaredLogger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	cfg, err := loadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config %s: %w", path, err)
	}

	return &Manager{path: path, log: logger, current: cfg}, nil
}

// Path returns the location of the backing TOML file.
func (m *Manager) Path() string {
	return m.path
}

// TrySnapshot returns a copy of the active configuration without blocking.
// It reports ok=false when a writer currently holds the lock; callers on the
// time-critical path treat that as "drop the command", not "wait".
func (m *Manager) TrySnapshot() (Config, bool) {
	if !m.mu.TryRLock() {
		return Config{}, false
	}
	defer m.mu.RUnlock()
	return m.current, true
}

// Snapshot returns a copy of the active configuration, blocking if needed.
// Intended for admin surfaces, not the tick path.
func (m *Manager) Snapshot() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Update validates cfg, swaps it in as the active configuration and persists
// it to the backing file.
func (m *Manager) Update(cfg Config) error {
	if err := Validate(&cfg); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = cfg
	m.mu.Unlock()

	if err := Save(m.path, cfg); err != nil {
		return fmt.Errorf("failed to persist config: %w", err)
	}
	m.log.Infow("configuration updated",
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Cols, cfg.Grid.Rows),
		"dash_cells", cfg.Movement.DashCells,
		"tween_ms", cfg.Movement.TweenMs)
	return nil
}

// Reload re-reads the backing file and swaps it in when valid. Invalid or
// unreadable files leave the active configuration untouched.
func (m *Manager) Reload() error {
	cfg, err := Load(m.path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = cfg
	m.mu.Unlock()
	return nil
}

// Watch re-applies the backing file whenever it changes on disk. It blocks
// until ctx is cancelled. Reload failures are logged and skipped; the daemon
// keeps running on the last good configuration.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors replace files on
	// save, which would otherwise drop the watch.
	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(m.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := m.Reload(); err != nil {
				m.log.Warnw("config reload failed, keeping previous", "error", err)
				continue
			}
			m.log.Infow("configuration reloaded", "path", m.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.Warnw("config watcher error", "error", err)
		}
	}
}

// Load reads and validates a configuration file.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func loadOrCreate(path string) (Config, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
