// Package config provides GridPointer's TOML configuration with hot-reload.
//
// The config package implements:
//   - Typed configuration sections (grid, movement, input, display)
//   - Validation with descriptive errors
//   - Load/save of a single TOML file, creating defaults on first run
//   - A Manager guarding the active configuration behind an RWMutex
//   - Non-blocking snapshot reads for the time-critical motion path
//   - Filesystem watching (fsnotify) that re-applies valid edits live
//
// Snapshot Semantics:
//
// TrySnapshot never blocks. When a writer (hot-reload or an admin update)
// holds the lock, it reports ok=false and the caller is expected to treat the
// read as best-effort and move on. Commands issued during that window are
// dropped, not queued; configuration takes effect on the next issued
// command, never retroactively on an in-flight animation.
package config
