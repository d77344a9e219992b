// Package netmon tracks connectivity to the remote store.
//
// Effective online state is platform reachability AND NOT the manual
// offline override. Reachability comes from a periodic probe against
// the remote store; the override is a flag file in the data directory
// so any process (the CLI, the daemon) can toggle it, picked up with
// fsnotify. A transition into effective-online fires the registered
// callbacks exactly once per transition.
package netmon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// OverrideFlagName is the file name of the manual offline override,
// relative to the data directory.
const OverrideFlagName = "offline.flag"

// Prober checks remote reachability. The remote store satisfies this
// with its Ping method.
type Prober interface {
	Ping(ctx context.Context) error
}

// Config configures New.
type Config struct {
	// Prober checks reachability.
	Prober Prober

	// FlagPath is the manual offline override flag file.
	FlagPath string

	// ProbeInterval is how often reachability is re-checked.
	// Defaults to 30s.
	ProbeInterval time.Duration

	// Logger for monitor activity.
	Logger zerolog.Logger
}

// Monitor maintains the authoritative online/offline state.
type Monitor struct {
	prober   Prober
	flagPath string
	interval time.Duration
	log      zerolog.Logger

	mu             sync.Mutex
	platformOnline bool
	manualOffline  bool
	onOnline       []func(context.Context)

	wg sync.WaitGroup
}

// New creates a Monitor. The override flag file's current existence
// seeds the manual offline state; platform state starts offline until
// the first probe.
func New(cfg Config) (*Monitor, error) {
	if cfg.Prober == nil {
		return nil, fmt.Errorf("netmon: prober is required")
	}
	if cfg.FlagPath == "" {
		return nil, fmt.Errorf("netmon: flag path is required")
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 30 * time.Second
	}

	m := &Monitor{
		prober:   cfg.Prober,
		flagPath: cfg.FlagPath,
		interval: cfg.ProbeInterval,
		log:      cfg.Logger,
	}
	m.manualOffline = flagExists(cfg.FlagPath)
	return m, nil
}

// OnOnline registers fn to run on every transition into
// effective-online. Registration must happen before Start.
func (m *Monitor) OnOnline(fn func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// Online returns the effective online state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.platformOnline && !m.manualOffline
}

// ManualOffline returns the manual override state.
func (m *Monitor) ManualOffline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manualOffline
}

// SetManualOffline toggles the manual override, persisting it through
// the flag file. Clearing the override while the platform is reachable
// counts as a reconnect.
func (m *Monitor) SetManualOffline(ctx context.Context, offline bool) error {
	if offline {
		if err := os.WriteFile(m.flagPath, []byte("offline\n"), 0644); err != nil {
			return fmt.Errorf("failed to write offline flag: %w", err)
		}
	} else if err := os.Remove(m.flagPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove offline flag: %w", err)
	}
	m.applyManualOffline(ctx, offline)
	return nil
}

// Start launches the probe loop and the flag file watcher. It performs
// one immediate probe so the state is meaningful right away, then
// returns; the loops stop when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create flag watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(m.flagPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch flag directory: %w", err)
	}

	m.probe(ctx)

	m.wg.Add(2)
	go m.probeLoop(ctx)
	go m.watchFlag(ctx, watcher)
	return nil
}

// Wait blocks until the background loops have stopped.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) probeLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	err := m.prober.Ping(ctx)
	m.setPlatformOnline(ctx, err == nil)
}

func (m *Monitor) watchFlag(ctx context.Context, watcher *fsnotify.Watcher) {
	defer m.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != m.flagPath {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			m.applyManualOffline(ctx, flagExists(m.flagPath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn().Err(err).Msg("flag watcher error")
		}
	}
}

func (m *Monitor) setPlatformOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	was := m.effectiveLocked()
	changed := m.platformOnline != online
	m.platformOnline = online
	now := m.effectiveLocked()
	callbacks := m.callbacksLocked(was, now)
	m.mu.Unlock()

	if changed {
		m.log.Info().Bool("online", online).Msg("connectivity changed")
	}
	m.fire(ctx, callbacks)
}

func (m *Monitor) applyManualOffline(ctx context.Context, offline bool) {
	m.mu.Lock()
	was := m.effectiveLocked()
	changed := m.manualOffline != offline
	m.manualOffline = offline
	now := m.effectiveLocked()
	callbacks := m.callbacksLocked(was, now)
	m.mu.Unlock()

	if changed {
		m.log.Info().Bool("manual_offline", offline).Msg("manual override changed")
	}
	m.fire(ctx, callbacks)
}

// effectiveLocked computes the effective state. Callers hold m.mu.
func (m *Monitor) effectiveLocked() bool {
	return m.platformOnline && !m.manualOffline
}

// callbacksLocked returns the callbacks to fire for a was→now state
// change. Callers hold m.mu.
func (m *Monitor) callbacksLocked(was, now bool) []func(context.Context) {
	if was || !now {
		return nil
	}
	return append([]func(context.Context){}, m.onOnline...)
}

func (m *Monitor) fire(ctx context.Context, callbacks []func(context.Context)) {
	for _, fn := range callbacks {
		fn(ctx)
	}
}

func flagExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
