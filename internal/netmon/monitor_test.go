package netmon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

type stubProber struct {
	err error
}

func (p *stubProber) Ping(context.Context) error { return p.err }

func newTestMonitor(t *testing.T, prober Prober) *Monitor {
	t.Helper()
	m, err := New(Config{
		Prober:   prober,
		FlagPath: filepath.Join(t.TempDir(), OverrideFlagName),
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestStartsOffline(t *testing.T) {
	m := newTestMonitor(t, &stubProber{})
	if m.Online() {
		t.Error("monitor online before first probe")
	}
}

func TestProbeTransitions(t *testing.T) {
	prober := &stubProber{err: errors.New("down")}
	m := newTestMonitor(t, prober)
	ctx := context.Background()

	m.probe(ctx)
	if m.Online() {
		t.Error("online despite failing probe")
	}

	prober.err = nil
	m.probe(ctx)
	if !m.Online() {
		t.Error("offline despite passing probe")
	}
}

func TestOnOnlineFiresOncePerTransition(t *testing.T) {
	m := newTestMonitor(t, &stubProber{})
	ctx := context.Background()

	fired := 0
	m.OnOnline(func(context.Context) { fired++ })

	m.setPlatformOnline(ctx, true)
	m.setPlatformOnline(ctx, true) // still online, no new transition
	if fired != 1 {
		t.Fatalf("fired = %d after coming online, want 1", fired)
	}

	m.setPlatformOnline(ctx, false)
	m.setPlatformOnline(ctx, true)
	if fired != 2 {
		t.Errorf("fired = %d after reconnect, want 2", fired)
	}
}

func TestManualOverrideMasksPlatform(t *testing.T) {
	m := newTestMonitor(t, &stubProber{})
	ctx := context.Background()

	m.setPlatformOnline(ctx, true)
	m.applyManualOffline(ctx, true)
	if m.Online() {
		t.Error("online while manually offline")
	}
	if !m.ManualOffline() {
		t.Error("override state lost")
	}

	// Clearing the override while the platform is reachable is a
	// reconnect.
	fired := 0
	m.OnOnline(func(context.Context) { fired++ })
	m.applyManualOffline(ctx, false)
	if !m.Online() {
		t.Error("offline after clearing override")
	}
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}

func TestSetManualOfflinePersistsFlag(t *testing.T) {
	m := newTestMonitor(t, &stubProber{})
	ctx := context.Background()

	if err := m.SetManualOffline(ctx, true); err != nil {
		t.Fatalf("SetManualOffline(true): %v", err)
	}
	if _, err := os.Stat(m.flagPath); err != nil {
		t.Fatalf("flag file missing: %v", err)
	}

	// A fresh monitor seeded from the same flag starts overridden.
	m2, err := New(Config{Prober: &stubProber{}, FlagPath: m.flagPath, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !m2.ManualOffline() {
		t.Error("new monitor ignored existing flag")
	}

	if err := m.SetManualOffline(ctx, false); err != nil {
		t.Fatalf("SetManualOffline(false): %v", err)
	}
	if _, err := os.Stat(m.flagPath); !os.IsNotExist(err) {
		t.Error("flag file survived clearing")
	}
}
