//go:build !tinygo

package main

import (
	"os"
	"path/filepath"
	"testing"

	"ember/app"

	"github.com/samber/do"
)

func TestNewConfigLayersFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ember.toml")
	if err := os.WriteFile(path, []byte("beats = 12\ncounter_rounds = 3\ntimer_hz = 200\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	i := do.New()
	provideServices(i, options{ConfigPath: path, TimerHz: 500})
	cfg, err := do.Invoke[app.Config](i)
	if err != nil {
		t.Fatalf("Invoke[app.Config]() = %v, want nil", err)
	}
	if cfg.Beats != 12 || cfg.CounterRounds != 3 {
		t.Fatalf("config = %+v, want beats 12 and counter_rounds 3 from file", cfg)
	}
	if cfg.TimerHz != 500 {
		t.Fatalf("TimerHz = %d, want the flag value 500", cfg.TimerHz)
	}
	if cfg.PanelAddr != app.Board.PanelAddr {
		t.Fatalf("PanelAddr = 0x%X, want board default 0x%X", cfg.PanelAddr, app.Board.PanelAddr)
	}
}

func TestNewConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("beats = \"many\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	i := do.New()
	provideServices(i, options{ConfigPath: path})
	if _, err := do.Invoke[app.Config](i); err == nil {
		t.Fatalf("Invoke[app.Config]() = nil, want parse error")
	}

	i = do.New()
	provideServices(i, options{ConfigPath: filepath.Join(t.TempDir(), "missing.toml")})
	if _, err := do.Invoke[app.Config](i); err == nil {
		t.Fatalf("Invoke[app.Config]() = nil, want read error")
	}
}
