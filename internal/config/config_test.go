package config

import (
	"errors"
	"flag"
	"io"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, map[string]string{}, io.Discard)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "inventorykeeper.sqlite3" || cfg.Addr != ":8080" || cfg.AdminUser != "Admin" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected 5s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Reset || cfg.Verify {
		t.Error("expected reset and verify to be off")
	}
}

func TestLoadEnvThenFlags(t *testing.T) {
	environ := map[string]string{
		"INVENTORYKEEPER_DB":               "/data/env.sqlite3",
		"INVENTORYKEEPER_ADDR":             ":9000",
		"INVENTORYKEEPER_SHUTDOWN_TIMEOUT": "30s",
	}

	cfg, err := Load([]string{"-a", ":7000", "-verify"}, environ, io.Discard)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/data/env.sqlite3" {
		t.Errorf("expected db path from env, got %q", cfg.DBPath)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("expected flag to override env addr, got %q", cfg.Addr)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected 30s from env, got %v", cfg.ShutdownTimeout)
	}
	if !cfg.Verify {
		t.Error("expected verify to be on")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load([]string{"-h"}, map[string]string{}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
	if _, err := Load([]string{"extra"}, map[string]string{}, io.Discard); err == nil {
		t.Error("expected error for positional argument")
	}
	bad := map[string]string{"INVENTORYKEEPER_SHUTDOWN_TIMEOUT": "soon"}
	if _, err := Load(nil, bad, io.Discard); err == nil {
		t.Error("expected error for unparsable duration")
	}
	if _, err := Load([]string{"-db", ""}, map[string]string{}, io.Discard); err == nil {
		t.Error("expected error for empty database path")
	}
}
