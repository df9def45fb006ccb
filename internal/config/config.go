// Package config holds process settings. Values come from INVENTORYKEEPER_*
// environment variables first, then command-line flags override them.
package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the runtime configuration of the server.
type Config struct {
	DBPath          string        `env:"DB" envDefault:"inventorykeeper.sqlite3"`
	Addr            string        `env:"ADDR" envDefault:":8080"`
	AdminUser       string        `env:"ADMIN_USER" envDefault:"Admin"`
	LogPath         string        `env:"LOG"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Reset deletes the database before starting. Only settable by flag.
	Reset bool
	// Verify checks every cached total and exits. Only settable by flag.
	Verify bool
}

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "INVENTORYKEEPER_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Usage is printed for -h.
const Usage = `Usage: inventorykeeper [flags]

Flags:
  -d, -db <path>          SQLite database path (default: inventorykeeper.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
      -reset              delete the database and start empty (destroys all data)
      -verify             check every cached total against a full walk and exit
  -h, -help               show this help and exit

Every flag except -reset and -verify can also be set through the
environment: INVENTORYKEEPER_DB, INVENTORYKEEPER_ADDR,
INVENTORYKEEPER_ADMIN_USER, INVENTORYKEEPER_LOG,
INVENTORYKEEPER_SHUTDOWN_TIMEOUT.
`

// Load reads the environment (the process environment when environ is nil)
// and then args. It returns flag.ErrHelp for -h.
func Load(args []string, environ map[string]string, usage io.Writer) (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg, environ); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("inventorykeeper", flag.ContinueOnError)
	fs.SetOutput(usage)
	fs.Usage = func() { fmt.Fprint(usage, Usage) }

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	fs.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	fs.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")
	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")
	fs.BoolVar(&cfg.Reset, "reset", false, "")
	fs.BoolVar(&cfg.Verify, "verify", false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("database path must not be empty")
	}
	return cfg, nil
}
