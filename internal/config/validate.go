package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	ledgerStores    = []string{"postgres", "memory"}
	ledgerModes     = []string{"strict", "hierarchy"}
	isolationLevels = []string{"serializable", "repeatable_read", "read_committed"}
	logLevels       = []string{"debug", "info", "warn", "error"}
	logFormats      = []string{"json", "text"}
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if err := c.Ledger.validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	if c.Ledger.Store == "postgres" {
		if err := c.Database.validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if err := oneOf("log.level", c.Log.Level, logLevels); err != nil {
		return err
	}
	if err := oneOf("log.format", c.Log.Format, logFormats); err != nil {
		return err
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}

	return nil
}

func (l *LedgerConfig) validate() error {
	l.Store = normalize(l.Store)
	l.Mode = normalize(l.Mode)
	l.Isolation = normalize(l.Isolation)

	if err := oneOf("store", l.Store, ledgerStores); err != nil {
		return err
	}
	if err := oneOf("mode", l.Mode, ledgerModes); err != nil {
		return err
	}
	if err := oneOf("isolation", l.Isolation, isolationLevels); err != nil {
		return err
	}
	if l.MemoryItems < 0 {
		return fmt.Errorf("memory_items must be >= 0 (got %d)", l.MemoryItems)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.DSN == "" {
		return fmt.Errorf("dsn is required for the postgres store")
	}
	if d.MaxConns <= 0 {
		return fmt.Errorf("max_conns must be > 0 (got %d)", d.MaxConns)
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		return fmt.Errorf("min_conns must be in 0..max_conns (got %d)", d.MinConns)
	}
	return nil
}

func oneOf(field, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("%s must be one of %s (got %q)", field, strings.Join(allowed, ", "), value)
	}
	return nil
}

// normalize lowercases s and turns spaces into underscores, so
// "Read Committed" and "read_committed" are the same level.
func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
