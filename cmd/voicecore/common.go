package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/priority-technologies/shreenika-voice-core/internal/config"
)

// Version information (set via ldflags).
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// cfg is loaded once in main's PersistentPreRunE and read by every command.
var cfg *config.Config

// initDB opens the Postgres pool backing the calls/turns/call_logs/agents
// repositories.
func initDB(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Database.PostgresURL == "" {
		return nil, fmt.Errorf("PostgreSQL connection required: set VOICECORE_POSTGRES_URL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Force UTC to keep TIMESTAMP columns unambiguous across client locales.
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}

// maskSecret masks a secret string for display.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "(set)"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// boolStatus returns a status string for a boolean.
func boolStatus(b bool) string {
	if b {
		return "configured"
	}
	return "not configured"
}

// logStateObserver implements ports.StateObserver by logging every
// transition at info level, independent of the metrics counters and the
// persisted call_logs row (spec §4.9: "update metrics counters" and
// "persist call record" are separate steps from external observability).
type logStateObserver struct {
	log *slog.Logger
}

func (o logStateObserver) OnStateChange(callID string, from, to string) {
	o.log.Info("call state change", "call_id", callID, "from", from, "to", to)
}
