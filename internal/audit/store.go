// Package audit persists redaction audit events to Postgres. Events carry
// metadata only (tool, item counts, latency), never the text that was
// sanitized.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sentinelops/aws-log-sentinel/internal/config"
	"github.com/sentinelops/aws-log-sentinel/internal/logger"
)

// Event is one recorded tool invocation
type Event struct {
	ID         int64     `db:"id" json:"id"`
	RequestID  string    `db:"request_id" json:"request_id"`
	Tool       string    `db:"tool" json:"tool"`
	Items      int       `db:"items" json:"items"`
	Redacted   bool      `db:"redacted" json:"redacted"`
	DurationMS float64   `db:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Stats summarizes the audit trail
type Stats struct {
	TotalEvents   int64 `db:"total_events" json:"total_events"`
	RedactedCount int64 `db:"redacted_count" json:"redacted_count"`
}

// Store is a Postgres-backed audit trail
type Store struct {
	db     *sqlx.DB
	logger *logger.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS redaction_audit (
	id          BIGSERIAL PRIMARY KEY,
	request_id  TEXT NOT NULL,
	tool        TEXT NOT NULL,
	items       INTEGER NOT NULL DEFAULT 0,
	redacted    BOOLEAN NOT NULL DEFAULT FALSE,
	duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_redaction_audit_created_at ON redaction_audit (created_at DESC);
`

// New connects to Postgres and ensures the audit schema exists
func New(cfg config.AuditConfig, log *logger.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &Store{db: db, logger: log}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure audit schema: %w", err)
	}

	log.Info("Audit store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)

	return store, nil
}

// Record inserts one audit event
func (s *Store) Record(ctx context.Context, event *Event) error {
	const query = `
		INSERT INTO redaction_audit (request_id, tool, items, redacted, duration_ms)
		VALUES (:request_id, :tool, :items, :redacted, :duration_ms)`

	if _, err := s.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// Recent returns the newest audit events, up to limit
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	var events []Event
	const query = `
		SELECT id, request_id, tool, items, redacted, duration_ms, created_at
		FROM redaction_audit
		ORDER BY created_at DESC
		LIMIT $1`

	if err := s.db.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	return events, nil
}

// GetStats returns aggregate counts over the audit trail
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	const query = `
		SELECT COUNT(*) AS total_events,
		       COUNT(*) FILTER (WHERE redacted) AS redacted_count
		FROM redaction_audit`

	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to query audit stats: %w", err)
	}
	return &stats, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maskDatabaseURL masks credentials in a database URL for logging
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if idx := strings.LastIndex(userPart, ":"); idx > strings.Index(userPart, "//")+1 {
				parts[0] = userPart[:idx] + ":***"
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
