// Package audit persists a per-request metadata record — persona,
// contexts, tone, template, tier counts, token usage, latency — keyed by
// a generated request ID. It is explicitly not account persistence: no
// user identity, no auth, just an operational record of what the
// pipeline did.
package audit

import (
	"context"
	stdsql "database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds the audit database's connection settings.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Client wraps a pgx connection pool and provides a small write/read
// surface; the rewrite handler uses Insert.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient opens a pooled connection, runs embedded migrations once via
// golang-migrate, and returns a ready Client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse audit dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open audit pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit db: %w", err)
	}

	if err := runMigrations(cfg.DSN); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit migrations: %w", err)
	}

	return &Client{pool: pool}, nil
}

// runMigrations opens a parallel database/sql connection (golang-migrate
// needs a *sql.DB, not a pgxpool) purely to apply embedded migrations,
// then closes it — the pgxpool handles all subsequent traffic.
func runMigrations(dsn string) error {
	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "audit", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() { c.pool.Close() }

// Record is one request's audit entry.
type Record struct {
	ID                uuid.UUID
	Persona           string
	Contexts          []string
	Tone              string
	TemplateID        string
	LockedSpanCount   int
	GreenCount        int
	YellowCount       int
	RedCount          int
	RetryCount        int
	PromptTokens      int
	CompletionTokens  int
	LatencyMs         int64
}

// Insert writes one audit record. ID is generated by the caller (the
// orchestrator's request ID) so the audit trail can be cross-referenced
// with logs.
func (c *Client) Insert(ctx context.Context, r Record) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO audit_log (
			id, persona, contexts, tone, template_id,
			locked_span_count, green_count, yellow_count, red_count,
			retry_count, prompt_tokens, completion_tokens, latency_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, r.ID, r.Persona, r.Contexts, r.Tone, r.TemplateID,
		r.LockedSpanCount, r.GreenCount, r.YellowCount, r.RedCount,
		r.RetryCount, r.PromptTokens, r.CompletionTokens, r.LatencyMs)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// CountSince returns how many requests were recorded at or after since.
func (c *Client) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := c.pool.QueryRow(ctx, `SELECT count(*) FROM audit_log WHERE created_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}
