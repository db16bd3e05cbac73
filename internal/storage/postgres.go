package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	_ "github.com/lib/pq"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// Schema creates the event table. Amounts are NUMERIC(78,0) so every uint256
// fits.
const Schema = `
	CREATE TABLE IF NOT EXISTS house_events (
		id           UUID PRIMARY KEY,
		event_type   TEXT NOT NULL,
		bet_id       TEXT NOT NULL,
		actor        TEXT NOT NULL,
		counterparty TEXT NOT NULL,
		amount       NUMERIC(78, 0),
		reward       NUMERIC(78, 0),
		option       TEXT NOT NULL,
		data         BYTEA,
		occurred_at  BIGINT NOT NULL
	)
`

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage and makes sure the
// event table exists.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}

	err = p.EnsureSchema(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return p, nil
}

// EnsureSchema creates the event table if it is missing.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// StoreEvent stores a House event in PostgreSQL.
func (p *PostgresStorage) StoreEvent(ctx context.Context, event *types.Event) error {
	query := `
		INSERT INTO house_events (
			id, event_type, bet_id, actor, counterparty,
			amount, reward, option, data, occurred_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		event.ID,
		string(event.Type),
		event.BetID.Hex(),
		event.Actor.Hex(),
		event.Counterparty.Hex(),
		numeric(event.Amount),
		numeric(event.Reward),
		event.Option.Hex(),
		event.Data,
		int64(event.Timestamp),
	)

	if err != nil {
		EventsStoredTotal.WithLabelValues("postgres", "error").Inc()
		return fmt.Errorf("insert event: %w", err)
	}

	EventsStoredTotal.WithLabelValues("postgres", "ok").Inc()
	p.logger.Debug("event-stored",
		zap.String("event-id", event.ID),
		zap.String("event-type", string(event.Type)),
		zap.String("bet-id", event.BetID.Hex()))

	return nil
}

// Ping checks the database connection. It backs the readiness probe.
func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

// numeric renders an amount for a NUMERIC column; nil becomes NULL.
func numeric(v *big.Int) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}
