package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createActivityTable = `
CREATE TABLE IF NOT EXISTS grid_activity (
	id             BIGSERIAL PRIMARY KEY,
	strategy       TEXT             NOT NULL,
	ts             TIMESTAMPTZ      NOT NULL,
	seq            BIGINT           NOT NULL,
	price          DOUBLE PRECISION NOT NULL,
	diff_units     BIGINT           NOT NULL,
	account_value  DOUBLE PRECISION NOT NULL,
	cash           DOUBLE PRECISION NOT NULL,
	position_size  DOUBLE PRECISION NOT NULL,
	position_price DOUBLE PRECISION NOT NULL
)`

const insertActivity = `
INSERT INTO grid_activity
	(strategy, ts, seq, price, diff_units, account_value, cash, position_size, position_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// PostgresRecorder appends activity records to the grid_activity table.
// Text log lines are not stored; pair it with a FileSink via MultiSink.
type PostgresRecorder struct {
	pool     *pgxpool.Pool
	strategy string
	timeout  time.Duration
}

// NewPostgresRecorder connects, verifies the connection and ensures the
// activity table exists.
func NewPostgresRecorder(ctx context.Context, dsn, strategy string) (*PostgresRecorder, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createActivityTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create activity table: %w", err)
	}
	return &PostgresRecorder{pool: pool, strategy: strategy, timeout: 5 * time.Second}, nil
}

func (p *PostgresRecorder) Log(time.Time, string) error { return nil }

func (p *PostgresRecorder) Record(r Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if _, err := p.pool.Exec(ctx, insertActivity, activityArgs(p.strategy, r)...); err != nil {
		return fmt.Errorf("insert activity record: %w", err)
	}
	return nil
}

func (p *PostgresRecorder) Close() error {
	p.pool.Close()
	return nil
}

func activityArgs(strategy string, r Record) []any {
	return []any{
		strategy,
		r.Time.UTC(),
		r.Count,
		r.Price,
		r.DiffUnits,
		r.Value,
		r.Cash,
		r.PositionSize,
		r.PositionPrice,
	}
}
