// Package db bootstraps the PostgreSQL connection pool.
package db

import (
	"context"
	"runtime"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tokyojung/pkg/log"
)

// Connect opens a bounded pgx pool against databaseURL and verifies it with
// a ping. NUMERIC columns scan directly into decimal.Decimal.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	// Pool sized ~2x CPU; authoritative state lives in the database and
	// concurrency control is delegated to it.
	poolConfig.MaxConns = int32(2 * runtime.NumCPU())
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, err
	}

	logger := log.WithComponent("db")
	logger.Info().Msg("connected to PostgreSQL")
	return pool, nil
}
