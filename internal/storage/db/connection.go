// Package db wraps a pooled Postgres connection and the SQL operations
// SENTINEL needs for its curated wallet registry, call index, and signal
// history.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
)

// Connection is a pooled Postgres connection plus the config and logger it
// was built with.
type Connection struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
	config *config.DatabaseConfig
}

// NewConnection opens and pings a connection pool for cfg.
func NewConnection(cfg *config.DatabaseConfig, log *logger.Logger) (*Connection, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Second
	poolConfig.HealthCheckPeriod = time.Duration(cfg.HealthCheckPeriod) * time.Second

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info("db_connected", map[string]interface{}{"host": cfg.Host, "database": cfg.Name})

	return &Connection{
		pool:   pool,
		logger: log,
		config: cfg,
	}, nil
}

// Close releases every pooled connection.
func (c *Connection) Close() {
	c.logger.Info("db_closing")
	c.pool.Close()
}

// Pool returns the underlying pgx pool, for components that need raw access.
func (c *Connection) Pool() *pgxpool.Pool {
	return c.pool
}

// Begin starts a new transaction.
func (c *Connection) Begin(ctx context.Context) (pgx.Tx, error) {
	return c.pool.Begin(ctx)
}

// Exec runs a statement that returns no rows.
func (c *Connection) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return c.pool.Exec(ctx, sql, args...)
}

// Query runs a statement and returns its result rows.
func (c *Connection) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return c.pool.Query(ctx, sql, args...)
}

// QueryRow runs a statement expected to return at most one row.
func (c *Connection) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return c.pool.QueryRow(ctx, sql, args...)
}
