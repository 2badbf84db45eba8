package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

// Client owns the database/sql pool used by the candle store and the trade journal.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and pings the server once.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
		PingTimeout:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	o, err := options(*cfg)
	if err != nil {
		return nil, err
	}

	db := ch.OpenDB(o)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", o.Addr[0], err)
	}
	return &Client{db: db}, nil
}

// NewFromDB wraps an already opened pool.
func NewFromDB(db *sql.DB) *Client { return &Client{db: db} }

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Health(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// InitSchema runs idempotent DDL in order and stops at the first failure.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema (statement %d): %w", i+1, err)
		}
	}
	return nil
}

func options(cfg ClientConfig) (*ch.Options, error) {
	if cfg.Host == "" {
		return nil, errors.New("clickhouse: host is required")
	}
	proto := ch.Native
	port := cfg.Port
	if cfg.UseHTTP {
		proto = ch.HTTP
		if port == 0 || port == 9000 {
			port = 8123
		}
	}
	if port == 0 {
		port = 9000
	}

	settings := ch.Settings{}
	if secs := int(cfg.MaxExecTime / time.Second); secs > 0 {
		settings["max_execution_time"] = secs
	}
	if cfg.AsyncInsert {
		settings["async_insert"] = 1
		if cfg.WaitForAsync {
			settings["wait_for_async_insert"] = 1
		} else {
			settings["wait_for_async_insert"] = 0
		}
	}

	return &ch.Options{
		Protocol: proto,
		Addr:     []string{net.JoinHostPort(cfg.Host, strconv.Itoa(port))},
		Auth: ch.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings:        settings,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, nil
}
