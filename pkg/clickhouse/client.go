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

// Options describes one ClickHouse endpoint. Zero durations and pool sizes
// fall back to the values in withDefaults.
type Options struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	HTTP        bool
	AsyncInsert bool
	WaitAsync   bool

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	MaxExecution time.Duration

	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = 9000
	}
	if o.Database == "" {
		o.Database = "sentinel"
	}
	if o.User == "" {
		o.User = "default"
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.MaxOpenConns == 0 {
		o.MaxOpenConns = 10
	}
	if o.MaxIdleConns == 0 {
		o.MaxIdleConns = 5
	}
	if o.ConnLifetime == 0 {
		o.ConnLifetime = 5 * time.Minute
	}
	return o
}

func (o Options) driver() *ch.Options {
	settings := ch.Settings{}
	if o.MaxExecution > 0 {
		settings["max_execution_time"] = int(o.MaxExecution.Seconds())
	}
	if o.AsyncInsert {
		settings["async_insert"] = 1
		if o.WaitAsync {
			settings["wait_for_async_insert"] = 1
		}
	}

	proto := ch.Native
	if o.HTTP {
		proto = ch.HTTP
	}
	return &ch.Options{
		Addr:        []string{net.JoinHostPort(o.Host, strconv.Itoa(o.Port))},
		Auth:        ch.Auth{Database: o.Database, Username: o.User, Password: o.Password},
		Protocol:    proto,
		DialTimeout: o.DialTimeout,
		ReadTimeout: o.ReadTimeout,
		Compression: &ch.Compression{Method: ch.CompressionLZ4},
		Settings:    settings,
	}
}

// Client wraps a pooled *sql.DB opened through the clickhouse driver.
type Client struct {
	db       *sql.DB
	database string
}

// Open builds the pool and pings it within ctx.
func Open(ctx context.Context, o Options) (*Client, error) {
	if o.Host == "" {
		return nil, errors.New("clickhouse: host is required")
	}
	o = o.withDefaults()

	db := ch.OpenDB(o.driver())
	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetMaxIdleConns(o.MaxIdleConns)
	db.SetConnMaxLifetime(o.ConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, o.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", o.driver().Addr[0], err)
	}
	return &Client{db: db, database: o.Database}, nil
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Database() string { return c.database }

func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// InitSchema runs idempotent DDL statements in order and stops at the
// first failure.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema statement %d: %w", i, err)
		}
	}
	return nil
}
