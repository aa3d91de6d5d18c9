package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/alexanderjulianmartinez/schemawalk/internal/config"
)

// Inspector answers the three introspection queries over one *sql.DB pool.
type Inspector struct {
	db      *sql.DB
	timeout time.Duration
}

// FormatDSN builds a driver DSN from the source config. No database is
// selected; every query names its database explicitly.
func FormatDSN(cfg config.SourceConfig) string {
	dc := driver.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = cfg.Addr()
	if len(cfg.Params) > 0 {
		dc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			dc.Params[k] = v
		}
	}
	return dc.FormatDSN()
}

// Open opens a pool and pings it within timeout.
func Open(ctx context.Context, cfg config.SourceConfig, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("mysql", FormatDSN(cfg))
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = config.DefaultQueryTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping failed: %w", err)
	}
	return db, nil
}

func NewInspector(ctx context.Context, cfg config.SourceConfig, timeout time.Duration) (*Inspector, error) {
	db, err := Open(ctx, cfg, timeout)
	if err != nil {
		return nil, err
	}
	return NewInspectorFromDB(db, timeout), nil
}

// NewInspectorFromDB wraps an existing pool. The inspector takes ownership:
// Close closes db.
func NewInspectorFromDB(db *sql.DB, timeout time.Duration) *Inspector {
	if timeout <= 0 {
		timeout = config.DefaultQueryTimeout
	}
	return &Inspector{db: db, timeout: timeout}
}

func (i *Inspector) Close() error {
	return i.db.Close()
}

// withTimeout applies the per-query timeout unless the parent already has
// a sooner deadline.
func (i *Inspector) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := parent.Deadline(); ok && time.Until(deadline) <= i.timeout {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, i.timeout)
}
