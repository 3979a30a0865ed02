// Package store opens the optional postgres backend behind the run ledger
package store

import (
	"context"

	"armvalidator/internal/platform/logger"
)

// Store holds the opened backends. The zero value has none and is safe to use
type Store struct {
	// Log is tagged component=store; zero means a no-op logger
	Log logger.Logger

	// PG is nil when the ledger is disabled
	PG TxRunner
}

// Row is the scan contract of a single row
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag reports what a write did
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the sql surface repos see
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner adds transactions; fn's querier is bound to the tx
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Pinger is implemented by the postgres adapter for readiness probes
type Pinger interface{ Ping(context.Context) error }

// Option configures a Store during Open
type Option func(*Store) error

// WithLogger sets the parent logger
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// Open connects the backends cfg enables and waits until they answer
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("component", "store").Logger()

	if !cfg.PG.Enabled {
		return s, nil
	}
	pgc, err := connectPG(ctx, cfg, s.Log)
	if err != nil {
		return nil, err
	}
	s.PG = pgc
	return s, nil
}

// Close releases the backends; nil safe
func (s *Store) Close(_ context.Context) error {
	if s == nil {
		return nil
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
