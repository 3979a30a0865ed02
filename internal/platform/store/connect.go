package store

import (
	"context"
	"fmt"
	"time"

	"armvalidator/internal/platform/logger"
	"armvalidator/internal/platform/store/pg"
)

const (
	backoffStart   = 150 * time.Millisecond
	backoffCeiling = 2 * time.Second
)

// after is the backoff timer seam
var after = time.After

// connectPG opens the pool and pings until postgres answers; on boot in
// compose the database container usually trails the API
func connectPG(ctx context.Context, cfg Config, log logger.Logger) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(log)
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:         cfg.PG.URL,
		MaxConns:    cfg.PG.MaxConns,
		SlowMs:      cfg.PG.SlowQueryMs,
		AppName:     cfg.AppName,
		MaxConnIdle: cfg.PG.MaxConnIdle,
	}, tracer)
	if err != nil {
		return nil, err
	}
	// the pool directly, so boot pings leave no trace lines
	if err := waitReady(ctx, p.Pool.Ping, cfg.PG.ConnectRetries, cfg.PG.PingTimeout, log); err != nil {
		p.Close()
		return nil, err
	}
	log.Info().Int32("max_conns", cfg.PG.MaxConns).Bool("log_sql", cfg.PG.LogSQL).Msg("postgres ready")
	return newPGAdapter(p), nil
}

// waitReady calls ping up to attempts times, each bounded by timeout, with
// doubling backoff between tries. Cancellation wins over retrying
func waitReady(ctx context.Context, ping func(context.Context) error, attempts int, timeout time.Duration, log logger.Logger) error {
	if attempts <= 0 {
		attempts = 20
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	var err error
	backoff := backoffStart
	for i := 1; i <= attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err = ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
		log.Debug().Err(err).Int("attempt", i).Msg("postgres not ready")
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(backoff):
		}
		backoff = min(backoff*2, backoffCeiling)
	}
	return fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, err)
}
