package pg

import (
	"context"
	"strings"

	"armvalidator/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one statement run through the store adapter
type QueryEvent struct {
	SQL       string
	Args      []any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives every statement when SQL logging is on
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs statements at debug regardless of the root level, warn when
// slow, error when failed. Run fields on ctx are attached. Argument values
// are never logged: ledger rows carry submitted template failure text
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	log := logger.Enrich(ctx, z.log)
	evt := log.Debug()
	switch {
	case ev.Err != nil:
		evt = log.Error().Err(ev.Err)
	case ev.Slow:
		evt = log.Warn()
	}
	evt.Str("sql", oneLine(ev.SQL)).
		Int("args", len(ev.Args)).
		Float64("elapsed_ms", float64(ev.ElapsedUS)/1000).
		Bool("slow", ev.Slow).
		Msg("pg query")
}

// oneLine collapses whitespace runs so multi line statements log on one line
func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }
