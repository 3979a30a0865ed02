// Package logger holds the process zerolog root and the context fields
// (request_id, run_id, resource_group) every request scoped line carries
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"armvalidator/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the project logging type
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level       string // trace..panic, warning accepted; unknown means debug
	Format      string // "console" or "json"
	Service     string
	Version     string
	Component   string
	Writer      io.Writer // default stdout
	WithCaller  bool
	SampleEvery int // > 1 keeps one line in N
}

// FromEnv reads LOG_* through the raw view; config itself logs, so it
// cannot be used here
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:       strings.ToLower(rc.Get("LEVEL", "debug")),
		Format:      strings.ToLower(rc.Get("FORMAT", "console")),
		Service:     rc.Get("SERVICE", ""),
		Component:   rc.Get("COMPONENT", ""),
		WithCaller:  rc.GetBool("CALLER", false),
		SampleEvery: rc.GetInt("SAMPLE_EVERY", 0),
	}
}

// New builds a logger from opt without touching the process root
func New(opt Options) Logger {
	var w io.Writer = os.Stdout
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zc := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
	for k, v := range map[string]string{"service": opt.Service, "version": opt.Version, "component": opt.Component} {
		if v != "" {
			zc = zc.Str(k, v)
		}
	}
	if opt.WithCaller {
		zc = zc.Caller()
	}
	l := zc.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return l
}

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Init sets the process root; only the first call has any effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := New(opt)
		root.Store(&l)
	})
}

// Get returns the process root, initialising it from env on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || lvl == zerolog.NoLevel || lvl == zerolog.Disabled {
		return zerolog.DebugLevel
	}
	return lvl
}

type ctxKey uint8

const (
	keyRequestID ctxKey = iota
	keyRunID
	keyGroup
)

// ctxFields maps context keys to log field names, in output order
var ctxFields = [...]struct {
	key   ctxKey
	field string
}{
	{keyRequestID, "request_id"},
	{keyRunID, "run_id"},
	{keyGroup, "resource_group"},
}

// WithRequest annotates ctx with the request id
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRequestID, reqID)
}

// WithRun annotates ctx with a validate/deploy run id and, for deploys, the
// resource group the run provisions into
func WithRun(ctx context.Context, runID, resourceGroup string) context.Context {
	if runID != "" {
		ctx = context.WithValue(ctx, keyRunID, runID)
	}
	if resourceGroup != "" {
		ctx = context.WithValue(ctx, keyGroup, resourceGroup)
	}
	return ctx
}

// C returns the root logger enriched from ctx
func C(ctx context.Context) *Logger {
	l := Enrich(ctx, *Get())
	return &l
}

// Enrich adds the ctx fields to parent
func Enrich(ctx context.Context, parent Logger) Logger {
	if ctx == nil {
		return parent
	}
	zc := parent.With()
	for _, f := range ctxFields {
		if s, ok := ctx.Value(f.key).(string); ok && s != "" {
			zc = zc.Str(f.field, s)
		}
	}
	return zc.Logger()
}

// Named returns a child of the root with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
