package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"armvalidator/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const dsn = "postgres://ledger:secret@db:5432/runs?sslmode=disable"

func TestPoolConfig_AppliesSettings(t *testing.T) {
	pc, err := poolConfig(Config{URL: dsn, MaxConns: 7, AppName: "armvalidator-api", MaxConnIdle: 42 * time.Second})
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if pc.MaxConns != 7 || pc.MaxConnIdleTime != 42*time.Second {
		t.Fatalf("pool = %d %v", pc.MaxConns, pc.MaxConnIdleTime)
	}
	if got := pc.ConnConfig.RuntimeParams["application_name"]; got != "armvalidator-api" {
		t.Fatalf("application_name = %q", got)
	}

	def, _ := poolConfig(Config{URL: dsn})
	if def.MaxConns <= 0 || def.ConnConfig.RuntimeParams["application_name"] != "" {
		t.Fatalf("zero settings should keep pgx defaults: %d %q", def.MaxConns, def.ConnConfig.RuntimeParams["application_name"])
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(context.Background(), Config{URL: "://bad"}, nil); err == nil {
		t.Fatalf("expected parse error")
	}

	testkit.Serial(t)
	boom := errors.New("boom")
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) { return nil, boom })
	if _, err := Open(context.Background(), Config{URL: dsn}, nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpen_CarriesTracerSettings(t *testing.T) {
	testkit.Serial(t)
	fake := &pgxpool.Pool{} // zero value; never closed
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) { return fake, nil })

	tr := Tracer(zerolog.Nop())
	p, err := Open(context.Background(), Config{URL: dsn, SlowMs: 123}, tr)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p.Pool != fake || p.SlowMs != 123 || p.Tracer == nil {
		t.Fatalf("PG = %+v", p)
	}
}

func TestClose_NilSafe(t *testing.T) {
	var p *PG
	p.Close()
	(&PG{}).Close()
}
