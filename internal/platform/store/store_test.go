package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"armvalidator/internal/platform/config"
	"armvalidator/internal/platform/testkit"
)

func TestOpen_NothingEnabled_LeavesPGNil(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, Config{}, WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if s.PG != nil {
		t.Fatalf("PG should stay nil when disabled, got %T", s.PG)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close on empty store: %v", err)
	}
}

func TestOpen_PGEnabled_BadURL_BubblesError(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{PG: PGConfig{Enabled: true, URL: "://bad"}})
	if err == nil {
		t.Fatalf("expected Open error for bad PG URL, got store=%#v", s)
	}
	if s != nil {
		t.Fatalf("expected nil store on error, got %#v", s)
	}
}

func TestOpen_LoggerTaggedForStore(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(context.Background(), Config{}, WithLogger(zerolog.New(&buf)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Log.Info().Msg("ledger disabled")
	testkit.MustContain(t, buf.String(), `"component":"store"`)
}

func TestOpen_OptionErrorAborts(t *testing.T) {
	want := errors.New("bad option")
	if _, err := Open(context.Background(), Config{}, func(*Store) error { return want }); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestClose_NilStore(t *testing.T) {
	t.Parallel()

	var s *Store
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("nil store Close: %v", err)
	}
}

func TestFromConf(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "")
	t.Setenv("SERVICE_PGSQL_CONNECT_RETRIES", "")
	if c := FromConf("x", config.New()); c.PG.Enabled {
		t.Fatalf("ledger must be off without a url: %+v", c.PG)
	}

	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://u:p@db:5432/runs")
	t.Setenv("SERVICE_PGSQL_CONNECT_RETRIES", "3")
	t.Setenv("SERVICE_PGSQL_PING_TIMEOUT", "250ms")
	c := FromConf("armvalidator-api", config.New())
	if !c.PG.Enabled || c.PG.URL != "postgres://u:p@db:5432/runs" || c.AppName != "armvalidator-api" {
		t.Fatalf("config = %+v", c)
	}
	if c.PG.ConnectRetries != 3 || c.PG.PingTimeout != 250*time.Millisecond {
		t.Fatalf("boot knobs = %d %v", c.PG.ConnectRetries, c.PG.PingTimeout)
	}
}

func instantBackoff(t *testing.T, waits *[]time.Duration) {
	testkit.Serial(t)
	testkit.Swap(t, &after, func(d time.Duration) <-chan time.Time {
		*waits = append(*waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	})
}

func TestWaitReady_RetriesWithBackoff(t *testing.T) {
	var waits []time.Duration
	instantBackoff(t, &waits)

	calls := 0
	ping := func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatalf("ping has no deadline")
		}
		calls++
		if calls < 6 {
			return errors.New("connection refused")
		}
		return nil
	}
	if err := waitReady(context.Background(), ping, 10, time.Second, zerolog.Nop()); err != nil {
		t.Fatalf("waitReady: %v", err)
	}
	want := []time.Duration{150 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond, 1200 * time.Millisecond, 2 * time.Second}
	if calls != 6 || len(waits) != len(want) {
		t.Fatalf("calls = %d waits = %v", calls, waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestWaitReady_GivesUp(t *testing.T) {
	var waits []time.Duration
	instantBackoff(t, &waits)

	refused := errors.New("connection refused")
	err := waitReady(context.Background(), func(context.Context) error { return refused }, 3, 0, zerolog.Nop())
	if !errors.Is(err, refused) || len(waits) != 2 {
		t.Fatalf("err = %v waits = %v", err, waits)
	}
	testkit.MustContain(t, err.Error(), "after 3 attempts")
}

func TestWaitReady_StopsOnCancel(t *testing.T) {
	testkit.Serial(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := waitReady(ctx, func(context.Context) error { return errors.New("refused") }, 5, time.Second, zerolog.Nop())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
