package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"armvalidator/internal/platform/logger"

	"github.com/rs/zerolog"
)

type line struct {
	Level     string  `json:"level"`
	Component string  `json:"component"`
	SQL       string  `json:"sql"`
	Args      int     `json:"args"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Slow      bool    `json:"slow"`
	Error     string  `json:"error"`
	RunID     string  `json:"run_id"`
	Group     string  `json:"resource_group"`
}

func lines(t *testing.T, buf *bytes.Buffer) []line {
	t.Helper()
	var out []line
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			t.Fatalf("bad log line %q: %v", raw, err)
		}
		out = append(out, l)
	}
	return out
}

func TestOneLine(t *testing.T) {
	got := oneLine("\ninsert into template_runs (id, kind)\n\tvalues ($1::uuid, $2)\n")
	if got != "insert into template_runs (id, kind) values ($1::uuid, $2)" {
		t.Fatalf("oneLine = %q", got)
	}
}

func TestTracer_LevelsAndRunFields(t *testing.T) {
	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.InfoLevel))

	ctx := logger.WithRun(context.Background(), "run-1", "ci-abc")
	tr.OnQuery(ctx, QueryEvent{SQL: "select 1", ElapsedUS: 1500})
	tr.OnQuery(ctx, QueryEvent{SQL: "select pg_sleep(1)", ElapsedUS: 1_000_000, Slow: true})
	tr.OnQuery(context.Background(), QueryEvent{
		SQL:  "insert into template_runs values ($1, $2)",
		Args: []any{"id", "quota exceeded in westus"},
		Err:  errors.New("duplicate key"),
	})

	got := lines(t, &buf)
	if len(got) != 3 {
		t.Fatalf("want 3 lines, got %d: %s", len(got), buf.String())
	}
	if got[0].Level != "debug" || got[0].ElapsedMS != 1.5 || got[0].Component != "pg" {
		t.Fatalf("fast query line = %+v", got[0])
	}
	if got[0].RunID != "run-1" || got[0].Group != "ci-abc" {
		t.Fatalf("run fields missing: %+v", got[0])
	}
	if got[1].Level != "warn" || !got[1].Slow {
		t.Fatalf("slow query line = %+v", got[1])
	}
	if got[2].Level != "error" || got[2].Error != "duplicate key" || got[2].Args != 2 || got[2].RunID != "" {
		t.Fatalf("failed query line = %+v", got[2])
	}
	if bytes.Contains(buf.Bytes(), []byte("quota exceeded")) {
		t.Fatalf("argument values leaked into logs: %s", buf.String())
	}
}
