//go:build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"armvalidator/internal/platform/store"
	"armvalidator/internal/services/api/templates/domain"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "ledger",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/ledger?sslmode=disable", host, port.Port())
}

func TestLedger_RoundTrip_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn}})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	l := NewLedger(st.PG, 5*time.Second)
	if runs, err := l.Recent(ctx, 10); err != nil || len(runs) != 0 {
		t.Fatalf("missing table should read empty: %v %v", runs, err)
	}
	if err := l.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := l.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema twice: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, kind := range []domain.RunKind{domain.RunValidate, domain.RunDeploy} {
		err := l.Record(ctx, domain.Run{
			ID:         fmt.Sprintf("00000000-0000-0000-0000-00000000000%d", i+1),
			Kind:       kind,
			Status:     domain.RunSucceeded,
			StartedAt:  base.Add(time.Duration(i) * time.Second),
			FinishedAt: base.Add(time.Duration(i+1) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	runs, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].Kind != domain.RunDeploy {
		t.Fatalf("want newest first, got %+v", runs)
	}
}
