// Package repo provides postgres access for the template run ledger
package repo

import (
	"context"
	"time"

	"armvalidator/internal/modkit/repokit"
	perr "armvalidator/internal/platform/errors"
	"armvalidator/internal/platform/store"
	str "armvalidator/internal/platform/strings"
	"armvalidator/internal/services/api/templates/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// az stderr can run to pages; the ledger keeps the head
	maxErrorBytes = 4096
)

// Repo defines the repository contract for template runs
type Repo interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, r RowRun) error
	Recent(ctx context.Context, limit int) ([]RowRun, error)
}

// RowRun is a template_runs row
type RowRun struct {
	ID            string
	Kind          string
	ResourceGroup string
	PullRequest   int
	Status        string
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const schemaSQL = `
create table if not exists template_runs (
	id             uuid primary key,
	kind           text not null check (kind in ('validate', 'deploy')),
	resource_group text not null default '',
	pull_request   integer not null default 0,
	status         text not null check (status in ('succeeded', 'failed')),
	error          text not null default '',
	started_at     timestamptz not null,
	finished_at    timestamptz not null
);
create index if not exists template_runs_started_at_idx on template_runs (started_at desc);
`

func (r *queries) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, schemaSQL)
	return err
}

func (r *queries) Insert(ctx context.Context, rr RowRun) error {
	const sql = `
insert into template_runs (id, kind, resource_group, pull_request, status, error, started_at, finished_at)
values ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
`
	return store.ExecOne(ctx, r.q, sql,
		rr.ID, rr.Kind, rr.ResourceGroup, rr.PullRequest, rr.Status, rr.Error, rr.StartedAt, rr.FinishedAt)
}

func (r *queries) Recent(ctx context.Context, limit int) ([]RowRun, error) {
	const sql = `
select id::text, kind, resource_group, pull_request, status, error, started_at, finished_at
from template_runs
order by started_at desc
limit $1
`
	return store.Many(ctx, r.q, scanRun, sql, clampLimit(limit))
}

func scanRun(row store.Row) (RowRun, error) {
	var rr RowRun
	err := row.Scan(
		&rr.ID,
		&rr.Kind,
		&rr.ResourceGroup,
		&rr.PullRequest,
		&rr.Status,
		&rr.Error,
		&rr.StartedAt,
		&rr.FinishedAt,
	)
	return rr, err
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

// Ledger adapts Repo to the domain Ledger port
// every call runs in its own tx bounded by a statement timeout
type Ledger struct {
	tx     repokit.TxRunner
	binder repokit.Binder[Repo]
}

// NewLedger binds the ledger to tx; timeout <= 0 leaves statements unbounded
func NewLedger(tx repokit.TxRunner, timeout time.Duration) *Ledger {
	if tx == nil {
		panic("repo: nil TxRunner")
	}
	return &Ledger{
		tx:     repokit.WithBeginHooks(tx, repokit.StatementTimeout(timeout)),
		binder: NewPG(),
	}
}

func (l *Ledger) run(ctx context.Context, fn func(Repo) error) error {
	return repokit.WithTx(ctx, l.tx, func(q repokit.Queryer) error {
		return fn(repokit.MustBind(l.binder, q))
	})
}

// EnsureSchema creates the ledger table when missing
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	err := l.run(ctx, func(r Repo) error { return r.EnsureSchema(ctx) })
	return perr.FromPostgres(err, "ensure template_runs schema")
}

// Record stores one run
func (l *Ledger) Record(ctx context.Context, run domain.Run) error {
	row := RowRun{
		ID:            run.ID,
		Kind:          string(run.Kind),
		ResourceGroup: run.ResourceGroup,
		PullRequest:   run.PullRequest,
		Status:        string(run.Status),
		Error:         str.Clip(run.Error, maxErrorBytes),
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
	err := l.run(ctx, func(r Repo) error { return r.Insert(ctx, row) })
	return perr.FromPostgres(err, "record template run")
}

// Recent lists runs newest first. A missing table reads as no runs
func (l *Ledger) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	var rows []RowRun
	err := l.run(ctx, func(r Repo) (err error) {
		rows, err = r.Recent(ctx, limit)
		return err
	})
	if err != nil {
		if perr.IsUndefinedTable(err) {
			return []domain.Run{}, nil
		}
		return nil, perr.FromPostgres(err, "list template runs")
	}
	out := make([]domain.Run, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Run{
			ID:            r.ID,
			Kind:          domain.RunKind(r.Kind),
			ResourceGroup: r.ResourceGroup,
			PullRequest:   r.PullRequest,
			Status:        domain.RunStatus(r.Status),
			Error:         r.Error,
			StartedAt:     r.StartedAt,
			FinishedAt:    r.FinishedAt,
		})
	}
	return out, nil
}
