// Package repokit binds repositories to the store's sql seam
package repokit

import (
	"context"

	"armvalidator/internal/platform/store"
)

type (
	// Queryer is the read and write surface a bound repo sees
	Queryer = store.RowQuerier
	// TxRunner runs a function inside a transaction
	TxRunner = store.TxRunner
	// Rows are the result set of a query
	Rows = store.Rows
	// Row is a single row result
	Row = store.Row
	// CommandTag is the result of a write
	CommandTag = store.CommandTag
)

// Binder builds a domain repo on top of a tx bound Queryer
type Binder[T any] interface {
	Bind(Queryer) T
}

// MustBind binds q, panicking on a nil Queryer since that is a wiring bug
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}

// WithTx runs fn inside one transaction on tx
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}
