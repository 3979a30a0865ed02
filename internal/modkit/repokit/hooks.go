package repokit

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// BeginHook runs first thing in a transaction, on the tx bound Queryer
// A nil BeginHook is skipped
type BeginHook func(ctx context.Context, q Queryer) error

// SetLocal sets a server setting for the rest of the transaction only
// An empty value returns a nil hook
func SetLocal(name, value string) BeginHook {
	if value == "" {
		return nil
	}
	return func(ctx context.Context, q Queryer) error {
		if _, err := q.Exec(ctx, "select set_config($1, $2, true)", name, value); err != nil {
			return fmt.Errorf("set local %s: %w", name, err)
		}
		return nil
	}
}

// StatementTimeout bounds every statement of the tx; d <= 0 yields a nil hook
func StatementTimeout(d time.Duration) BeginHook {
	if d <= 0 {
		return nil
	}
	return SetLocal("statement_timeout", strconv.FormatInt(d.Milliseconds(), 10))
}

// WithBeginHooks wraps inner so each Tx runs hooks before fn. Plain Exec,
// Query and QueryRow pass straight through without hooks
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	live := make([]BeginHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			live = append(live, h)
		}
	}
	if len(live) == 0 {
		return inner
	}
	return hookedTx{TxRunner: inner, hooks: live}
}

type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, run := range h.hooks {
			if err := run(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}
