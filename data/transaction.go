package data

import (
	"context"

	"github.com/sirupsen/logrus"
)

// TransactionManager carries a backend transaction in the context. Repositories ask Get for the
// session to run on, so work done with the context returned by Begin, or inside Do, joins the
// transaction.
type TransactionManager interface {
	Do(ctx context.Context, f func(ctx context.Context) error) error
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Get(ctx context.Context) any
	InTransaction(ctx context.Context) bool
}

// RunInTransaction begins a transaction, runs f with it, and commits when f returns nil.
// It rolls back when f fails or panics.
func RunInTransaction(ctx context.Context, tm TransactionManager, f func(ctx context.Context) error) error {
	txCtx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked {
			if rbErr := tm.Rollback(txCtx); rbErr != nil {
				logrus.Warnf("RunInTransaction: rollback after panic failed: %v", rbErr)
			}
		}
	}()

	err = f(txCtx)
	panicked = false // if f is panicked, this statement is not executed.

	if err != nil {
		if rbErr := tm.Rollback(txCtx); rbErr != nil {
			logrus.Warnf("RunInTransaction: rollback failed: %v", rbErr)
		}
		return err
	}
	return tm.Commit(txCtx)
}
