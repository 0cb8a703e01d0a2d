package data

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type change struct {
	entityType reflect.Type
	state      ChangeState
	stamp      func(now time.Time, principal string)
	apply      func(ctx context.Context) (int64, error)
}

// UnitOfWork stages the mutations of its repositories and writes them in one transaction.
// At most one transaction is active per UnitOfWork. A UnitOfWork must not be shared between
// goroutines.
type UnitOfWork struct {
	transactionManager TransactionManager
	clock              Clock

	mu           sync.Mutex
	changes      []change
	active       bool
	repositories map[reflect.Type]any
}

func NewUnitOfWork(transactionManager TransactionManager, opts ...Option) *UnitOfWork {
	o := newOptions(opts)
	return &UnitOfWork{
		transactionManager: transactionManager,
		clock:              o.clock,
		repositories:       make(map[reflect.Type]any),
	}
}

// UnitOfWorkRepository returns the repository of T scoped to uow. The first call for T binds
// source and opts; later calls return the same repository.
func UnitOfWorkRepository[T Entity[ID], ID comparable](uow *UnitOfWork, source Source[T, ID], opts ...Option) Repository[T, ID] {
	uow.mu.Lock()
	defer uow.mu.Unlock()

	key := typeOf[T]()
	if repository, ok := uow.repositories[key]; ok {
		return repository.(*SpecRepository[T, ID])
	}
	repository := NewRepository[T, ID](source, opts...)
	repository.unitOfWork = uow
	uow.repositories[key] = repository
	return repository
}

// BeginTransaction starts the transaction and returns the context to use for work inside it.
func (u *UnitOfWork) BeginTransaction(ctx context.Context) (context.Context, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active {
		return ctx, TransactionActiveError
	}
	txCtx, err := u.transactionManager.Begin(ctx)
	if err != nil {
		return ctx, err
	}
	u.active = true
	logrus.Infof("UnitOfWork.BeginTransaction: begun")
	return txCtx, nil
}

// CommitTransaction commits the active transaction. ctx must be the context returned by
// BeginTransaction. Changes staged since the last SaveChanges stay staged, and a failed commit
// leaves the transaction active so it can still be rolled back.
func (u *UnitOfWork) CommitTransaction(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.requireTransaction(ctx); err != nil {
		return err
	}
	if err := u.transactionManager.Commit(ctx); err != nil {
		return err
	}
	u.active = false
	logrus.Infof("UnitOfWork.CommitTransaction: committed")
	return nil
}

// RollbackTransaction rolls back the active transaction and discards staged changes. Once the
// backend has been asked to roll back, the transaction is over even if it reports an error.
func (u *UnitOfWork) RollbackTransaction(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.requireTransaction(ctx); err != nil {
		return err
	}
	err := u.transactionManager.Rollback(ctx)
	u.active = false
	discarded := len(u.changes)
	u.changes = nil
	if err != nil {
		return err
	}
	logrus.Infof("UnitOfWork.RollbackTransaction: rolled back, %d staged changes discarded", discarded)
	return nil
}

func (u *UnitOfWork) requireTransaction(ctx context.Context) error {
	if !u.active {
		return NoTransactionError
	}
	if !u.transactionManager.InTransaction(ctx) {
		return fmt.Errorf("%w: ctx does not carry the transaction of BeginTransaction", NoTransactionError)
	}
	return nil
}

// SaveChanges stamps every staged change with a single clock reading and applies them in staging
// order. Without an active transaction the changes get a transaction of their own; with one, ctx
// must be the context returned by BeginTransaction. On failure the changes stay staged.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	changes := u.changes
	if len(changes) == 0 {
		return 0, nil
	}

	now := u.clock()
	principal := PrincipalFrom(ctx)
	for _, c := range changes {
		c.stamp(now, principal)
	}

	var affected int64
	apply := func(ctx context.Context) error {
		affected = 0
		for _, c := range changes {
			n, err := c.apply(ctx)
			if err != nil {
				return fmt.Errorf("UnitOfWork.SaveChanges: %s %s: %w", c.state, c.entityType, err)
			}
			affected += n
		}
		return nil
	}

	var err error
	if u.active {
		if !u.transactionManager.InTransaction(ctx) {
			return 0, fmt.Errorf("%w: SaveChanges inside a transaction needs the context of BeginTransaction", NoTransactionError)
		}
		err = apply(ctx)
	} else {
		err = u.transactionManager.Do(ctx, apply)
	}
	if err != nil {
		return 0, err
	}
	logrus.Debugf("UnitOfWork.SaveChanges: %d changes, %d affected", len(changes), affected)
	u.changes = nil
	return affected, nil
}

// Pending returns the number of staged changes.
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.changes)
}

func (u *UnitOfWork) stage(c change) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.changes = append(u.changes, c)
}
