package memory

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
)

type TransactionManager struct {
	database *Database
}

func NewTransactionManager(database *Database) *TransactionManager {
	return &TransactionManager{database: database}
}

type transactionKey struct{}

func (m *TransactionManager) Do(ctx context.Context, f func(ctx context.Context) error) error {
	return data.RunInTransaction(ctx, m, f)
}

// Begin snapshots every table. Only one transaction can be active per Database.
func (m *TransactionManager) Begin(ctx context.Context) (context.Context, error) {
	if err := ctx.Err(); err != nil {
		return ctx, err
	}
	db := m.database
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.txID != nil {
		return ctx, fmt.Errorf("%w: transaction [%s]", data.TransactionActiveError, db.txID)
	}
	transactionID := uuid.New()
	db.txID = &transactionID
	db.snapshot = make(map[reflect.Type]*table, len(db.tables))
	for entityType, t := range db.tables {
		db.snapshot[entityType] = t.clone()
	}
	logrus.Infof("memory.TransactionManager.Begin: transaction [%s]", transactionID)
	return context.WithValue(ctx, transactionKey{}, &transactionID), nil
}

func (m *TransactionManager) Commit(ctx context.Context) error {
	db := m.database
	db.mu.Lock()
	defer db.mu.Unlock()
	transactionID, err := m.current(ctx)
	if err != nil {
		return err
	}
	db.txID, db.snapshot = nil, nil
	logrus.Infof("memory.TransactionManager.Commit: transaction [%s]", transactionID)
	return nil
}

func (m *TransactionManager) Rollback(ctx context.Context) error {
	db := m.database
	db.mu.Lock()
	defer db.mu.Unlock()
	transactionID, err := m.current(ctx)
	if err != nil {
		return err
	}
	db.tables = db.snapshot
	db.txID, db.snapshot = nil, nil
	logrus.Infof("memory.TransactionManager.Rollback: transaction [%s]", transactionID)
	return nil
}

// Get returns the transaction ID carried by ctx, or nil.
func (m *TransactionManager) Get(ctx context.Context) any {
	tx, ok := ctx.Value(transactionKey{}).(*uuid.UUID)
	if !ok {
		return nil
	}
	return tx
}

func (m *TransactionManager) InTransaction(ctx context.Context) bool {
	m.database.mu.RLock()
	defer m.database.mu.RUnlock()
	_, err := m.current(ctx)
	return err == nil
}

// current returns the active transaction if ctx carries it. Callers hold mu.
func (m *TransactionManager) current(ctx context.Context) (uuid.UUID, error) {
	tx, ok := ctx.Value(transactionKey{}).(*uuid.UUID)
	if !ok || m.database.txID == nil || *m.database.txID != *tx {
		return uuid.UUID{}, data.NoTransactionError
	}
	return *tx, nil
}
