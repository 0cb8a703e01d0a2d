package gormdata

import (
	"context"

	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TransactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

type gormTransactionKey struct{}

func (g *TransactionManager) Do(ctx context.Context, f func(ctx context.Context) error) error {
	return data.RunInTransaction(ctx, g, f)
}

func (g *TransactionManager) Begin(ctx context.Context) (context.Context, error) {
	if g.InTransaction(ctx) {
		return ctx, data.TransactionActiveError
	}
	tx := g.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, tx.Error
	}
	logrus.Debugf("gormdata.TransactionManager.Begin: begun")
	return context.WithValue(ctx, gormTransactionKey{}, tx), nil
}

func (g *TransactionManager) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(gormTransactionKey{}).(*gorm.DB)
	if !ok {
		return data.NoTransactionError
	}
	return tx.Commit().Error
}

func (g *TransactionManager) Rollback(ctx context.Context) error {
	tx, ok := ctx.Value(gormTransactionKey{}).(*gorm.DB)
	if !ok {
		return data.NoTransactionError
	}
	return tx.Rollback().Error
}

func (g *TransactionManager) Get(ctx context.Context) any {
	return g.Session(ctx)
}

// Session returns the transaction carried by ctx, or a plain session bound to ctx.
func (g *TransactionManager) Session(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(gormTransactionKey{}).(*gorm.DB)
	if !ok {
		logrus.Debugf("gormdata.TransactionManager.Session: no transaction session")
		return g.db.WithContext(ctx)
	}
	return tx.WithContext(ctx)
}

func (g *TransactionManager) InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(gormTransactionKey{}).(*gorm.DB)
	return ok
}
