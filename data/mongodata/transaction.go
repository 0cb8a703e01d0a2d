package mongodata

import (
	"context"

	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// TransactionManager runs transactions on client sessions. A session context is a
// context.Context, so collection calls made with it join the transaction.
// Transactions need a replica set or a sharded cluster.
type TransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) *TransactionManager {
	return &TransactionManager{client: client}
}

func (m *TransactionManager) Do(ctx context.Context, f func(ctx context.Context) error) error {
	return data.RunInTransaction(ctx, m, f)
}

func (m *TransactionManager) Begin(ctx context.Context) (context.Context, error) {
	if m.InTransaction(ctx) {
		return ctx, data.TransactionActiveError
	}
	session, err := m.client.StartSession()
	if err != nil {
		return ctx, err
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return ctx, err
	}
	logrus.Debugf("mongodata.TransactionManager.Begin: session [%v]", session.ID())
	return mongo.NewSessionContext(ctx, session), nil
}

func (m *TransactionManager) Commit(ctx context.Context) error {
	session := mongo.SessionFromContext(ctx)
	if session == nil {
		return data.NoTransactionError
	}
	defer session.EndSession(ctx)
	return session.CommitTransaction(ctx)
}

func (m *TransactionManager) Rollback(ctx context.Context) error {
	session := mongo.SessionFromContext(ctx)
	if session == nil {
		return data.NoTransactionError
	}
	defer session.EndSession(ctx)
	return session.AbortTransaction(ctx)
}

// Get returns the mongo.Session carried by ctx, or nil.
func (m *TransactionManager) Get(ctx context.Context) any {
	if session := mongo.SessionFromContext(ctx); session != nil {
		return session
	}
	return nil
}

func (m *TransactionManager) InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}
