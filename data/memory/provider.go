package memory

import (
	"context"

	"github.com/reuben-baek/go-data/config"
	"github.com/reuben-baek/go-data/data"
	"github.com/reuben-baek/go-data/provider"
	"github.com/sirupsen/logrus"
)

const Name = "memory"

// Provider is a Database opened through a provider.Registry. The connection string is ignored.
type Provider struct {
	database           *Database
	transactionManager *TransactionManager
}

func NewProvider() *Provider {
	database := NewDatabase()
	return &Provider{
		database:           database,
		transactionManager: NewTransactionManager(database),
	}
}

func Register(registry *provider.Registry) {
	registry.Register(Name, func(ctx context.Context, options config.Options) (provider.Provider, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logrus.Infof("memory.Register: new in-process database")
		return NewProvider(), nil
	})
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) Database() *Database {
	return p.database
}

func (p *Provider) TransactionManager() data.TransactionManager {
	return p.transactionManager
}

func (p *Provider) Migrate(ctx context.Context, models ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.database.Migrate(models...)
	return nil
}

func (p *Provider) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (p *Provider) Close(ctx context.Context) error {
	return nil
}
