// Package mongodata is the document backend: entities are documents in one collection per
// type and criteria become MongoDB query documents.
//
// Embedded data.Model and data.AuditFields need `bson:",inline"` so their fields are stored
// at the top level of the document.
package mongodata

import (
	"context"

	"github.com/reuben-baek/go-data/config"
	"github.com/reuben-baek/go-data/data"
	"github.com/reuben-baek/go-data/provider"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	Name            = "mongodb"
	DefaultDatabase = "godata"
)

type Provider struct {
	client             *mongo.Client
	database           *mongo.Database
	transactionManager *TransactionManager
}

func Register(registry *provider.Registry) {
	registry.Register(Name, func(ctx context.Context, options config.Options) (provider.Provider, error) {
		return Open(ctx, options)
	})
}

// Open connects and pings the primary. The database is the schema name, else the one
// named in the connection string, else DefaultDatabase.
func Open(ctx context.Context, opts config.Options) (*Provider, error) {
	databaseName, err := DatabaseName(opts)
	if err != nil {
		return nil, err
	}
	clientOptions := options.Client().ApplyURI(opts.ConnectionString)
	if opts.EnableDetailedLogging {
		clientOptions.SetMonitor(commandLogger())
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logrus.Infof("mongodata.Open: connected, database [%s]", databaseName)
	return &Provider{
		client:             client,
		database:           client.Database(databaseName),
		transactionManager: NewTransactionManager(client),
	}, nil
}

func DatabaseName(opts config.Options) (string, error) {
	if opts.SchemaName != "" {
		return opts.SchemaName, nil
	}
	parsed, err := connstring.ParseAndValidate(opts.ConnectionString)
	if err != nil {
		return "", err
	}
	if parsed.Database != "" {
		return parsed.Database, nil
	}
	return DefaultDatabase, nil
}

func commandLogger() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(ctx context.Context, e *event.CommandStartedEvent) {
			logrus.Debugf("mongodata: [%d] %s on [%s]", e.RequestID, e.CommandName, e.DatabaseName)
		},
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			logrus.Debugf("mongodata: [%d] %s succeeded in %s", e.RequestID, e.CommandName, e.Duration)
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			logrus.Warnf("mongodata: [%d] %s failed in %s", e.RequestID, e.CommandName, e.Duration)
		},
	}
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) Database() *mongo.Database {
	return p.database
}

func (p *Provider) TransactionManager() data.TransactionManager {
	return p.transactionManager
}

// Migrate creates the collection of each model that does not have one yet.
func (p *Provider) Migrate(ctx context.Context, models ...any) error {
	for _, model := range models {
		name := CollectionName(model)
		existing, err := p.database.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		if err := p.database.CreateCollection(ctx, name); err != nil {
			return err
		}
		logrus.Infof("mongodata.Provider.Migrate: created collection [%s]", name)
	}
	return nil
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

func (p *Provider) Close(ctx context.Context) error {
	logrus.Infof("mongodata.Provider.Close: [%s]", p.database.Name())
	return p.client.Disconnect(ctx)
}
