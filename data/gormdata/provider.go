// Package gormdata is the relational backend: criteria become gorm clauses and run on sqlite,
// postgres or mysql.
package gormdata

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/reuben-baek/go-data/config"
	"github.com/reuben-baek/go-data/data"
	"github.com/reuben-baek/go-data/provider"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

type Provider struct {
	name               string
	db                 *gorm.DB
	sqlDB              *sql.DB
	transactionManager *TransactionManager
}

// Register adds the sqlite, postgres and mysql factories to registry.
func Register(registry *provider.Registry) {
	for _, name := range []string{SQLite, Postgres, MySQL} {
		registry.Register(name, func(ctx context.Context, options config.Options) (provider.Provider, error) {
			return Open(ctx, options)
		})
	}
}

// Open connects to the database options describe. Postgres runs on a lib/pq connection pool.
func Open(ctx context.Context, options config.Options) (*Provider, error) {
	var dialector gorm.Dialector
	switch options.Provider {
	case SQLite:
		dialector = sqlite.Open(options.ConnectionString)
	case Postgres:
		pool, err := sql.Open("postgres", options.ConnectionString)
		if err != nil {
			return nil, err
		}
		dialector = postgres.New(postgres.Config{Conn: pool})
	case MySQL:
		dialector = mysql.Open(options.ConnectionString)
	default:
		return nil, fmt.Errorf("%w: gormdata has no dialector for '%s'", provider.ErrNotRegistered, options.Provider)
	}
	return OpenDialector(ctx, options, dialector)
}

// OpenDialector opens gorm over dialector with the naming and logging that options select.
func OpenDialector(ctx context.Context, options config.Options, dialector gorm.Dialector) (*Provider, error) {
	logLevel := logger.Warn
	if options.EnableDetailedLogging {
		logLevel = logger.Info
	}
	logConfig := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold: 100 * time.Millisecond,
		LogLevel:      logLevel,
		Colorful:      false,
	})
	namingStrategy := schema.NamingStrategy{}
	if options.SchemaName != "" {
		namingStrategy.TablePrefix = options.SchemaName + "."
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logConfig,
		NamingStrategy: namingStrategy,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logrus.Infof("gormdata.Open: [%s] connected, schema [%s]", options.Provider, options.SchemaName)
	return &Provider{
		name:               options.Provider,
		db:                 db,
		sqlDB:              sqlDB,
		transactionManager: NewTransactionManager(db),
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) DB() *gorm.DB {
	return p.db
}

func (p *Provider) TransactionManager() data.TransactionManager {
	return p.transactionManager
}

func (p *Provider) Migrate(ctx context.Context, models ...any) error {
	logrus.Infof("gormdata.Provider.Migrate: [%d] models", len(models))
	return p.db.WithContext(ctx).AutoMigrate(models...)
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.sqlDB.PingContext(ctx)
}

func (p *Provider) Close(ctx context.Context) error {
	logrus.Infof("gormdata.Provider.Close: [%s]", p.name)
	return p.sqlDB.Close()
}
