// Package provider maps provider names to factories. Nothing registers itself: applications
// register the backends they link, and Open fails when the configured name has no factory.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/reuben-baek/go-data/config"
	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
)

var ErrNotRegistered = errors.New("provider not registered")

// Provider is an opened storage backend.
type Provider interface {
	Name() string
	TransactionManager() data.TransactionManager
	// Migrate creates the storage for models: tables, collections.
	Migrate(ctx context.Context, models ...any) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Factory func(ctx context.Context, options config.Options) (Provider, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds factory under name. It panics when name is empty or already taken.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" || factory == nil {
		panic("provider: Register needs a name and a factory")
	}
	if _, ok := r.factories[name]; ok {
		panic(fmt.Sprintf("provider: Register called twice for '%s'", name))
	}
	r.factories[name] = factory
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open validates options and opens the provider they name. With AutoMigrate set, models are
// migrated before the provider is returned.
func (r *Registry) Open(ctx context.Context, options config.Options, models ...any) (Provider, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	factory, ok := r.factories[options.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: '%s' (registered: %v)", ErrNotRegistered, options.Provider, r.Names())
	}
	p, err := factory(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("provider.Registry.Open: %s: %w", options.Provider, err)
	}
	logrus.Infof("provider.Registry.Open: opened [%s]", options.Provider)
	if options.AutoMigrate && len(models) > 0 {
		if err := p.Migrate(ctx, models...); err != nil {
			if closeErr := p.Close(ctx); closeErr != nil {
				logrus.Warnf("provider.Registry.Open: close after failed migration: %v", closeErr)
			}
			return nil, fmt.Errorf("provider.Registry.Open: migrate %s: %w", options.Provider, err)
		}
	}
	return p, nil
}
