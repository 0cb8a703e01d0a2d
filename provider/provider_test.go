package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/reuben-baek/go-data/config"
	"github.com/reuben-baek/go-data/data"
	"github.com/reuben-baek/go-data/data/memory"
	"github.com/reuben-baek/go-data/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Account struct {
	data.Model[int]
	Owner string
}

type failingProvider struct {
	provider.Provider
	closed bool
}

func (f *failingProvider) Migrate(ctx context.Context, models ...any) error {
	return errors.New("disk full")
}

func (f *failingProvider) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	registry := provider.NewRegistry()
	memory.Register(registry)

	t.Run("open registered provider", func(t *testing.T) {
		p, err := registry.Open(ctx, config.Options{Provider: "memory", AutoMigrate: true}, &Account{})
		require.Nil(t, err)
		assert.Equal(t, "memory", p.Name())
		assert.Nil(t, p.Ping(ctx))
		assert.NotNil(t, p.TransactionManager())
		assert.Nil(t, p.Close(ctx))

		database := p.(*memory.Provider).Database()
		repository := memory.NewRepository[Account, int](database)
		_, err = repository.Add(ctx, Account{Owner: "reuben.b"})
		assert.Nil(t, err)
	})

	t.Run("unknown provider fails fast", func(t *testing.T) {
		_, err := registry.Open(ctx, config.Options{Provider: "oracle", ConnectionString: "x"})
		assert.ErrorIs(t, err, provider.ErrNotRegistered)
	})

	t.Run("invalid options fail before lookup", func(t *testing.T) {
		_, err := registry.Open(ctx, config.Options{Provider: "oracle"})
		assert.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		assert.Panics(t, func() { memory.Register(registry) })
	})

	t.Run("failed migration closes the provider", func(t *testing.T) {
		failing := &failingProvider{}
		registry.Register("failing", func(ctx context.Context, options config.Options) (provider.Provider, error) {
			return failing, nil
		})
		_, err := registry.Open(ctx, config.Options{Provider: "failing", ConnectionString: "x", AutoMigrate: true}, &Account{})
		assert.NotNil(t, err)
		assert.True(t, failing.closed)
	})

	assert.Equal(t, []string{"failing", "memory"}, registry.Names())
}
