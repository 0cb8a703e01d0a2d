package data_test

import (
	"context"
	"testing"
	"time"

	"github.com/reuben-baek/go-data/data"
	"github.com/reuben-baek/go-data/data/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_SaveChanges(t *testing.T) {
	database := memory.NewDatabase()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	uow := data.NewUnitOfWork(memory.NewTransactionManager(database), data.WithClock(fixedClock(at)))
	notes := data.UnitOfWorkRepository[Note, string](uow, memory.NewSource[Note, string](database),
		data.WithIDGenerator(data.UUIDString()))
	items := data.UnitOfWorkRepository[Item, int](uow, memory.NewSource[Item, int](database))
	ctx := data.WithPrincipal(context.Background(), "reuben.b")

	t.Run("repository is cached per entity type", func(t *testing.T) {
		again := data.UnitOfWorkRepository[Note, string](uow, memory.NewSource[Note, string](database))
		assert.Same(t, notes, again)
	})

	t.Run("changes are staged until SaveChanges", func(t *testing.T) {
		staged, err := notes.AddRange(ctx, []Note{{Text: "a"}, {Text: "b"}})
		require.Nil(t, err)
		_, err = items.Add(ctx, Item{Name: "keyboard"})
		require.Nil(t, err)
		assert.Equal(t, 2, uow.Pending())

		count, _ := notes.Count(ctx, nil)
		assert.Equal(t, int64(0), count)

		affected, err := uow.SaveChanges(ctx)
		require.Nil(t, err)
		assert.Equal(t, int64(3), affected)
		assert.Equal(t, 0, uow.Pending())

		saved, err := notes.ListAll(ctx)
		require.Nil(t, err)
		require.Len(t, saved, 2)
		for _, note := range saved {
			assert.Equal(t, at, note.CreatedAt)
			assert.Equal(t, "reuben.b", note.CreatedBy)
		}
		assert.Equal(t, at, staged[0].CreatedAt)
	})

	t.Run("nothing to save", func(t *testing.T) {
		affected, err := uow.SaveChanges(ctx)
		assert.Nil(t, err)
		assert.Equal(t, int64(0), affected)
	})

	t.Run("failed save keeps changes staged and writes nothing", func(t *testing.T) {
		_, err := items.Add(ctx, Item{Name: "mouse"})
		require.Nil(t, err)
		require.Nil(t, items.DeleteByID(ctx, 999))

		_, err = uow.SaveChanges(ctx)
		assert.ErrorIs(t, err, data.NotFoundError)
		assert.Equal(t, 2, uow.Pending())

		count, _ := items.Count(ctx, nil)
		assert.Equal(t, int64(1), count)
	})
}

func TestUnitOfWork_Transaction(t *testing.T) {
	database := memory.NewDatabase()
	uow := data.NewUnitOfWork(memory.NewTransactionManager(database))
	items := data.UnitOfWorkRepository[Item, int](uow, memory.NewSource[Item, int](database))
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		txCtx, err := uow.BeginTransaction(ctx)
		require.Nil(t, err)

		_, err = uow.BeginTransaction(ctx)
		assert.ErrorIs(t, err, data.TransactionActiveError)

		_, err = items.Add(txCtx, Item{Name: "a"})
		require.Nil(t, err)

		_, err = uow.SaveChanges(ctx)
		assert.ErrorIs(t, err, data.NoTransactionError)

		affected, err := uow.SaveChanges(txCtx)
		require.Nil(t, err)
		assert.Equal(t, int64(1), affected)
		require.Nil(t, uow.CommitTransaction(txCtx))

		count, _ := items.Count(ctx, nil)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rollback undoes saved changes and drops staged ones", func(t *testing.T) {
		txCtx, err := uow.BeginTransaction(ctx)
		require.Nil(t, err)

		_, err = items.Add(txCtx, Item{Name: "b"})
		require.Nil(t, err)
		_, err = uow.SaveChanges(txCtx)
		require.Nil(t, err)
		_, err = items.Add(txCtx, Item{Name: "c"})
		require.Nil(t, err)

		require.Nil(t, uow.RollbackTransaction(txCtx))
		assert.Equal(t, 0, uow.Pending())

		count, _ := items.Count(ctx, nil)
		assert.Equal(t, int64(1), count)
	})

	t.Run("commit without transaction", func(t *testing.T) {
		assert.ErrorIs(t, uow.CommitTransaction(ctx), data.NoTransactionError)
		assert.ErrorIs(t, uow.RollbackTransaction(ctx), data.NoTransactionError)
	})

	t.Run("commit keeps unsaved changes staged", func(t *testing.T) {
		txCtx, err := uow.BeginTransaction(ctx)
		require.Nil(t, err)
		_, err = items.Add(txCtx, Item{Name: "d"})
		require.Nil(t, err)
		require.Nil(t, uow.CommitTransaction(txCtx))
		assert.Equal(t, 1, uow.Pending())

		_, err = uow.SaveChanges(ctx)
		require.Nil(t, err)
		count, _ := items.Count(ctx, nil)
		assert.Equal(t, int64(2), count)
	})
	t.Run("commit with the outer context keeps the transaction", func(t *testing.T) {
		txCtx, err := uow.BeginTransaction(ctx)
		require.Nil(t, err)
		_, err = items.Add(txCtx, Item{Name: "e"})
		require.Nil(t, err)
		_, err = uow.SaveChanges(txCtx)
		require.Nil(t, err)

		assert.ErrorIs(t, uow.CommitTransaction(ctx), data.NoTransactionError)
		assert.ErrorIs(t, uow.RollbackTransaction(ctx), data.NoTransactionError)
		_, err = uow.BeginTransaction(ctx)
		assert.ErrorIs(t, err, data.TransactionActiveError)

		require.Nil(t, uow.CommitTransaction(txCtx))
		count, _ := items.Count(ctx, nil)
		assert.Equal(t, int64(3), count)

		txCtx, err = uow.BeginTransaction(ctx)
		require.Nil(t, err)
		require.Nil(t, uow.RollbackTransaction(txCtx))
	})
}
