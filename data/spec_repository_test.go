package data_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reuben-baek/go-data/data"
	"github.com/reuben-baek/go-data/data/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Note struct {
	data.Model[string]
	data.AuditFields
	Text string
}

func fixedClock(at time.Time) data.Clock {
	return func() time.Time { return at }
}

func seedItems(t *testing.T, repository data.Repository[Item, int], items ...Item) []Item {
	t.Helper()
	added, err := repository.AddRange(context.Background(), items)
	require.Nil(t, err)
	return added
}

func itemIDs(items []Item) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestSpecRepository_CRUD(t *testing.T) {
	repository := memory.NewRepository[Item, int](memory.NewDatabase())
	ctx := context.Background()

	created, err := repository.Add(ctx, Item{Name: "keyboard", Price: 30})
	assert.Nil(t, err)
	assert.NotEmpty(t, created.ID)

	found, err := repository.GetByID(ctx, created.ID)
	assert.Nil(t, err)
	assert.Equal(t, created, found)

	update := created
	update.Price = 35
	updated, err := repository.Update(ctx, update)
	assert.Nil(t, err)
	assert.Equal(t, 35, updated.Price)

	found, err = repository.GetByID(ctx, created.ID)
	assert.Nil(t, err)
	assert.Equal(t, 35, found.Price)

	err = repository.Delete(ctx, created)
	assert.Nil(t, err)

	_, err = repository.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, data.NotFoundError)

	err = repository.DeleteByID(ctx, created.ID)
	assert.ErrorIs(t, err, data.NotFoundError)

	_, err = repository.Update(ctx, created)
	assert.ErrorIs(t, err, data.NotFoundError)
}

func TestSpecRepository_Query(t *testing.T) {
	repository := memory.NewRepository[Item, int](memory.NewDatabase())
	ctx := context.Background()
	seedItems(t, repository,
		Item{Name: "b", Price: 20},
		Item{Name: "a", Price: 10},
		Item{Name: "c", Price: 20},
	)

	t.Run("order then page", func(t *testing.T) {
		spec := data.NewSpecification[Item]().OrderBy("Name").Page(0, 2).MustBuild()
		found, err := repository.List(ctx, spec)
		require.Nil(t, err)
		assert.Equal(t, []int{2, 1}, itemIDs(found))
	})

	t.Run("nil and empty specifications list everything", func(t *testing.T) {
		all, err := repository.ListAll(ctx)
		require.Nil(t, err)
		byNil, err := repository.List(ctx, nil)
		require.Nil(t, err)
		byEmpty, err := repository.List(ctx, data.NewSpecification[Item]().MustBuild())
		require.Nil(t, err)
		assert.Equal(t, all, byNil)
		assert.Equal(t, all, byEmpty)
		assert.Len(t, all, 3)
	})

	t.Run("list where", func(t *testing.T) {
		found, err := repository.ListWhere(ctx, data.Eq("Price", 20))
		require.Nil(t, err)
		assert.Equal(t, []int{1, 3}, itemIDs(found))

		_, err = repository.ListWhere(ctx, data.Eq("Colour", "red"))
		assert.ErrorIs(t, err, data.InvalidArgumentError)
	})

	t.Run("count ignores paging and ordering", func(t *testing.T) {
		spec := data.NewSpecification[Item]().Where(data.Eq("Name", "a")).OrderBy("Price").Page(5, 1).MustBuild()
		count, err := repository.Count(ctx, spec)
		require.Nil(t, err)
		assert.Equal(t, int64(1), count)

		count, err = repository.Count(ctx, nil)
		require.Nil(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("any", func(t *testing.T) {
		ok, err := repository.Any(ctx, data.NewSpecification[Item]().Where(data.Gt("Price", 15)).MustBuild())
		require.Nil(t, err)
		assert.True(t, ok)

		ok, err = repository.Any(ctx, data.NewSpecification[Item]().Where(data.Gt("Price", 50)).MustBuild())
		require.Nil(t, err)
		assert.False(t, ok)
	})

	t.Run("first", func(t *testing.T) {
		first, err := repository.First(ctx, data.NewSpecification[Item]().OrderByDescending("Name").MustBuild())
		require.Nil(t, err)
		assert.Equal(t, "c", first.Name)

		_, ok, err := repository.FirstOrDefault(ctx, data.NewSpecification[Item]().Where(data.Eq("Name", "z")).MustBuild())
		require.Nil(t, err)
		assert.False(t, ok)

		_, err = repository.First(ctx, data.NewSpecification[Item]().Where(data.Eq("Name", "z")).MustBuild())
		assert.ErrorIs(t, err, data.CardinalityError)
	})

	t.Run("single", func(t *testing.T) {
		single, err := repository.Single(ctx, data.NewSpecification[Item]().Where(data.Eq("Name", "a")).MustBuild())
		require.Nil(t, err)
		assert.Equal(t, 2, single.ID)

		_, err = repository.Single(ctx, data.NewSpecification[Item]().Where(data.Eq("Price", 20)).MustBuild())
		assert.ErrorIs(t, err, data.CardinalityError)

		_, err = repository.Single(ctx, data.NewSpecification[Item]().Where(data.Eq("Price", 99)).MustBuild())
		assert.ErrorIs(t, err, data.CardinalityError)

		_, ok, err := repository.SingleOrDefault(ctx, data.NewSpecification[Item]().Where(data.Eq("Price", 99)).MustBuild())
		assert.Nil(t, err)
		assert.False(t, ok)

		_, _, err = repository.SingleOrDefault(ctx, data.NewSpecification[Item]().Where(data.Eq("Price", 20)).MustBuild())
		assert.ErrorIs(t, err, data.CardinalityError)
	})

	t.Run("group by keeps order inside groups", func(t *testing.T) {
		spec := data.NewSpecification[Item]().OrderByDescending("Name").GroupBy("Price").MustBuild()
		found, err := repository.List(ctx, spec)
		require.Nil(t, err)
		assert.Equal(t, []int{2, 3, 1}, itemIDs(found))
	})

	t.Run("evaluation is repeatable", func(t *testing.T) {
		spec := data.NewSpecification[Item]().Where(data.Gte("Price", 10)).OrderBy("Price").OrderBy("Name").MustBuild()
		first, err := repository.List(ctx, spec)
		require.Nil(t, err)
		second, err := repository.List(ctx, spec)
		require.Nil(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, []int{2, 1, 3}, itemIDs(first))
	})

	t.Run("no match is an empty list", func(t *testing.T) {
		found, err := repository.List(ctx, data.NewSpecification[Item]().Where(data.Eq("Name", "z")).MustBuild())
		require.Nil(t, err)
		assert.NotNil(t, found)
		assert.Empty(t, found)
	})
}

func TestSpecRepository_Page(t *testing.T) {
	repository := memory.NewRepository[Item, int](memory.NewDatabase())
	ctx := context.Background()
	items := make([]Item, 0, 25)
	for i := 0; i < 25; i++ {
		items = append(items, Item{Name: "item", Price: i})
	}
	seedItems(t, repository, items...)

	spec := data.NewSpecification[Item]().OrderByDescending("Price").Page(0, 1).MustBuild()

	page, err := repository.Page(ctx, spec, 3, 10)
	require.Nil(t, err)
	assert.Equal(t, 25, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages())
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 4, page.Items[0].Price)
	assert.True(t, page.HasPrevious())
	assert.False(t, page.HasNext())

	page, err = repository.Page(ctx, spec, 4, 10)
	require.Nil(t, err)
	assert.Empty(t, page.Items)

	_, err = repository.Page(ctx, spec, 0, 10)
	assert.ErrorIs(t, err, data.InvalidArgumentError)
	_, err = repository.Page(ctx, spec, 1, 0)
	assert.ErrorIs(t, err, data.InvalidArgumentError)
	_, err = repository.Page(ctx, spec, math.MaxInt, 10)
	assert.ErrorIs(t, err, data.InvalidArgumentError)
	assert.ErrorContains(t, err, "largest offset")
}

func TestSpecRepository_Ranges(t *testing.T) {
	repository := memory.NewRepository[Item, int](memory.NewDatabase())
	ctx := context.Background()

	added, err := repository.AddRange(ctx, nil)
	assert.Nil(t, err)
	assert.Empty(t, added)
	assert.Nil(t, repository.DeleteRange(ctx, nil))

	added = seedItems(t, repository, Item{Name: "a"}, Item{Name: "b"}, Item{Name: "c"})
	assert.Equal(t, []int{1, 2, 3}, itemIDs(added))

	added[0].Price, added[1].Price = 5, 6
	_, err = repository.UpdateRange(ctx, added[:2])
	require.Nil(t, err)

	deleted, err := repository.DeleteWhere(ctx, data.Eq("Price", 0))
	require.Nil(t, err)
	assert.Equal(t, int64(1), deleted)

	err = repository.DeleteRange(ctx, added[:2])
	require.Nil(t, err)
	count, _ := repository.Count(ctx, nil)
	assert.Equal(t, int64(0), count)

	_, err = repository.DeleteWhere(ctx, data.Or())
	assert.ErrorIs(t, err, data.InvalidArgumentError)
}

func TestSpecRepository_Audit(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repository := memory.NewRepository[Note, string](memory.NewDatabase(),
		data.WithClock(fixedClock(at)),
		data.WithIDGenerator(data.UUIDString()),
	)
	ctx := data.WithPrincipal(context.Background(), "reuben.b")

	created, err := repository.Add(ctx, Note{Text: "hello"})
	require.Nil(t, err)
	_, err = uuid.Parse(created.ID)
	assert.Nil(t, err)
	assert.Equal(t, at, created.CreatedAt)
	assert.Equal(t, "reuben.b", created.CreatedBy)
	assert.Nil(t, created.ModifiedAt)

	created.Text = "hello again"
	updated, err := repository.Update(ctx, created)
	require.Nil(t, err)
	require.NotNil(t, updated.ModifiedAt)
	assert.Equal(t, at, *updated.ModifiedAt)
	assert.Equal(t, at, updated.CreatedAt)

	keyed, err := repository.Add(ctx, Note{Model: data.Model[string]{ID: "fixed"}})
	require.Nil(t, err)
	assert.Equal(t, "fixed", keyed.ID)
}

func TestSpecRepository_IDGeneratorMismatch(t *testing.T) {
	assert.Panics(t, func() {
		memory.NewRepository[Item, int](memory.NewDatabase(), data.WithIDGenerator(data.UUIDString()))
	})
}

func TestSameIdentity(t *testing.T) {
	a := Item{Model: data.Model[int]{ID: 1}, Name: "a"}
	b := Item{Model: data.Model[int]{ID: 1}, Name: "b"}
	c := Item{Model: data.Model[int]{ID: 2}, Name: "a"}
	assert.True(t, data.SameIdentity[int](a, b))
	assert.False(t, data.SameIdentity[int](a, c))
}
