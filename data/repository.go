package data

import "context"

type ReadRepository[T any, ID comparable] interface {
	// GetByID fails with NotFoundError when no entity has the key.
	GetByID(ctx context.Context, id ID) (T, error)
	ListAll(ctx context.Context) ([]T, error)
	List(ctx context.Context, spec *Specification[T]) ([]T, error)
	ListWhere(ctx context.Context, criteria Criteria) ([]T, error)
	// FirstOrDefault reports false when nothing matches.
	FirstOrDefault(ctx context.Context, spec *Specification[T]) (T, bool, error)
	// First fails with CardinalityError when nothing matches.
	First(ctx context.Context, spec *Specification[T]) (T, error)
	// Single fails with CardinalityError unless exactly one entity matches.
	Single(ctx context.Context, spec *Specification[T]) (T, error)
	// SingleOrDefault reports false when nothing matches and fails with CardinalityError when
	// more than one entity matches.
	SingleOrDefault(ctx context.Context, spec *Specification[T]) (T, bool, error)
	// Count counts entities matching the criteria of spec; nil counts everything.
	Count(ctx context.Context, spec *Specification[T]) (int64, error)
	Any(ctx context.Context, spec *Specification[T]) (bool, error)
	// Page returns page pageNumber (from 1) of size pageSize of the entities spec selects.
	// Paging configured on spec is replaced.
	Page(ctx context.Context, spec *Specification[T], pageNumber, pageSize int) (*PagedResult[T], error)
}

type Repository[T any, ID comparable] interface {
	ReadRepository[T, ID]
	Add(ctx context.Context, entity T) (T, error)
	AddRange(ctx context.Context, entities []T) ([]T, error)
	Update(ctx context.Context, entity T) (T, error)
	UpdateRange(ctx context.Context, entities []T) ([]T, error)
	Delete(ctx context.Context, entity T) error
	DeleteByID(ctx context.Context, id ID) error
	DeleteRange(ctx context.Context, entities []T) error
	// DeleteWhere deletes every entity matching criteria and returns how many were deleted.
	// Inside a unit of work the count is only known after SaveChanges, and 0 is returned.
	DeleteWhere(ctx context.Context, criteria Criteria) (int64, error)
}

// Source is what a backend provides to the repository façade. Query returns the raw collection,
// bound to the transaction carried by ctx if there is one. Insert may write generated keys back
// into entities. Update and Delete fail with NotFoundError, changing nothing, when a key is absent.
type Source[T any, ID comparable] interface {
	Query(ctx context.Context) Queryable[T]
	Insert(ctx context.Context, entities []T) (int64, error)
	Update(ctx context.Context, entities []T) (int64, error)
	Delete(ctx context.Context, ids []ID) (int64, error)
	DeleteWhere(ctx context.Context, criteria Criteria) (int64, error)
}
