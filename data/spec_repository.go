package data

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/sirupsen/logrus"
)

type Option func(*options)

type options struct {
	clock       Clock
	idGenerator any
}

func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithIDGenerator makes Add assign a generated key to entities whose key is the zero value.
func WithIDGenerator[ID comparable](generator IDGenerator[ID]) Option {
	return func(o *options) {
		o.idGenerator = generator
	}
}

func newOptions(opts []Option) options {
	o := options{clock: UTCClock}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SpecRepository implements Repository on top of a backend Source and the specification
// evaluator. Mutations run immediately, or are staged in a UnitOfWork when the repository was
// obtained from one.
type SpecRepository[T Entity[ID], ID comparable] struct {
	source      Source[T, ID]
	clock       Clock
	idGenerator IDGenerator[ID]
	entityType  reflect.Type
	unitOfWork  *UnitOfWork
}

func NewRepository[T Entity[ID], ID comparable](source Source[T, ID], opts ...Option) *SpecRepository[T, ID] {
	o := newOptions(opts)
	repository := &SpecRepository[T, ID]{
		source:     source,
		clock:      o.clock,
		entityType: typeOf[T](),
	}
	if o.idGenerator != nil {
		generator, ok := o.idGenerator.(IDGenerator[ID])
		if !ok {
			panic(fmt.Sprintf("ID generator type '%T' does not produce the key type of '%s'", o.idGenerator, repository.entityType))
		}
		repository.idGenerator = generator
	}
	return repository
}

func (r *SpecRepository[T, ID]) GetByID(ctx context.Context, id ID) (T, error) {
	var entity T
	entities, err := r.source.Query(ctx).Filter(Eq("ID", id)).Take(1).List(ctx)
	if err != nil {
		return entity, err
	}
	if len(entities) == 0 {
		return entity, fmt.Errorf("%w: %s[%v]", NotFoundError, r.entityType, id)
	}
	return entities[0], nil
}

func (r *SpecRepository[T, ID]) ListAll(ctx context.Context) ([]T, error) {
	return r.source.Query(ctx).List(ctx)
}

func (r *SpecRepository[T, ID]) List(ctx context.Context, spec *Specification[T]) ([]T, error) {
	logrus.Debugf("SpecRepository[%s].List", r.entityType)
	return Evaluate(r.source.Query(ctx), spec).List(ctx)
}

func (r *SpecRepository[T, ID]) ListWhere(ctx context.Context, criteria Criteria) ([]T, error) {
	if err := criteria.Validate(r.entityType); err != nil {
		return nil, err
	}
	return r.source.Query(ctx).Filter(criteria).List(ctx)
}

func (r *SpecRepository[T, ID]) FirstOrDefault(ctx context.Context, spec *Specification[T]) (T, bool, error) {
	var entity T
	entities, err := Evaluate(r.source.Query(ctx), spec).Take(1).List(ctx)
	if err != nil || len(entities) == 0 {
		return entity, false, err
	}
	return entities[0], true, nil
}

func (r *SpecRepository[T, ID]) First(ctx context.Context, spec *Specification[T]) (T, error) {
	entity, ok, err := r.FirstOrDefault(ctx, spec)
	if err != nil {
		return entity, err
	}
	if !ok {
		return entity, fmt.Errorf("%w: First on %s matched no entity", CardinalityError, r.entityType)
	}
	return entity, nil
}

func (r *SpecRepository[T, ID]) Single(ctx context.Context, spec *Specification[T]) (T, error) {
	entity, ok, err := r.SingleOrDefault(ctx, spec)
	if err != nil {
		return entity, err
	}
	if !ok {
		return entity, fmt.Errorf("%w: Single on %s matched no entity", CardinalityError, r.entityType)
	}
	return entity, nil
}

func (r *SpecRepository[T, ID]) SingleOrDefault(ctx context.Context, spec *Specification[T]) (T, bool, error) {
	var entity T
	entities, err := Evaluate(r.source.Query(ctx), spec).Take(2).List(ctx)
	if err != nil {
		return entity, false, err
	}
	switch len(entities) {
	case 0:
		return entity, false, nil
	case 1:
		return entities[0], true, nil
	default:
		return entity, false, fmt.Errorf("%w: Single on %s matched more than one entity", CardinalityError, r.entityType)
	}
}

func (r *SpecRepository[T, ID]) Count(ctx context.Context, spec *Specification[T]) (int64, error) {
	return EvaluateCriteria(r.source.Query(ctx), spec).Count(ctx)
}

func (r *SpecRepository[T, ID]) Any(ctx context.Context, spec *Specification[T]) (bool, error) {
	entities, err := Evaluate(r.source.Query(ctx), spec).Take(1).List(ctx)
	if err != nil {
		return false, err
	}
	return len(entities) > 0, nil
}

func (r *SpecRepository[T, ID]) Page(ctx context.Context, spec *Specification[T], pageNumber, pageSize int) (*PagedResult[T], error) {
	if err := validatePage(pageNumber, pageSize); err != nil {
		return nil, err
	}
	total, err := r.Count(ctx, spec)
	if err != nil {
		return nil, err
	}
	unpaged := spec
	if spec != nil && spec.paging {
		unpaged = spec.clone()
		unpaged.paging, unpaged.skip, unpaged.take = false, 0, 0
	}
	query := Paginate(Evaluate(r.source.Query(ctx), unpaged), (pageNumber-1)*pageSize, pageSize)
	items, err := query.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewPagedResult(items, int(total), pageNumber, pageSize)
}

func (r *SpecRepository[T, ID]) Add(ctx context.Context, entity T) (T, error) {
	added, err := r.AddRange(ctx, []T{entity})
	if err != nil {
		return entity, err
	}
	return added[0], nil
}

// AddRange inserts entities as one batch. Inside a unit of work the returned slice holds the
// staged entities, which are stamped and written back in place at SaveChanges.
func (r *SpecRepository[T, ID]) AddRange(ctx context.Context, entities []T) ([]T, error) {
	if len(entities) == 0 {
		return []T{}, nil
	}
	batch := make([]T, len(entities))
	copy(batch, entities)
	if r.idGenerator != nil {
		for i := range batch {
			if isZeroID(batch[i].GetID()) {
				setID(&batch[i], r.idGenerator())
			}
		}
	}
	return batch, r.write(ctx, Added, batch, func(ctx context.Context) (int64, error) {
		return r.source.Insert(ctx, batch)
	})
}

func (r *SpecRepository[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	updated, err := r.UpdateRange(ctx, []T{entity})
	if err != nil {
		return entity, err
	}
	return updated[0], nil
}

func (r *SpecRepository[T, ID]) UpdateRange(ctx context.Context, entities []T) ([]T, error) {
	if len(entities) == 0 {
		return []T{}, nil
	}
	batch := make([]T, len(entities))
	copy(batch, entities)
	return batch, r.write(ctx, Modified, batch, func(ctx context.Context) (int64, error) {
		return r.source.Update(ctx, batch)
	})
}

func (r *SpecRepository[T, ID]) Delete(ctx context.Context, entity T) error {
	return r.DeleteByID(ctx, entity.GetID())
}

func (r *SpecRepository[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	return r.deleteIDs(ctx, []ID{id})
}

func (r *SpecRepository[T, ID]) DeleteRange(ctx context.Context, entities []T) error {
	ids := make([]ID, 0, len(entities))
	for _, entity := range entities {
		ids = append(ids, entity.GetID())
	}
	return r.deleteIDs(ctx, ids)
}

func (r *SpecRepository[T, ID]) deleteIDs(ctx context.Context, ids []ID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.write(ctx, Deleted, []T(nil), func(ctx context.Context) (int64, error) {
		return r.source.Delete(ctx, ids)
	})
}

func (r *SpecRepository[T, ID]) DeleteWhere(ctx context.Context, criteria Criteria) (int64, error) {
	if err := criteria.Validate(r.entityType); err != nil {
		return 0, err
	}
	var deleted int64
	err := r.write(ctx, Deleted, []T(nil), func(ctx context.Context) (int64, error) {
		n, err := r.source.DeleteWhere(ctx, criteria)
		deleted = n
		return n, err
	})
	return deleted, err
}

// write stamps and applies batch now, or stages both steps in the unit of work.
func (r *SpecRepository[T, ID]) write(ctx context.Context, state ChangeState, batch []T, apply func(ctx context.Context) (int64, error)) error {
	stamp := func(now time.Time, principal string) {
		for i := range batch {
			Stamp(now, principal, state, &batch[i])
		}
	}
	if r.unitOfWork != nil {
		logrus.Debugf("SpecRepository[%s].write: staging %s change of %d entities", r.entityType, state, len(batch))
		r.unitOfWork.stage(change{entityType: r.entityType, state: state, stamp: stamp, apply: apply})
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	stamp(r.clock(), PrincipalFrom(ctx))
	_, err := apply(ctx)
	return err
}
