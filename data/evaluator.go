package data

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Queryable is the minimal capability a backend offers the evaluator. Every method except the
// terminals List and Count returns a new Queryable and performs no I/O.
//
// SortBy called repeatedly adds secondary keys. GroupBy re-sorts by the group key, keeping the
// previous order inside each group. Skip and Take compose in call order. Filter, Include and
// SortBy are only meaningful before Skip and Take.
type Queryable[T any] interface {
	Filter(criteria Criteria) Queryable[T]
	Include(path string) Queryable[T]
	SortBy(field string, descending bool) Queryable[T]
	GroupBy(field string) Queryable[T]
	Skip(n int) Queryable[T]
	Take(n int) Queryable[T]
	AsNoTracking() Queryable[T]

	List(ctx context.Context) ([]T, error)
	Count(ctx context.Context) (int64, error)
}

// Evaluate applies spec to query: criteria, includes, ordering, grouping, paging, tracking hint.
// The order matters because those steps do not commute. A nil spec leaves query unchanged.
func Evaluate[T any](query Queryable[T], spec *Specification[T]) Queryable[T] {
	if spec == nil {
		return query
	}
	logrus.Debugf("Evaluate: criteria [%v] includes %v orders %+v groupBy [%s] paging [%v %d/%d] noTracking [%v]",
		spec.criteria, spec.includes, spec.orders, spec.groupBy, spec.paging, spec.skip, spec.take, spec.asNoTracking)

	query = EvaluateCriteria(query, spec)
	for _, include := range spec.includes {
		query = query.Include(include)
	}
	for _, order := range spec.orders {
		query = query.SortBy(order.Field, order.Descending)
	}
	if spec.groupBy != "" {
		query = query.GroupBy(spec.groupBy)
	}
	if spec.paging {
		query = Paginate(query, spec.skip, spec.take)
	}
	if spec.asNoTracking {
		query = query.AsNoTracking()
	}
	return query
}

// EvaluateCriteria applies only the filter of spec, as counting does.
func EvaluateCriteria[T any](query Queryable[T], spec *Specification[T]) Queryable[T] {
	if spec == nil || spec.criteria == nil {
		return query
	}
	return query.Filter(*spec.criteria)
}

func Paginate[T any](query Queryable[T], skip, take int) Queryable[T] {
	return query.Skip(skip).Take(take)
}
