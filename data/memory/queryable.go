package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
)

type stepKind int

const (
	filterStep stepKind = iota
	sortStep
	groupStep
	skipStep
	takeStep
)

type step struct {
	kind     stepKind
	criteria data.Criteria
	orders   []data.Order
	n        int
}

// Queryable evaluates lazily over a slice: steps are recorded and run by List.
type Queryable[T any] struct {
	load       func(ctx context.Context) ([]T, error)
	steps      []step
	includes   []string
	noTracking bool
}

func NewQueryable[T any](load func(ctx context.Context) ([]T, error)) *Queryable[T] {
	return &Queryable[T]{load: load}
}

// FromSlice returns a Queryable over a fixed slice.
func FromSlice[T any](items []T) *Queryable[T] {
	items = slices.Clone(items)
	return NewQueryable(func(ctx context.Context) ([]T, error) {
		return slices.Clone(items), ctx.Err()
	})
}

func (q *Queryable[T]) with(s step) *Queryable[T] {
	next := *q
	next.steps = append(slices.Clone(q.steps), s)
	return &next
}

func (q *Queryable[T]) Filter(criteria data.Criteria) data.Queryable[T] {
	return q.with(step{kind: filterStep, criteria: criteria})
}

// Include is recorded only: in-memory entities already hold their related objects.
func (q *Queryable[T]) Include(path string) data.Queryable[T] {
	next := *q
	next.includes = append(slices.Clone(q.includes), path)
	return &next
}

func (q *Queryable[T]) SortBy(field string, descending bool) data.Queryable[T] {
	order := data.Order{Field: field, Descending: descending}
	if n := len(q.steps); n > 0 && q.steps[n-1].kind == sortStep {
		next := *q
		next.steps = slices.Clone(q.steps)
		last := next.steps[n-1]
		last.orders = append(slices.Clone(last.orders), order)
		next.steps[n-1] = last
		return &next
	}
	return q.with(step{kind: sortStep, orders: []data.Order{order}})
}

func (q *Queryable[T]) GroupBy(field string) data.Queryable[T] {
	return q.with(step{kind: groupStep, orders: []data.Order{{Field: field}}})
}

func (q *Queryable[T]) Skip(n int) data.Queryable[T] {
	return q.with(step{kind: skipStep, n: n})
}

func (q *Queryable[T]) Take(n int) data.Queryable[T] {
	return q.with(step{kind: takeStep, n: n})
}

func (q *Queryable[T]) AsNoTracking() data.Queryable[T] {
	next := *q
	next.noTracking = true
	return &next
}

func (q *Queryable[T]) List(ctx context.Context) ([]T, error) {
	items, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(q.includes) > 0 {
		logrus.Debugf("memory.Queryable.List: includes %v are held by the entities already", q.includes)
	}
	for _, s := range q.steps {
		if items, err = runStep(s, items); err != nil {
			return nil, err
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (q *Queryable[T]) Count(ctx context.Context) (int64, error) {
	items, err := q.List(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}

func runStep[T any](s step, items []T) ([]T, error) {
	switch s.kind {
	case filterStep:
		matched := make([]T, 0, len(items))
		for _, item := range items {
			ok, err := s.criteria.Match(item)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = append(matched, item)
			}
		}
		return matched, nil
	case sortStep, groupStep:
		return sortStable(items, s.orders)
	case skipStep:
		if s.n < 0 {
			return nil, fmt.Errorf("%w: negative skip %d", data.InvalidArgumentError, s.n)
		}
		if s.n >= len(items) {
			return items[:0], nil
		}
		return items[s.n:], nil
	case takeStep:
		if s.n < 0 {
			return nil, fmt.Errorf("%w: negative take %d", data.InvalidArgumentError, s.n)
		}
		if s.n < len(items) {
			return items[:s.n], nil
		}
		return items, nil
	}
	return items, nil
}

// sortStable sorts by orders, first order primary. Equal elements keep their relative order,
// which is what lets grouping preserve the order inside each group.
func sortStable[T any](items []T, orders []data.Order) ([]T, error) {
	sorted := slices.Clone(items)
	var sortErr error
	sort.SliceStable(sorted, func(i, j int) bool {
		for _, order := range orders {
			a, err := data.FieldValue(sorted[i], order.Field)
			if err != nil {
				sortErr = err
				return false
			}
			b, err := data.FieldValue(sorted[j], order.Field)
			if err != nil {
				sortErr = err
				return false
			}
			cmp, err := data.Compare(a, b)
			if err != nil {
				sortErr = err
				return false
			}
			if cmp == 0 {
				continue
			}
			if order.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return sorted, nil
}
