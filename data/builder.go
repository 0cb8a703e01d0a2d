package data

import (
	"fmt"
	"reflect"
)

// SpecificationBuilder constructs a Specification step by step. Every step returns the builder so
// calls chain; the first invalid step is remembered and reported by Build.
type SpecificationBuilder[T any] struct {
	entityType reflect.Type
	spec       Specification[T]
	err        error
}

func NewSpecification[T any]() *SpecificationBuilder[T] {
	return &SpecificationBuilder[T]{entityType: typeOf[T]()}
}

// Where sets the filter. A second call combines both filters with And.
func (b *SpecificationBuilder[T]) Where(criteria Criteria) *SpecificationBuilder[T] {
	if err := criteria.Validate(b.entityType); err != nil {
		b.fail(err)
		return b
	}
	if b.spec.criteria == nil {
		b.spec.criteria = &criteria
	} else {
		combined := And(*b.spec.criteria, criteria)
		b.spec.criteria = &combined
	}
	return b
}

func (b *SpecificationBuilder[T]) Include(path string) *SpecificationBuilder[T] {
	if _, err := ResolvePath(b.entityType, path, true); err != nil {
		b.fail(err)
		return b
	}
	b.spec.includes = append(b.spec.includes, path)
	return b
}

// Page enables paging. The latest call wins.
func (b *SpecificationBuilder[T]) Page(skip, take int) *SpecificationBuilder[T] {
	if skip < 0 || take < 0 {
		b.fail(fmt.Errorf("%w: negative paging skip=%d take=%d", InvalidArgumentError, skip, take))
		return b
	}
	b.spec.skip = skip
	b.spec.take = take
	b.spec.paging = true
	return b
}

// OrderBy appends an ascending sort key.
func (b *SpecificationBuilder[T]) OrderBy(field string) *SpecificationBuilder[T] {
	return b.order(field, false)
}

// OrderByDescending appends a descending sort key.
func (b *SpecificationBuilder[T]) OrderByDescending(field string) *SpecificationBuilder[T] {
	return b.order(field, true)
}

func (b *SpecificationBuilder[T]) order(field string, descending bool) *SpecificationBuilder[T] {
	if _, err := ResolvePath(b.entityType, field, false); err != nil {
		b.fail(err)
		return b
	}
	b.spec.orders = append(b.spec.orders, Order{Field: field, Descending: descending})
	return b
}

func (b *SpecificationBuilder[T]) GroupBy(field string) *SpecificationBuilder[T] {
	if _, err := ResolvePath(b.entityType, field, false); err != nil {
		b.fail(err)
		return b
	}
	b.spec.groupBy = field
	return b
}

func (b *SpecificationBuilder[T]) AsNoTracking() *SpecificationBuilder[T] {
	b.spec.asNoTracking = true
	return b
}

// Build returns a detached copy: later builder calls do not affect it.
func (b *SpecificationBuilder[T]) Build() (*Specification[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.spec.clone(), nil
}

func (b *SpecificationBuilder[T]) MustBuild() *Specification[T] {
	spec, err := b.Build()
	if err != nil {
		panic(err)
	}
	return spec
}

func (b *SpecificationBuilder[T]) fail(err error) {
	if b.err == nil {
		b.err = fmt.Errorf("SpecificationBuilder[%s]: %w", b.entityType, err)
	}
}
