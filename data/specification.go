package data

import "slices"

// Order is one sort key of a specification. The first order of a specification is the primary key.
type Order struct {
	Field      string
	Descending bool
}

// Specification describes, without executing, how to narrow and shape a collection of T.
// It is built by SpecificationBuilder and never changes afterwards.
type Specification[T any] struct {
	criteria     *Criteria
	includes     []string
	orders       []Order
	groupBy      string
	skip         int
	take         int
	paging       bool
	asNoTracking bool
}

// Criteria returns the filter, or nil when every entity matches.
func (s *Specification[T]) Criteria() *Criteria {
	if s.criteria == nil {
		return nil
	}
	c := s.criteria.clone()
	return &c
}

// Includes returns the related-object paths to load eagerly, in insertion order.
func (s *Specification[T]) Includes() []string {
	return slices.Clone(s.includes)
}

func (s *Specification[T]) Orders() []Order {
	return slices.Clone(s.orders)
}

// GroupBy returns the grouping field path, or "" when results are not grouped.
func (s *Specification[T]) GroupBy() string {
	return s.groupBy
}

func (s *Specification[T]) Paging() (skip int, take int, enabled bool) {
	return s.skip, s.take, s.paging
}

func (s *Specification[T]) AsNoTracking() bool {
	return s.asNoTracking
}

func (s *Specification[T]) clone() *Specification[T] {
	c := *s
	if s.criteria != nil {
		criteria := s.criteria.clone()
		c.criteria = &criteria
	}
	c.includes = slices.Clone(s.includes)
	c.orders = slices.Clone(s.orders)
	return &c
}
