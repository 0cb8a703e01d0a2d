package data

import (
	"fmt"
	"math"
)

// PagedResult is one page of a larger result set.
type PagedResult[T any] struct {
	PageNumber int
	PageSize   int
	TotalCount int
	Items      []T
}

func NewPagedResult[T any](items []T, totalCount, pageNumber, pageSize int) (*PagedResult[T], error) {
	if err := validatePage(pageNumber, pageSize); err != nil {
		return nil, err
	}
	if totalCount < 0 {
		return nil, fmt.Errorf("%w: negative total count %d", InvalidArgumentError, totalCount)
	}
	if items == nil {
		items = []T{}
	}
	return &PagedResult[T]{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalCount: totalCount,
		Items:      items,
	}, nil
}

// TotalPages is ceil(TotalCount / PageSize). A PagedResult not built by NewPagedResult with a
// non-positive PageSize has no pages.
func (p *PagedResult[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	pages := p.TotalCount / p.PageSize
	if p.TotalCount%p.PageSize > 0 {
		pages++
	}
	return pages
}

func (p *PagedResult[T]) HasPrevious() bool {
	return p.PageNumber > 1
}

func (p *PagedResult[T]) HasNext() bool {
	return p.PageNumber < p.TotalPages()
}

func validatePage(pageNumber, pageSize int) error {
	if pageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", InvalidArgumentError, pageSize)
	}
	if pageNumber < 1 {
		return fmt.Errorf("%w: page number must be at least 1, got %d", InvalidArgumentError, pageNumber)
	}
	if pageNumber-1 > math.MaxInt/pageSize {
		return fmt.Errorf("%w: page %d of size %d starts beyond the largest offset", InvalidArgumentError, pageNumber, pageSize)
	}
	return nil
}
