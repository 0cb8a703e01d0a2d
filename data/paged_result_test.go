package data_test

import (
	"math"
	"testing"

	"github.com/reuben-baek/go-data/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagedResult(t *testing.T) {
	t.Run("pages", func(t *testing.T) {
		tests := []struct {
			total, page, size int
			pages             int
			previous, next    bool
		}{
			{total: 25, page: 1, size: 10, pages: 3, previous: false, next: true},
			{total: 25, page: 3, size: 10, pages: 3, previous: true, next: false},
			{total: 20, page: 2, size: 10, pages: 2, previous: true, next: false},
			{total: 0, page: 1, size: 10, pages: 0, previous: false, next: false},
			{total: 1, page: 1, size: 1, pages: 1, previous: false, next: false},
		}
		for _, tt := range tests {
			result, err := data.NewPagedResult[int](nil, tt.total, tt.page, tt.size)
			require.Nil(t, err)
			assert.Equal(t, tt.pages, result.TotalPages(), "%+v", tt)
			assert.Equal(t, tt.previous, result.HasPrevious(), "%+v", tt)
			assert.Equal(t, tt.next, result.HasNext(), "%+v", tt)
			assert.NotNil(t, result.Items)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := data.NewPagedResult([]int{1}, 1, 0, 10)
		assert.ErrorIs(t, err, data.InvalidArgumentError)
		_, err = data.NewPagedResult([]int{1}, 1, 1, 0)
		assert.ErrorIs(t, err, data.InvalidArgumentError)
		_, err = data.NewPagedResult([]int{1}, -1, 1, 10)
		assert.ErrorIs(t, err, data.InvalidArgumentError)
		_, err = data.NewPagedResult([]int{1}, 1, math.MaxInt/2, 10)
		assert.ErrorContains(t, err, "largest offset")
	})

	t.Run("largest page count", func(t *testing.T) {
		result, err := data.NewPagedResult[int](nil, math.MaxInt, 1, 2)
		require.Nil(t, err)
		assert.Equal(t, math.MaxInt/2+1, result.TotalPages())
	})

	t.Run("zero page size has no pages", func(t *testing.T) {
		result := data.PagedResult[int]{PageNumber: 1, TotalCount: 5}
		assert.Equal(t, 0, result.TotalPages())
		assert.False(t, result.HasNext())
	})
}
