package data_test

import (
	"reflect"
	"testing"

	"github.com/reuben-baek/go-data/data"
	"github.com/stretchr/testify/assert"
)

func TestCriteria_Match(t *testing.T) {
	item := Item{Model: data.Model[int]{ID: 1}, Name: "keyboard", Price: 30}

	tests := []struct {
		name     string
		criteria data.Criteria
		want     bool
	}{
		{"eq", data.Eq("Name", "keyboard"), true},
		{"ne", data.Ne("Name", "keyboard"), false},
		{"gt", data.Gt("Price", 20), true},
		{"gte", data.Gte("Price", 30), true},
		{"lt", data.Lt("Price", 30), false},
		{"lte", data.Lte("Price", 30.0), true},
		{"in", data.In("ID", 3, 2, 1), true},
		{"not in", data.In("ID", 3, 2), false},
		{"contains", data.Contains("Name", "board"), true},
		{"is null", data.IsNull("Category"), true},
		{"nested on nil", data.Eq("Category.Title", "input"), false},
		{"ne on nil", data.Ne("Category.Title", "input"), true},
		{"contains is case sensitive", data.Contains("Name", "Board"), false},
		{"and", data.And(data.Eq("Name", "keyboard"), data.Gt("Price", 40)), false},
		{"or", data.Or(data.Eq("Name", "mouse"), data.Gt("Price", 20)), true},
		{"not", data.Not(data.Eq("Name", "mouse")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.criteria.Match(item)
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCriteria_Validate(t *testing.T) {
	itemType := reflect.TypeOf(Item{})

	assert.Nil(t, data.And(data.Eq("Category.Title", "input"), data.Not(data.IsNull("Name"))).Validate(itemType))
	assert.ErrorIs(t, data.Not(data.Criteria{Op: data.OpAnd}).Validate(itemType), data.InvalidArgumentError)
	assert.ErrorIs(t, data.Criteria{Op: "like", Field: "Name"}.Validate(itemType), data.InvalidArgumentError)
	assert.ErrorIs(t, data.Criteria{Op: data.OpIn, Field: "ID", Value: 1}.Validate(itemType), data.InvalidArgumentError)
}

func TestCriteria_String(t *testing.T) {
	criteria := data.Or(data.Eq("Name", "a"), data.Not(data.IsNull("Category")))
	assert.Equal(t, "(Name eq a or not Category is null)", criteria.String())
}
