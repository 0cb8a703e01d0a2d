package mongodata_test

import (
	"reflect"
	"testing"

	"github.com/reuben-baek/go-data/data"
	"github.com/reuben-baek/go-data/data/mongodata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Author struct {
	Name string
}

type Chapter struct {
	Label string `bson:"label"`
}

type Book struct {
	data.Model[string] `bson:",inline"`
	data.AuditFields   `bson:",inline"`
	Title              string `bson:"title"`
	Pages              int
	Author             *Author   `bson:"author,omitempty"`
	Chapters           []Chapter `bson:"chapters"`
	Draft              string    `bson:"-"`
}

type Shelf struct {
	data.Model[int] `bson:",inline"`
}

func (Shelf) CollectionName() string {
	return "library_shelves"
}

var bookType = reflect.TypeOf(Book{})

func TestFieldKey(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"ID", "_id"},
		{"CreatedBy", "createdBy"},
		{"Title", "title"},
		{"Pages", "pages"},
		{"Author.Name", "author.name"},
		{"Chapters.Label", "chapters.label"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			key, err := mongodata.FieldKey(bookType, tt.path)
			require.Nil(t, err)
			assert.Equal(t, tt.want, key)
		})
	}

	t.Run("not stored", func(t *testing.T) {
		_, err := mongodata.FieldKey(bookType, "Draft")
		assert.ErrorIs(t, err, data.InvalidArgumentError)
	})
	t.Run("unknown", func(t *testing.T) {
		_, err := mongodata.FieldKey(bookType, "Author.Age")
		assert.ErrorIs(t, err, data.InvalidArgumentError)
	})
	t.Run("through a scalar", func(t *testing.T) {
		_, err := mongodata.FieldKey(bookType, "Title.Length")
		assert.ErrorIs(t, err, data.InvalidArgumentError)
	})
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria data.Criteria
		want     bson.D
	}{
		{"eq", data.Eq("Title", "go"), bson.D{{Key: "title", Value: bson.D{{Key: "$eq", Value: "go"}}}}},
		{"ne", data.Ne("Pages", 1), bson.D{{Key: "pages", Value: bson.D{{Key: "$ne", Value: 1}}}}},
		{"gte", data.Gte("Pages", 100), bson.D{{Key: "pages", Value: bson.D{{Key: "$gte", Value: 100}}}}},
		{"in", data.In("ID", "a", "b"), bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{"a", "b"}}}}}},
		{"contains quotes the pattern", data.Contains("Title", "c++"),
			bson.D{{Key: "title", Value: bson.D{{Key: "$regex", Value: primitive.Regex{Pattern: `c\+\+`}}}}}},
		{"is null", data.IsNull("Author.Name"), bson.D{{Key: "author.name", Value: nil}}},
		{"not", data.Not(data.Lt("Pages", 10)),
			bson.D{{Key: "$nor", Value: bson.A{bson.D{{Key: "pages", Value: bson.D{{Key: "$lt", Value: 10}}}}}}}},
		{"and or", data.And(data.Eq("Title", "go"), data.Or(data.Gt("Pages", 1), data.Lte("Pages", 0))),
			bson.D{{Key: "$and", Value: bson.A{
				bson.D{{Key: "title", Value: bson.D{{Key: "$eq", Value: "go"}}}},
				bson.D{{Key: "$or", Value: bson.A{
					bson.D{{Key: "pages", Value: bson.D{{Key: "$gt", Value: 1}}}},
					bson.D{{Key: "pages", Value: bson.D{{Key: "$lte", Value: 0}}}},
				}}},
			}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := mongodata.Filter(bookType, tt.criteria)
			require.Nil(t, err)
			assert.Equal(t, tt.want, filter)
		})
	}

	t.Run("empty and", func(t *testing.T) {
		_, err := mongodata.Filter(bookType, data.And())
		assert.ErrorIs(t, err, data.InvalidArgumentError)
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := mongodata.Filter(bookType, data.Eq("Publisher", "x"))
		assert.ErrorIs(t, err, data.InvalidArgumentError)
	})
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "books", mongodata.CollectionName(&Book{}))
	assert.Equal(t, "library_shelves", mongodata.CollectionName(Shelf{}))
	assert.Equal(t, "library_shelves", mongodata.CollectionName(&Shelf{}))
}
