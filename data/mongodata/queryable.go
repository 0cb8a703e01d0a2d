package mongodata

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Queryable collects the query shape and sends it to the collection in List and Count.
// Grouping is a leading sort key. Includes are ignored: related documents are embedded.
type Queryable[T any] struct {
	collection *mongo.Collection
	entityType reflect.Type
	criteria   []data.Criteria
	orders     []data.Order
	skip       int64
	limit      int64
	noTracking bool
	err        error
}

func NewQueryable[T any](collection *mongo.Collection) *Queryable[T] {
	return &Queryable[T]{
		collection: collection,
		entityType: reflect.TypeOf((*T)(nil)).Elem(),
		limit:      -1,
	}
}

func (q *Queryable[T]) clone() *Queryable[T] {
	next := *q
	next.criteria = slices.Clone(q.criteria)
	next.orders = slices.Clone(q.orders)
	return &next
}

func (q *Queryable[T]) Filter(criteria data.Criteria) data.Queryable[T] {
	next := q.clone()
	next.criteria = append(next.criteria, criteria)
	return next
}

func (q *Queryable[T]) Include(path string) data.Queryable[T] {
	logrus.Debugf("mongodata.Queryable[%s].Include: [%s] is embedded", q.entityType, path)
	return q.clone()
}

func (q *Queryable[T]) SortBy(field string, descending bool) data.Queryable[T] {
	next := q.clone()
	next.orders = append(next.orders, data.Order{Field: field, Descending: descending})
	return next
}

func (q *Queryable[T]) GroupBy(field string) data.Queryable[T] {
	next := q.clone()
	next.orders = append([]data.Order{{Field: field}}, next.orders...)
	return next
}

func (q *Queryable[T]) Skip(n int) data.Queryable[T] {
	next := q.clone()
	if n < 0 {
		next.fail(fmt.Errorf("%w: negative skip %d", data.InvalidArgumentError, n))
		return next
	}
	next.skip += int64(n)
	if next.limit >= 0 {
		next.limit = max(next.limit-int64(n), 0)
	}
	return next
}

func (q *Queryable[T]) Take(n int) data.Queryable[T] {
	next := q.clone()
	if n < 0 {
		next.fail(fmt.Errorf("%w: negative take %d", data.InvalidArgumentError, n))
		return next
	}
	if next.limit < 0 || int64(n) < next.limit {
		next.limit = int64(n)
	}
	return next
}

func (q *Queryable[T]) AsNoTracking() data.Queryable[T] {
	next := q.clone()
	next.noTracking = true
	return next
}

// List decodes the matching documents. A limit of zero means no limit to the server,
// so an empty page is answered here.
func (q *Queryable[T]) List(ctx context.Context) ([]T, error) {
	if q.err != nil {
		return nil, q.err
	}
	entities := []T{}
	if q.limit == 0 {
		return entities, nil
	}
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}
	sort, err := sortDocument(q.entityType, q.orders)
	if err != nil {
		return nil, err
	}
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if q.skip > 0 {
		opts.SetSkip(q.skip)
	}
	if q.limit > 0 {
		opts.SetLimit(q.limit)
	}
	logrus.Debugf("mongodata.Queryable[%s].List: filter %v sort %v skip [%d] limit [%d]", q.entityType, filter, sort, q.skip, q.limit)
	cursor, err := q.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateError(err)
	}
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, translateError(err)
	}
	return entities, nil
}

func (q *Queryable[T]) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if q.limit == 0 {
		return 0, nil
	}
	filter, err := q.filter()
	if err != nil {
		return 0, err
	}
	opts := options.Count()
	if q.skip > 0 {
		opts.SetSkip(q.skip)
	}
	if q.limit > 0 {
		opts.SetLimit(q.limit)
	}
	count, err := q.collection.CountDocuments(ctx, filter, opts)
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (q *Queryable[T]) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func (q *Queryable[T]) filter() (bson.D, error) {
	switch len(q.criteria) {
	case 0:
		return bson.D{}, nil
	case 1:
		return Filter(q.entityType, q.criteria[0])
	}
	return Filter(q.entityType, data.And(q.criteria...))
}
