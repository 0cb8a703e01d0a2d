package mongodata

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm/schema"
)

// CollectionNamer overrides the collection an entity is stored in.
type CollectionNamer interface {
	CollectionName() string
}

// CollectionName is the collection model is stored in: CollectionName() when model has it,
// else the snake-cased plural of its type name, as gorm names tables.
func CollectionName(model any) string {
	if namer, ok := model.(CollectionNamer); ok {
		return namer.CollectionName()
	}
	return schema.NamingStrategy{}.TableName(derefType(reflect.TypeOf(model)).Name())
}

// Source stores entities of type T as documents keyed by _id.
type Source[T data.Entity[ID], ID comparable] struct {
	collection *mongo.Collection
	entityType reflect.Type
}

func NewSource[T data.Entity[ID], ID comparable](provider *Provider) *Source[T, ID] {
	return NewSourceOf[T, ID](provider.database)
}

// NewSourceOf builds a Source over the collection database holds for T.
func NewSourceOf[T data.Entity[ID], ID comparable](database *mongo.Database) *Source[T, ID] {
	var zero T
	return &Source[T, ID]{
		collection: database.Collection(CollectionName(&zero)),
		entityType: reflect.TypeOf((*T)(nil)).Elem(),
	}
}

func NewRepository[T data.Entity[ID], ID comparable](provider *Provider, opts ...data.Option) *data.SpecRepository[T, ID] {
	return data.NewRepository[T, ID](NewSource[T, ID](provider), opts...)
}

func (s *Source[T, ID]) Collection() *mongo.Collection {
	return s.collection
}

func (s *Source[T, ID]) Query(ctx context.Context) data.Queryable[T] {
	return NewQueryable[T](s.collection)
}

// Insert writes entities in order. A zero ObjectID key gets a new one, any other zero key
// is rejected.
func (s *Source[T, ID]) Insert(ctx context.Context, entities []T) (int64, error) {
	documents := make([]any, 0, len(entities))
	for i := range entities {
		if err := s.assignKey(&entities[i]); err != nil {
			return 0, err
		}
		documents = append(documents, entities[i])
	}
	result, err := s.collection.InsertMany(ctx, documents)
	if err != nil {
		return 0, translateError(err)
	}
	logrus.Debugf("mongodata.Source[%s].Insert: [%d] documents", s.entityType, len(result.InsertedIDs))
	return int64(len(result.InsertedIDs)), nil
}

func (s *Source[T, ID]) assignKey(entity *T) error {
	var zero ID
	if (*entity).GetID() != zero {
		return nil
	}
	if _, ok := any(zero).(primitive.ObjectID); !ok {
		return fmt.Errorf("%w: %s needs a key before insert", data.InvalidArgumentError, s.entityType)
	}
	value := reflect.ValueOf(entity).Elem()
	for value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	value.FieldByName("ID").Set(reflect.ValueOf(primitive.NewObjectID()))
	return nil
}

// Update replaces each document. Every key is checked first, so an absent key writes nothing.
func (s *Source[T, ID]) Update(ctx context.Context, entities []T) (int64, error) {
	ids := make([]ID, 0, len(entities))
	for _, entity := range entities {
		ids = append(ids, entity.GetID())
	}
	if err := s.requireAll(ctx, ids); err != nil {
		return 0, err
	}
	var affected int64
	for _, entity := range entities {
		result, err := s.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: entity.GetID()}}, entity)
		if err != nil {
			return affected, translateError(err)
		}
		if result.MatchedCount == 0 {
			return affected, fmt.Errorf("%w: %s[%v]", data.NotFoundError, s.entityType, entity.GetID())
		}
		affected++
	}
	return affected, nil
}

func (s *Source[T, ID]) Delete(ctx context.Context, ids []ID) (int64, error) {
	if err := s.requireAll(ctx, ids); err != nil {
		return 0, err
	}
	result, err := s.collection.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: unique(ids)}}}})
	if err != nil {
		return 0, translateError(err)
	}
	return result.DeletedCount, nil
}

func (s *Source[T, ID]) DeleteWhere(ctx context.Context, criteria data.Criteria) (int64, error) {
	filter, err := Filter(s.entityType, criteria)
	if err != nil {
		return 0, err
	}
	result, err := s.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, translateError(err)
	}
	logrus.Debugf("mongodata.Source[%s].DeleteWhere: [%s] deleted [%d]", s.entityType, criteria, result.DeletedCount)
	return result.DeletedCount, nil
}

func (s *Source[T, ID]) requireAll(ctx context.Context, ids []ID) error {
	keys := unique(ids)
	count, err := s.collection.CountDocuments(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: keys}}}})
	if err != nil {
		return translateError(err)
	}
	if count != int64(len(keys)) {
		return fmt.Errorf("%w: %s found [%d] of %v", data.NotFoundError, s.entityType, count, keys)
	}
	return nil
}

func unique[ID comparable](ids []ID) bson.A {
	keys := make(bson.A, 0, len(ids))
	seen := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			keys = append(keys, id)
		}
	}
	return keys
}

func translateError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %v", data.NotFoundError, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", data.DuplicateKeyError, err)
	}
	return err
}
