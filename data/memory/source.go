package memory

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
)

// Source stores entities of type T in a Database table.
type Source[T data.Entity[ID], ID comparable] struct {
	database           *Database
	transactionManager *TransactionManager
	entityType         reflect.Type
}

func NewSource[T data.Entity[ID], ID comparable](database *Database) *Source[T, ID] {
	return &Source[T, ID]{
		database:           database,
		transactionManager: NewTransactionManager(database),
		entityType:         reflect.TypeOf((*T)(nil)).Elem(),
	}
}

// NewRepository is a shortcut for a data.SpecRepository over a Source of database.
func NewRepository[T data.Entity[ID], ID comparable](database *Database, opts ...data.Option) *data.SpecRepository[T, ID] {
	return data.NewRepository[T, ID](NewSource[T, ID](database), opts...)
}

func (s *Source[T, ID]) Query(ctx context.Context) data.Queryable[T] {
	return NewQueryable(func(ctx context.Context) ([]T, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.database.mu.RLock()
		defer s.database.mu.RUnlock()
		rows := s.database.rows(s.entityType)
		entities := make([]T, 0, len(rows))
		for _, row := range rows {
			entities = append(entities, row.(T))
		}
		return entities, nil
	})
}

// Insert stores entities. Zero integer keys are assigned from the table sequence, which never
// falls behind an explicit integer key; other zero keys are rejected.
func (s *Source[T, ID]) Insert(ctx context.Context, entities []T) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	transaction := s.transactionManager.Get(ctx)
	logrus.Debugf("memory.Source[%s].Insert: transaction [%v] entities [%d]", s.entityType, transaction, len(entities))

	s.database.mu.Lock()
	defer s.database.mu.Unlock()
	t := s.database.table(s.entityType)

	seen := make(map[ID]bool, len(entities))
	for i := range entities {
		id := entities[i].GetID()
		var zero ID
		if id == zero {
			if !isIntegerKey(id) {
				return 0, fmt.Errorf("%w: %s without key", data.InvalidArgumentError, s.entityType)
			}
			continue
		}
		if _, ok := t.rows[id]; ok || seen[id] {
			return 0, fmt.Errorf("%w: %s[%v]", data.DuplicateKeyError, s.entityType, id)
		}
		seen[id] = true
		if isIntegerKey(id) {
			t.seq = max(t.seq, sequenceOf(id))
		}
	}
	// keys are settled before the first put, so a rejected batch writes nothing
	for i := range entities {
		var zero ID
		if entities[i].GetID() != zero {
			continue
		}
		for {
			assignSequence(t, &entities[i])
			id := entities[i].GetID()
			if _, taken := t.rows[id]; !taken && !seen[id] {
				seen[id] = true
				break
			}
		}
	}
	for i := range entities {
		t.put(entities[i].GetID(), entities[i])
	}
	return int64(len(entities)), nil
}

func (s *Source[T, ID]) Update(ctx context.Context, entities []T) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.database.mu.Lock()
	defer s.database.mu.Unlock()
	t := s.database.table(s.entityType)
	for _, entity := range entities {
		if _, ok := t.rows[entity.GetID()]; !ok {
			return 0, fmt.Errorf("%w: %s[%v]", data.NotFoundError, s.entityType, entity.GetID())
		}
	}
	for _, entity := range entities {
		t.put(entity.GetID(), entity)
	}
	return int64(len(entities)), nil
}

func (s *Source[T, ID]) Delete(ctx context.Context, ids []ID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.database.mu.Lock()
	defer s.database.mu.Unlock()
	t := s.database.table(s.entityType)
	for _, id := range ids {
		if _, ok := t.rows[id]; !ok {
			return 0, fmt.Errorf("%w: %s[%v]", data.NotFoundError, s.entityType, id)
		}
	}
	for _, id := range ids {
		t.remove(id)
	}
	return int64(len(ids)), nil
}

func (s *Source[T, ID]) DeleteWhere(ctx context.Context, criteria data.Criteria) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.database.mu.Lock()
	defer s.database.mu.Unlock()
	t := s.database.table(s.entityType)

	var matched []any
	for _, id := range t.order {
		ok, err := criteria.Match(t.rows[id])
		if err != nil {
			return 0, err
		}
		if ok {
			matched = append(matched, id)
		}
	}
	for _, id := range matched {
		t.remove(id)
	}
	logrus.Debugf("memory.Source[%s].DeleteWhere: [%s] deleted [%d]", s.entityType, criteria, len(matched))
	return int64(len(matched)), nil
}

func (s *Source[T, ID]) TransactionManager() *TransactionManager {
	return s.transactionManager
}

func isIntegerKey(id any) bool {
	switch reflect.TypeOf(id).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func sequenceOf(id any) int64 {
	value := reflect.ValueOf(id)
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int()
	}
	return int64(value.Uint())
}

func assignSequence(t *table, ptrToEntity any) {
	t.seq++
	entity := reflect.ValueOf(ptrToEntity)
	for entity.Kind() == reflect.Pointer {
		entity = entity.Elem()
	}
	value := entity.FieldByName("ID")
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value.SetInt(t.seq)
	default:
		value.SetUint(uint64(t.seq))
	}
}
