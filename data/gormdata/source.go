package gormdata

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Source stores entities of type T in the table gorm derives for T.
type Source[T data.Entity[ID], ID comparable] struct {
	transactionManager *TransactionManager
	entityType         reflect.Type
}

func NewSource[T data.Entity[ID], ID comparable](provider *Provider) *Source[T, ID] {
	return NewSourceOf[T, ID](provider.transactionManager)
}

// NewSourceOf builds a Source over an existing transaction manager.
func NewSourceOf[T data.Entity[ID], ID comparable](transactionManager *TransactionManager) *Source[T, ID] {
	return &Source[T, ID]{
		transactionManager: transactionManager,
		entityType:         reflect.TypeOf((*T)(nil)).Elem(),
	}
}

func NewRepository[T data.Entity[ID], ID comparable](provider *Provider, opts ...data.Option) *data.SpecRepository[T, ID] {
	return data.NewRepository[T, ID](NewSource[T, ID](provider), opts...)
}

func (s *Source[T, ID]) Query(ctx context.Context) data.Queryable[T] {
	return NewQueryable[T](s.transactionManager.Session)
}

func (s *Source[T, ID]) Insert(ctx context.Context, entities []T) (int64, error) {
	db := s.transactionManager.Session(ctx)
	result := db.Create(&entities)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	logrus.Debugf("gormdata.Source[%s].Insert: [%d] rows", s.entityType, result.RowsAffected)
	return result.RowsAffected, nil
}

// Update writes every column of each entity. An absent key fails the whole batch.
func (s *Source[T, ID]) Update(ctx context.Context, entities []T) (int64, error) {
	var affected int64
	err := s.transactionManager.Session(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range entities {
			result := tx.Model(&entities[i]).Select("*").Omit(clause.Associations).Updates(&entities[i])
			if result.Error != nil {
				return translateError(result.Error)
			}
			if result.RowsAffected == 0 {
				// some drivers report 0 for rows left unchanged
				var count int64
				if err := tx.Model(new(T)).Where(clause.Eq{Column: clause.PrimaryColumn, Value: entities[i].GetID()}).Count(&count).Error; err != nil {
					return translateError(err)
				}
				if count == 0 {
					return fmt.Errorf("%w: %s[%v]", data.NotFoundError, s.entityType, entities[i].GetID())
				}
			}
			affected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *Source[T, ID]) Delete(ctx context.Context, ids []ID) (int64, error) {
	unique := make([]any, 0, len(ids))
	seen := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	var affected int64
	err := s.transactionManager.Session(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where(clause.IN{Column: clause.PrimaryColumn, Values: unique}).Delete(new(T))
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected != int64(len(unique)) {
			return fmt.Errorf("%w: %s deleted [%d] of %v", data.NotFoundError, s.entityType, result.RowsAffected, unique)
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *Source[T, ID]) DeleteWhere(ctx context.Context, criteria data.Criteria) (int64, error) {
	db := s.transactionManager.Session(ctx)
	entitySchema, err := parseSchema[T](db)
	if err != nil {
		return 0, err
	}
	expression, err := Expression(entitySchema, criteria)
	if err != nil {
		return 0, err
	}
	result := db.Clauses(clause.Where{Exprs: []clause.Expression{expression}}).Delete(new(T))
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	logrus.Debugf("gormdata.Source[%s].DeleteWhere: [%s] deleted [%d]", s.entityType, criteria, result.RowsAffected)
	return result.RowsAffected, nil
}

func translateError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", data.NotFoundError, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", data.DuplicateKeyError, err)
	}
	return err
}
