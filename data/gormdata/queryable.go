package gormdata

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/reuben-baek/go-data/data"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Queryable collects the query shape and builds the gorm statement only in List and Count.
// Grouping becomes a leading ORDER BY key, so rows keep the earlier order inside each group.
type Queryable[T any] struct {
	session    func(ctx context.Context) *gorm.DB
	criteria   []data.Criteria
	preloads   []string
	orders     []data.Order
	offset     int
	limit      int
	noTracking bool
	err        error
}

func NewQueryable[T any](session func(ctx context.Context) *gorm.DB) *Queryable[T] {
	return &Queryable[T]{session: session, limit: -1}
}

func (q *Queryable[T]) clone() *Queryable[T] {
	next := *q
	next.criteria = slices.Clone(q.criteria)
	next.preloads = slices.Clone(q.preloads)
	next.orders = slices.Clone(q.orders)
	return &next
}

func (q *Queryable[T]) Filter(criteria data.Criteria) data.Queryable[T] {
	next := q.clone()
	next.criteria = append(next.criteria, criteria)
	return next
}

func (q *Queryable[T]) Include(path string) data.Queryable[T] {
	next := q.clone()
	next.preloads = append(next.preloads, path)
	return next
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
	next.offset += n
	if next.limit >= 0 {
		next.limit = max(next.limit-n, 0)
	}
	return next
}

func (q *Queryable[T]) Take(n int) data.Queryable[T] {
	next := q.clone()
	if n < 0 {
		next.fail(fmt.Errorf("%w: negative take %d", data.InvalidArgumentError, n))
		return next
	}
	if next.limit < 0 || n < next.limit {
		next.limit = n
	}
	return next
}

// AsNoTracking is recorded only: gorm keeps no change tracker.
func (q *Queryable[T]) AsNoTracking() data.Queryable[T] {
	next := q.clone()
	next.noTracking = true
	return next
}

func (q *Queryable[T]) List(ctx context.Context) ([]T, error) {
	entities := []T{}
	if q.limit == 0 && q.err == nil {
		return entities, nil
	}
	db, err := q.statement(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := db.Find(&entities).Error; err != nil {
		return nil, translateError(err)
	}
	return entities, nil
}

func (q *Queryable[T]) Count(ctx context.Context) (int64, error) {
	if q.offset > 0 || q.limit >= 0 {
		entities, err := q.List(ctx)
		return int64(len(entities)), err
	}
	db, err := q.statement(ctx, false)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (q *Queryable[T]) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func (q *Queryable[T]) statement(ctx context.Context, shaped bool) (*gorm.DB, error) {
	if q.err != nil {
		return nil, q.err
	}
	db := q.session(ctx).Model(new(T))
	entitySchema, err := parseSchema[T](db)
	if err != nil {
		return nil, err
	}
	expressions := make([]clause.Expression, 0, len(q.criteria))
	for _, criteria := range q.criteria {
		expression, err := Expression(entitySchema, criteria)
		if err != nil {
			return nil, err
		}
		expressions = append(expressions, expression)
	}
	if len(expressions) > 0 {
		db = db.Clauses(clause.Where{Exprs: expressions})
	}
	if !shaped {
		return db, nil
	}

	for _, preload := range q.preloads {
		db = db.Preload(preload)
	}
	for _, order := range q.orders {
		column, err := columnOf(entitySchema, order.Field)
		if err != nil {
			return nil, err
		}
		db = db.Order(clause.OrderByColumn{Column: column, Desc: order.Descending})
	}
	if q.offset > 0 {
		db = db.Offset(q.offset)
	}
	if q.limit > 0 {
		db = db.Limit(q.limit)
	}
	logrus.Debugf("gormdata.Queryable[%s].statement: criteria %v preloads %v orders %+v offset [%d] limit [%d] noTracking [%v]",
		entitySchema.Name, q.criteria, q.preloads, q.orders, q.offset, q.limit, q.noTracking)
	return db, nil
}

func parseSchema[T any](db *gorm.DB) (*schema.Schema, error) {
	statement := &gorm.Statement{DB: db}
	if err := statement.Parse(new(T)); err != nil {
		return nil, err
	}
	return statement.Schema, nil
}

// Expression translates criteria into a gorm clause over the columns of entitySchema.
func Expression(entitySchema *schema.Schema, criteria data.Criteria) (clause.Expression, error) {
	switch criteria.Op {
	case data.OpAnd, data.OpOr:
		if len(criteria.Children) == 0 {
			return nil, fmt.Errorf("%w: '%s' criteria without children", data.InvalidArgumentError, criteria.Op)
		}
		children := make([]clause.Expression, 0, len(criteria.Children))
		for _, child := range criteria.Children {
			expression, err := Expression(entitySchema, child)
			if err != nil {
				return nil, err
			}
			children = append(children, expression)
		}
		if criteria.Op == data.OpAnd {
			return clause.And(children...), nil
		}
		return clause.Or(children...), nil
	case data.OpNot:
		if len(criteria.Children) != 1 {
			return nil, fmt.Errorf("%w: 'not' criteria needs exactly one child", data.InvalidArgumentError)
		}
		child, err := Expression(entitySchema, criteria.Children[0])
		if err != nil {
			return nil, err
		}
		return clause.Not(child), nil
	}

	column, err := columnOf(entitySchema, criteria.Field)
	if err != nil {
		return nil, err
	}
	switch criteria.Op {
	case data.OpEq:
		return clause.Eq{Column: column, Value: criteria.Value}, nil
	case data.OpNe:
		if criteria.Value == nil {
			return clause.Neq{Column: column, Value: nil}, nil
		}
		// NULL differs from every value, as it does in memory and in mongo
		return clause.Or(clause.Neq{Column: column, Value: criteria.Value}, clause.Eq{Column: column, Value: nil}), nil
	case data.OpGt:
		return clause.Gt{Column: column, Value: criteria.Value}, nil
	case data.OpGte:
		return clause.Gte{Column: column, Value: criteria.Value}, nil
	case data.OpLt:
		return clause.Lt{Column: column, Value: criteria.Value}, nil
	case data.OpLte:
		return clause.Lte{Column: column, Value: criteria.Value}, nil
	case data.OpIn:
		values, ok := criteria.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: 'in' criteria on '%s' needs a value list", data.InvalidArgumentError, criteria.Field)
		}
		return clause.IN{Column: column, Values: values}, nil
	case data.OpContains:
		return containsExpression{column: column, substring: fmt.Sprint(criteria.Value)}, nil
	case data.OpIsNull:
		return clause.Eq{Column: column, Value: nil}, nil
	}
	return nil, fmt.Errorf("%w: unknown operator '%s'", data.InvalidArgumentError, criteria.Op)
}

// likeEscaper escapes LIKE wildcards with '!', which needs no quoting in any dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsExpression matches columns holding substring literally and case-sensitively.
// sqlite's LIKE ignores ASCII case, so sqlite uses instr instead. On mysql the column
// collation decides case.
type containsExpression struct {
	column    clause.Column
	substring string
}

func (c containsExpression) Build(builder clause.Builder) {
	if statement, ok := builder.(*gorm.Statement); ok && statement.Dialector.Name() == "sqlite" {
		builder.WriteString("instr(")
		builder.WriteQuoted(c.column)
		builder.WriteString(", ")
		builder.AddVar(builder, c.substring)
		builder.WriteString(") > 0")
		return
	}
	builder.WriteQuoted(c.column)
	builder.WriteString(" LIKE ")
	builder.AddVar(builder, "%"+likeEscaper.Replace(c.substring)+"%")
	builder.WriteString(" ESCAPE '!'")
}

// columnOf maps a field name to its column. Paths into related objects have no column of their own.
func columnOf(entitySchema *schema.Schema, path string) (clause.Column, error) {
	if strings.Contains(path, ".") {
		return clause.Column{}, fmt.Errorf("%w: '%s' of '%s' is not a column", data.InvalidArgumentError, path, entitySchema.Name)
	}
	field := entitySchema.LookUpField(path)
	if field == nil || field.DBName == "" {
		return clause.Column{}, fmt.Errorf("%w: '%s' of '%s' is not a column", data.InvalidArgumentError, path, entitySchema.Name)
	}
	return clause.Column{Table: clause.CurrentTable, Name: field.DBName}, nil
}
