package data

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpIn       Operator = "in"
	OpContains Operator = "contains"
	OpIsNull   Operator = "is_null"
	OpAnd      Operator = "and"
	OpOr       Operator = "or"
	OpNot      Operator = "not"
)

// Criteria is a filter over entities expressed as a condition tree, so that every backend can
// translate it: leaves compare a field path with a value, inner nodes combine children.
type Criteria struct {
	Op       Operator
	Field    string
	Value    any
	Children []Criteria
}

func Eq(field string, value any) Criteria  { return Criteria{Op: OpEq, Field: field, Value: value} }
func Ne(field string, value any) Criteria  { return Criteria{Op: OpNe, Field: field, Value: value} }
func Gt(field string, value any) Criteria  { return Criteria{Op: OpGt, Field: field, Value: value} }
func Gte(field string, value any) Criteria { return Criteria{Op: OpGte, Field: field, Value: value} }
func Lt(field string, value any) Criteria  { return Criteria{Op: OpLt, Field: field, Value: value} }
func Lte(field string, value any) Criteria { return Criteria{Op: OpLte, Field: field, Value: value} }

// In matches when the field equals one of values.
func In(field string, values ...any) Criteria {
	return Criteria{Op: OpIn, Field: field, Value: values}
}

// Contains matches string fields holding substring.
func Contains(field string, substring string) Criteria {
	return Criteria{Op: OpContains, Field: field, Value: substring}
}

func IsNull(field string) Criteria {
	return Criteria{Op: OpIsNull, Field: field}
}

func And(children ...Criteria) Criteria {
	return Criteria{Op: OpAnd, Children: children}
}

func Or(children ...Criteria) Criteria {
	return Criteria{Op: OpOr, Children: children}
}

func Not(child Criteria) Criteria {
	return Criteria{Op: OpNot, Children: []Criteria{child}}
}

// clone copies c with its children and value lists, sharing nothing with c.
func (c Criteria) clone() Criteria {
	if values, ok := c.Value.([]any); ok {
		c.Value = slices.Clone(values)
	}
	if c.Children != nil {
		children := make([]Criteria, len(c.Children))
		for i, child := range c.Children {
			children[i] = child.clone()
		}
		c.Children = children
	}
	return c
}

func (c Criteria) IsLeaf() bool {
	switch c.Op {
	case OpAnd, OpOr, OpNot:
		return false
	}
	return true
}

// Fields returns every field path referenced by the tree, leaves first-to-last.
func (c Criteria) Fields() []string {
	if c.IsLeaf() {
		return []string{c.Field}
	}
	var fields []string
	for _, child := range c.Children {
		fields = append(fields, child.Fields()...)
	}
	return fields
}

// Validate checks the tree shape and resolves every field path against entityType.
func (c Criteria) Validate(entityType reflect.Type) error {
	switch c.Op {
	case OpAnd, OpOr:
		if len(c.Children) == 0 {
			return fmt.Errorf("%w: '%s' criteria without children", InvalidArgumentError, c.Op)
		}
	case OpNot:
		if len(c.Children) != 1 {
			return fmt.Errorf("%w: 'not' criteria needs exactly one child, got %d", InvalidArgumentError, len(c.Children))
		}
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIsNull:
		_, err := ResolvePath(entityType, c.Field, false)
		return err
	case OpIn:
		if _, ok := c.Value.([]any); !ok {
			return fmt.Errorf("%w: 'in' criteria on '%s' needs a value list", InvalidArgumentError, c.Field)
		}
		_, err := ResolvePath(entityType, c.Field, false)
		return err
	case OpContains:
		if _, ok := c.Value.(string); !ok {
			return fmt.Errorf("%w: 'contains' criteria on '%s' needs a string", InvalidArgumentError, c.Field)
		}
		fieldType, err := ResolvePath(entityType, c.Field, false)
		if err != nil {
			return err
		}
		if fieldType.Kind() != reflect.String {
			return fmt.Errorf("%w: 'contains' criteria on non-string field '%s'", InvalidArgumentError, c.Field)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown operator '%s'", InvalidArgumentError, c.Op)
	}
	for _, child := range c.Children {
		if err := child.Validate(entityType); err != nil {
			return err
		}
	}
	return nil
}

// Match evaluates the tree against entity in memory.
func (c Criteria) Match(entity any) (bool, error) {
	switch c.Op {
	case OpAnd:
		for _, child := range c.Children {
			ok, err := child.Match(entity)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpOr:
		for _, child := range c.Children {
			ok, err := child.Match(entity)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		if len(c.Children) != 1 {
			return false, fmt.Errorf("%w: 'not' criteria needs exactly one child", InvalidArgumentError)
		}
		ok, err := c.Children[0].Match(entity)
		return !ok, err
	}

	value, err := FieldValue(entity, c.Field)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case OpIsNull:
		return value == nil, nil
	case OpIn:
		candidates, _ := c.Value.([]any)
		for _, candidate := range candidates {
			if cmp, err := Compare(value, candidate); err == nil && cmp == 0 {
				return true, nil
			}
		}
		return false, nil
	case OpContains:
		s, ok := value.(string)
		if !ok {
			return false, nil
		}
		return strings.Contains(s, fmt.Sprint(c.Value)), nil
	}

	cmp, err := Compare(value, c.Value)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case OpEq:
		return cmp == 0, nil
	case OpNe:
		return cmp != 0, nil
	case OpGt:
		return value != nil && cmp > 0, nil
	case OpGte:
		return value != nil && cmp >= 0, nil
	case OpLt:
		return value != nil && cmp < 0, nil
	case OpLte:
		return value != nil && cmp <= 0, nil
	default:
		return false, fmt.Errorf("%w: unknown operator '%s'", InvalidArgumentError, c.Op)
	}
}

func (c Criteria) String() string {
	switch c.Op {
	case OpAnd, OpOr:
		parts := make([]string, 0, len(c.Children))
		for _, child := range c.Children {
			parts = append(parts, child.String())
		}
		return "(" + strings.Join(parts, " "+string(c.Op)+" ") + ")"
	case OpNot:
		if len(c.Children) == 1 {
			return "not " + c.Children[0].String()
		}
		return "not ()"
	case OpIsNull:
		return c.Field + " is null"
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}
