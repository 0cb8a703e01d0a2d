package mongodata

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/reuben-baek/go-data/data"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// criteriaOps maps leaf operators to MongoDB query operators.
var criteriaOps = map[data.Operator]string{
	data.OpEq:  "$eq",
	data.OpNe:  "$ne",
	data.OpGt:  "$gt",
	data.OpGte: "$gte",
	data.OpLt:  "$lt",
	data.OpLte: "$lte",
}

// Filter translates criteria on entityType into a MongoDB query document.
func Filter(entityType reflect.Type, criteria data.Criteria) (bson.D, error) {
	switch criteria.Op {
	case data.OpAnd, data.OpOr:
		if len(criteria.Children) == 0 {
			return nil, fmt.Errorf("%w: '%s' criteria without children", data.InvalidArgumentError, criteria.Op)
		}
		children := make(bson.A, 0, len(criteria.Children))
		for _, child := range criteria.Children {
			filter, err := Filter(entityType, child)
			if err != nil {
				return nil, err
			}
			children = append(children, filter)
		}
		return bson.D{{Key: "$" + string(criteria.Op), Value: children}}, nil
	case data.OpNot:
		if len(criteria.Children) != 1 {
			return nil, fmt.Errorf("%w: 'not' criteria needs exactly one child", data.InvalidArgumentError)
		}
		child, err := Filter(entityType, criteria.Children[0])
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$nor", Value: bson.A{child}}}, nil
	}

	key, err := FieldKey(entityType, criteria.Field)
	if err != nil {
		return nil, err
	}
	switch criteria.Op {
	case data.OpIn:
		values, ok := criteria.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: 'in' criteria on '%s' needs a value list", data.InvalidArgumentError, criteria.Field)
		}
		return bson.D{{Key: key, Value: bson.D{{Key: "$in", Value: bson.A(values)}}}}, nil
	case data.OpContains:
		pattern := regexp.QuoteMeta(fmt.Sprint(criteria.Value))
		return bson.D{{Key: key, Value: bson.D{{Key: "$regex", Value: primitive.Regex{Pattern: pattern}}}}}, nil
	case data.OpIsNull:
		return bson.D{{Key: key, Value: nil}}, nil
	}
	op, ok := criteriaOps[criteria.Op]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operator '%s'", data.InvalidArgumentError, criteria.Op)
	}
	return bson.D{{Key: key, Value: bson.D{{Key: op, Value: criteria.Value}}}}, nil
}

// FieldKey maps a Go field path to the dotted document key the default bson codec writes:
// the bson tag name, else the lowercased field name. Inlined embedded structs add no key.
func FieldKey(entityType reflect.Type, path string) (string, error) {
	current := derefType(entityType)
	var keys []string
	for _, segment := range strings.Split(path, ".") {
		if current.Kind() == reflect.Slice || current.Kind() == reflect.Array {
			current = derefType(current.Elem())
		}
		if current.Kind() != reflect.Struct {
			return "", fmt.Errorf("%w: path '%s' of '%s': '%s' is not a document", data.InvalidArgumentError, path, entityType, current)
		}
		field, ok := current.FieldByName(segment)
		if !ok || !field.IsExported() {
			return "", fmt.Errorf("%w: path '%s' of '%s': no exported field '%s'", data.InvalidArgumentError, path, entityType, segment)
		}
		owner := current
		for _, index := range field.Index {
			step := owner.Field(index)
			name, inline, skip := bsonKey(step)
			if skip {
				return "", fmt.Errorf("%w: path '%s' of '%s': '%s' is not stored", data.InvalidArgumentError, path, entityType, step.Name)
			}
			if !inline {
				keys = append(keys, name)
			}
			owner = derefType(step.Type)
		}
		current = owner
	}
	return strings.Join(keys, "."), nil
}

func bsonKey(field reflect.StructField) (name string, inline bool, skip bool) {
	tag := field.Tag.Get("bson")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, option := range parts[1:] {
		if option == "inline" {
			inline = true
		}
	}
	if name == "" {
		name = strings.ToLower(field.Name)
	}
	return name, inline, false
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// sortDocument turns orders into a sort specification, first order primary.
func sortDocument(entityType reflect.Type, orders []data.Order) (bson.D, error) {
	sort := make(bson.D, 0, len(orders))
	for _, order := range orders {
		key, err := FieldKey(entityType, order.Field)
		if err != nil {
			return nil, err
		}
		direction := 1
		if order.Descending {
			direction = -1
		}
		sort = append(sort, bson.E{Key: key, Value: direction})
	}
	return sort, nil
}
