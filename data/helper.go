package data

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"
)

func isZeroID[ID comparable](id ID) bool {
	var zero ID
	return id == zero
}

// setID writes id into the ID field of the entity pointed to by ptrToEntity.
func setID[ID comparable](ptrToEntity any, id ID) {
	valueOfEntity := reflect.ValueOf(ptrToEntity)
	for valueOfEntity.Kind() == reflect.Pointer {
		valueOfEntity = valueOfEntity.Elem()
	}
	value := valueOfEntity.FieldByName("ID")
	if !value.IsValid() {
		panic(fmt.Sprintf("Entity '%s' has not ID field", valueOfEntity.Type()))
	}
	if !value.CanSet() {
		panic(fmt.Sprintf("ID field of '%s' is not settable", valueOfEntity.Type()))
	}
	value.Set(reflect.ValueOf(id))
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// ResolvePath walks a dot-separated field path through entityType and returns the type of the
// last field. Promoted fields of embedded structs resolve like ordinary fields. When allowSlices
// is set, a slice of structs can be stepped through, as include paths do for has-many relations.
func ResolvePath(entityType reflect.Type, path string, allowSlices bool) (reflect.Type, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty field path", InvalidArgumentError)
	}
	current := derefType(entityType)
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		if current.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: path '%s' of '%s': '%s' is not a struct", InvalidArgumentError, path, entityType, current)
		}
		field, ok := current.FieldByName(segment)
		if !ok || !field.IsExported() {
			return nil, fmt.Errorf("%w: path '%s' of '%s': no exported field '%s'", InvalidArgumentError, path, entityType, segment)
		}
		current = derefType(field.Type)
		if current.Kind() == reflect.Slice && i < len(segments)-1 {
			if !allowSlices {
				return nil, fmt.Errorf("%w: path '%s' of '%s' crosses a slice at '%s'", InvalidArgumentError, path, entityType, segment)
			}
			current = derefType(current.Elem())
		}
	}
	return current, nil
}

// FieldValue returns the value at a dot-separated field path. A nil pointer on the way yields nil.
func FieldValue(entity any, path string) (any, error) {
	value := reflect.ValueOf(entity)
	for _, segment := range strings.Split(path, ".") {
		for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
			if value.IsNil() {
				return nil, nil
			}
			value = value.Elem()
		}
		if value.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: '%s' is not a struct at '%s'", InvalidArgumentError, value.Type(), segment)
		}
		value = value.FieldByName(segment)
		if !value.IsValid() {
			return nil, fmt.Errorf("%w: no field '%s' in path '%s'", InvalidArgumentError, segment, path)
		}
	}
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil
		}
		value = value.Elem()
	}
	return value.Interface(), nil
}

// Compare orders two field values. nil sorts before everything else. Numbers of different kinds
// compare by value; strings, booleans, times and byte arrays (such as uuid.UUID) are supported.
func Compare(a, b any) (int, error) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, nil
		case a == nil:
			return -1, nil
		default:
			return 1, nil
		}
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, incomparable(a, b)
		}
		return at.Compare(bt), nil
	}

	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	switch {
	case isInt(av) && isInt(bv):
		return compareOrdered(av.Int(), bv.Int()), nil
	case isUint(av) && isUint(bv):
		return compareOrdered(av.Uint(), bv.Uint()), nil
	case isNumber(av) && isNumber(bv):
		return compareOrdered(toFloat(av), toFloat(bv)), nil
	case av.Kind() == reflect.String && bv.Kind() == reflect.String:
		return strings.Compare(av.String(), bv.String()), nil
	case av.Kind() == reflect.Bool && bv.Kind() == reflect.Bool:
		ab, bb := av.Bool(), bv.Bool()
		switch {
		case ab == bb:
			return 0, nil
		case !ab:
			return -1, nil
		default:
			return 1, nil
		}
	case av.Kind() == reflect.Array && bv.Kind() == reflect.Array && av.Type() == bv.Type() &&
		av.Type().Elem().Kind() == reflect.Uint8:
		return bytes.Compare(arrayBytes(av), arrayBytes(bv)), nil
	}
	if av.Type() == bv.Type() && av.Comparable() && av.Equal(bv) {
		return 0, nil
	}
	return 0, incomparable(a, b)
}

func incomparable(a, b any) error {
	return fmt.Errorf("%w: cannot compare '%T' with '%T'", InvalidArgumentError, a, b)
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func compareOrdered[N int64 | uint64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func arrayBytes(v reflect.Value) []byte {
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}
