package data

import (
	"context"
	"reflect"
	"time"
)

type ChangeState int

const (
	Added ChangeState = iota + 1
	Modified
	Deleted
)

func (s ChangeState) String() string {
	switch s {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Clock is read once per committed batch.
type Clock func() time.Time

func UTCClock() time.Time {
	return time.Now().UTC()
}

type principalKey struct{}

// WithPrincipal records who performs the changes made with ctx.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

func PrincipalFrom(ctx context.Context) string {
	principal, _ := ctx.Value(principalKey{}).(string)
	return principal
}

// Stamp sets the creation stamp of added entities and the modification stamp of modified ones.
// Entities that are not Auditable are left alone.
func Stamp(now time.Time, principal string, state ChangeState, ptrToEntity any) {
	auditable, ok := ptrToEntity.(Auditable)
	if !ok {
		// entities held by pointer arrive as a pointer to that pointer
		v := reflect.ValueOf(ptrToEntity)
		if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Pointer || v.Elem().IsNil() {
			return
		}
		if auditable, ok = v.Elem().Interface().(Auditable); !ok {
			return
		}
	}
	switch state {
	case Added:
		auditable.SetCreated(now, principal)
	case Modified:
		auditable.SetModified(now, principal)
	}
}
