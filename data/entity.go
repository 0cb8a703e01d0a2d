package data

import (
	"time"

	"github.com/google/uuid"
)

// Entity is satisfied by every persisted type. Identity is the key alone.
type Entity[ID comparable] interface {
	GetID() ID
}

// Model is embedded by entities to carry their key.
type Model[ID comparable] struct {
	ID ID `gorm:"primaryKey" bson:"_id"`
}

func (m Model[ID]) GetID() ID {
	return m.ID
}

// SameIdentity reports whether a and b have equal keys, regardless of their other attributes.
func SameIdentity[ID comparable](a, b Entity[ID]) bool {
	return a.GetID() == b.GetID()
}

type Auditable interface {
	SetCreated(at time.Time, by string)
	SetModified(at time.Time, by string)
}

// AuditFields is embedded by entities that want creation and modification stamps.
type AuditFields struct {
	CreatedAt  time.Time  `bson:"createdAt"`
	ModifiedAt *time.Time `bson:"modifiedAt,omitempty"`
	CreatedBy  string     `bson:"createdBy,omitempty"`
	ModifiedBy string     `bson:"modifiedBy,omitempty"`
}

func (a *AuditFields) SetCreated(at time.Time, by string) {
	a.CreatedAt = at
	a.CreatedBy = by
}

func (a *AuditFields) SetModified(at time.Time, by string) {
	a.ModifiedAt = &at
	a.ModifiedBy = by
}

type IDGenerator[ID comparable] func() ID

func UUIDString() IDGenerator[string] {
	return uuid.NewString
}

func UUID() IDGenerator[uuid.UUID] {
	return uuid.New
}
