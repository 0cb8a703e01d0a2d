// Package memory is an in-process backend: one table per entity type, kept in insertion order.
package memory

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
)

type table struct {
	rows  map[any]any
	order []any
	seq   int64
}

func newTable() *table {
	return &table{rows: make(map[any]any)}
}

func (t *table) clone() *table {
	c := &table{
		rows:  make(map[any]any, len(t.rows)),
		order: make([]any, len(t.order)),
		seq:   t.seq,
	}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	copy(c.order, t.order)
	return c
}

func (t *table) put(id any, row any) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table) remove(id any) {
	delete(t.rows, id)
	for i, key := range t.order {
		if key == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// Database holds the tables. Writes are visible to every reader at once; a transaction only
// adds the ability to restore the tables as they were when it began.
type Database struct {
	mu       sync.RWMutex
	tables   map[reflect.Type]*table
	snapshot map[reflect.Type]*table
	txID     *uuid.UUID
}

func NewDatabase() *Database {
	return &Database{tables: make(map[reflect.Type]*table)}
}

// table returns the table of entityType, creating it. Callers hold mu for writing.
func (d *Database) table(entityType reflect.Type) *table {
	t, ok := d.tables[entityType]
	if !ok {
		t = newTable()
		d.tables[entityType] = t
	}
	return t
}

// rows returns the rows of entityType in insertion order. Callers hold mu.
func (d *Database) rows(entityType reflect.Type) []any {
	t, ok := d.tables[entityType]
	if !ok {
		return nil
	}
	rows := make([]any, 0, len(t.order))
	for _, id := range t.order {
		rows = append(rows, t.rows[id])
	}
	return rows
}

// Migrate creates empty tables for models that have none.
func (d *Database) Migrate(models ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, model := range models {
		entityType := reflect.TypeOf(model)
		for entityType.Kind() == reflect.Pointer {
			entityType = entityType.Elem()
		}
		d.table(entityType)
	}
}
