// Package metrics instruments repositories with prometheus counters and latency histograms.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/reuben-baek/go-data/data"
)

const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Collectors are shared by every repository registered on the same registerer.
type Collectors struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

func NewCollectors(registerer prometheus.Registerer) *Collectors {
	c := &Collectors{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "godata",
			Subsystem: "repository",
			Name:      "operations_total",
			Help:      "Total number of repository operations",
		}, []string{"entity", "operation", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "godata",
			Subsystem: "repository",
			Name:      "operation_duration_seconds",
			Help:      "Repository operation duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"entity", "operation"}),
	}
	registerer.MustRegister(c.operations, c.durations)
	return c
}

func (c *Collectors) observe(entity, operation string, start time.Time, err error) {
	c.operations.WithLabelValues(entity, operation, outcome(err)).Inc()
	c.durations.WithLabelValues(entity, operation).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, data.NotFoundError):
		return OutcomeNotFound
	case errors.Is(err, data.InvalidArgumentError), errors.Is(err, data.CardinalityError):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// Repository decorates a data.Repository, recording every call under entity.
type Repository[T any, ID comparable] struct {
	next       data.Repository[T, ID]
	entity     string
	collectors *Collectors
}

func NewRepository[T any, ID comparable](next data.Repository[T, ID], entity string, collectors *Collectors) *Repository[T, ID] {
	return &Repository[T, ID]{next: next, entity: entity, collectors: collectors}
}

func (r *Repository[T, ID]) GetByID(ctx context.Context, id ID) (T, error) {
	start := time.Now()
	entity, err := r.next.GetByID(ctx, id)
	r.collectors.observe(r.entity, "get_by_id", start, err)
	return entity, err
}

func (r *Repository[T, ID]) ListAll(ctx context.Context) ([]T, error) {
	start := time.Now()
	entities, err := r.next.ListAll(ctx)
	r.collectors.observe(r.entity, "list_all", start, err)
	return entities, err
}

func (r *Repository[T, ID]) List(ctx context.Context, spec *data.Specification[T]) ([]T, error) {
	start := time.Now()
	entities, err := r.next.List(ctx, spec)
	r.collectors.observe(r.entity, "list", start, err)
	return entities, err
}

func (r *Repository[T, ID]) ListWhere(ctx context.Context, criteria data.Criteria) ([]T, error) {
	start := time.Now()
	entities, err := r.next.ListWhere(ctx, criteria)
	r.collectors.observe(r.entity, "list_where", start, err)
	return entities, err
}

func (r *Repository[T, ID]) FirstOrDefault(ctx context.Context, spec *data.Specification[T]) (T, bool, error) {
	start := time.Now()
	entity, ok, err := r.next.FirstOrDefault(ctx, spec)
	r.collectors.observe(r.entity, "first_or_default", start, err)
	return entity, ok, err
}

func (r *Repository[T, ID]) First(ctx context.Context, spec *data.Specification[T]) (T, error) {
	start := time.Now()
	entity, err := r.next.First(ctx, spec)
	r.collectors.observe(r.entity, "first", start, err)
	return entity, err
}

func (r *Repository[T, ID]) Single(ctx context.Context, spec *data.Specification[T]) (T, error) {
	start := time.Now()
	entity, err := r.next.Single(ctx, spec)
	r.collectors.observe(r.entity, "single", start, err)
	return entity, err
}

func (r *Repository[T, ID]) SingleOrDefault(ctx context.Context, spec *data.Specification[T]) (T, bool, error) {
	start := time.Now()
	entity, ok, err := r.next.SingleOrDefault(ctx, spec)
	r.collectors.observe(r.entity, "single_or_default", start, err)
	return entity, ok, err
}

func (r *Repository[T, ID]) Count(ctx context.Context, spec *data.Specification[T]) (int64, error) {
	start := time.Now()
	count, err := r.next.Count(ctx, spec)
	r.collectors.observe(r.entity, "count", start, err)
	return count, err
}

func (r *Repository[T, ID]) Any(ctx context.Context, spec *data.Specification[T]) (bool, error) {
	start := time.Now()
	ok, err := r.next.Any(ctx, spec)
	r.collectors.observe(r.entity, "any", start, err)
	return ok, err
}

func (r *Repository[T, ID]) Page(ctx context.Context, spec *data.Specification[T], pageNumber, pageSize int) (*data.PagedResult[T], error) {
	start := time.Now()
	page, err := r.next.Page(ctx, spec, pageNumber, pageSize)
	r.collectors.observe(r.entity, "page", start, err)
	return page, err
}

func (r *Repository[T, ID]) Add(ctx context.Context, entity T) (T, error) {
	start := time.Now()
	added, err := r.next.Add(ctx, entity)
	r.collectors.observe(r.entity, "add", start, err)
	return added, err
}

func (r *Repository[T, ID]) AddRange(ctx context.Context, entities []T) ([]T, error) {
	start := time.Now()
	added, err := r.next.AddRange(ctx, entities)
	r.collectors.observe(r.entity, "add_range", start, err)
	return added, err
}

func (r *Repository[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	start := time.Now()
	updated, err := r.next.Update(ctx, entity)
	r.collectors.observe(r.entity, "update", start, err)
	return updated, err
}

func (r *Repository[T, ID]) UpdateRange(ctx context.Context, entities []T) ([]T, error) {
	start := time.Now()
	updated, err := r.next.UpdateRange(ctx, entities)
	r.collectors.observe(r.entity, "update_range", start, err)
	return updated, err
}

func (r *Repository[T, ID]) Delete(ctx context.Context, entity T) error {
	start := time.Now()
	err := r.next.Delete(ctx, entity)
	r.collectors.observe(r.entity, "delete", start, err)
	return err
}

func (r *Repository[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	start := time.Now()
	err := r.next.DeleteByID(ctx, id)
	r.collectors.observe(r.entity, "delete_by_id", start, err)
	return err
}

func (r *Repository[T, ID]) DeleteRange(ctx context.Context, entities []T) error {
	start := time.Now()
	err := r.next.DeleteRange(ctx, entities)
	r.collectors.observe(r.entity, "delete_range", start, err)
	return err
}

func (r *Repository[T, ID]) DeleteWhere(ctx context.Context, criteria data.Criteria) (int64, error) {
	start := time.Now()
	deleted, err := r.next.DeleteWhere(ctx, criteria)
	r.collectors.observe(r.entity, "delete_where", start, err)
	return deleted, err
}
