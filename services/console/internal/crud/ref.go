package crud

import (
	"context"
	"sync"

	"catalogadmin/pkg/domain"
)

// RefSet is a cross-referenced list loaded alongside a page, e.g. the
// categories a product page needs to label its rows.
type RefSet interface {
	Name() string
	// fetch loads the list; commit publishes it. Pages only commit once every
	// fetch of a load has succeeded.
	fetch(ctx context.Context) (commit func(), err error)
}

// Ref is a typed reference list with a label lookup.
type Ref[T domain.Entity] struct {
	name  string
	list  func(context.Context) ([]T, error)
	label func(T) string

	mu    sync.RWMutex
	items []T
	byID  map[string]T
}

// NewRef builds an empty reference list; label renders one item for select
// options and row cells.
func NewRef[T domain.Entity](name string, list func(context.Context) ([]T, error), label func(T) string) *Ref[T] {
	return &Ref[T]{name: name, list: list, label: label, byID: map[string]T{}}
}

func (r *Ref[T]) Name() string { return r.name }

func (r *Ref[T]) fetch(ctx context.Context) (func(), error) {
	items, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	return func() { r.set(items) }, nil
}

func (r *Ref[T]) set(items []T) {
	byID := make(map[string]T, len(items))
	for _, item := range items {
		byID[item.EntityID()] = item
	}
	r.mu.Lock()
	r.items = items
	r.byID = byID
	r.mu.Unlock()
}

// Items returns a copy of the loaded list, used for select options.
func (r *Ref[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]T(nil), r.items...)
}

func (r *Ref[T]) Get(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.byID[id]
	return item, ok
}

// Label resolves id to its display label, blank when unknown.
func (r *Ref[T]) Label(id string) string {
	item, ok := r.Get(id)
	if !ok || r.label == nil {
		return ""
	}
	return r.label(item)
}
