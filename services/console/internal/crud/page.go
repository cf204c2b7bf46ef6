// Package crud implements the list page shared by every catalog entity: load
// the collection (plus any reference lists), add and edit through dialogs,
// delete by id and filter locally.
package crud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"catalogadmin/pkg/domain"
	"catalogadmin/services/console/internal/dialog"
	"catalogadmin/services/console/internal/notify"
)

var (
	ErrNotFound = errors.New("crud: item not found")
	// ErrIDChanged rejects an edit draft whose id no longer matches the record
	// the dialog was opened on.
	ErrIDChanged = errors.New("crud: edit draft id changed")
)

// Client is the capability set a page needs from the backend.
type Client[T domain.Entity, D any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, data D) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, id string) error
}

// State is the load lifecycle of a page.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "idle"
	}
}

// Config describes one entity page.
type Config[T domain.Entity, D any] struct {
	// Singular and Plural are display names, e.g. "category" and "categories".
	Singular string
	Plural   string
	Client   Client[T, D]
	// DefaultDraft seeds the add dialog. Nil means the zero value.
	DefaultDraft func() D
	// Match filters Items by a lower-cased, trimmed search term. Nil disables filtering.
	Match    func(item T, term string) bool
	Refs     []RefSet
	Notifier notify.Notifier
}

// Page holds one entity list and its two dialogs. The list mirrors the server
// as of the last load plus every mutation applied since.
type Page[T domain.Entity, D any] struct {
	cfg Config[T, D]

	Add  *dialog.Shell[D]
	Edit *dialog.Shell[T]

	mu     sync.RWMutex
	state  State
	items  []T
	editID string
	// journal records mutations applied while a load is in flight so the
	// load's commit can replay them onto the fresh list.
	journal []func([]T) []T
}

// NewPage returns an idle page; nothing is fetched until the first load.
func NewPage[T domain.Entity, D any](cfg Config[T, D]) *Page[T, D] {
	return &Page[T, D]{
		cfg:  cfg,
		Add:  dialog.New[D]("Add "+cfg.Singular, "Fill in the form to add a new "+cfg.Singular+"."),
		Edit: dialog.New[T]("Edit "+cfg.Singular, "Change the "+cfg.Singular+" and save."),
	}
}

func (p *Page[T, D]) Singular() string { return p.cfg.Singular }
func (p *Page[T, D]) Plural() string   { return p.cfg.Plural }

// State reports the current load state.
func (p *Page[T, D]) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// EnsureLoaded loads the page unless it is already ready or loading.
func (p *Page[T, D]) EnsureLoaded(ctx context.Context) error {
	if p.State() != StateIdle {
		return nil
	}
	return p.Load(ctx)
}

// Visit refetches the list and its reference lists, the way mounting the page
// does. A ready page keeps serving its current list until the reload commits.
func (p *Page[T, D]) Visit(ctx context.Context) error {
	return p.Load(ctx)
}

// Load fetches the collection and every reference list concurrently. Nothing is
// replaced unless all of them succeed. A failed first load returns the page to
// idle; a failed reload keeps the previous list.
func (p *Page[T, D]) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateLoading {
		p.mu.Unlock()
		return nil
	}
	prev := p.state
	p.state = StateLoading
	p.journal = nil
	p.mu.Unlock()

	var items []T
	commits := make([]func(), len(p.cfg.Refs))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := p.cfg.Client.List(gctx)
		if err != nil {
			return fmt.Errorf("list %s: %w", p.cfg.Plural, err)
		}
		items = list
		return nil
	})
	for i, ref := range p.cfg.Refs {
		g.Go(func() error {
			commit, err := ref.fetch(gctx)
			if err != nil {
				return fmt.Errorf("list %s: %w", ref.Name(), err)
			}
			commits[i] = commit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.mu.Lock()
		if prev == StateReady {
			p.state = StateReady
		} else {
			p.state = StateIdle
		}
		p.journal = nil
		p.mu.Unlock()
		slog.Error("page load failed", "page", p.cfg.Plural, "err", err)
		p.toast("Failed to load " + p.cfg.Plural + ".")
		return err
	}

	for _, commit := range commits {
		commit()
	}
	p.mu.Lock()
	for _, replay := range p.journal {
		items = replay(items)
	}
	p.items = items
	p.journal = nil
	p.state = StateReady
	p.mu.Unlock()
	return nil
}

// mutate applies fn to the list and, during a load, journals it for replay.
// fn must be idempotent since the fresh list may already reflect it.
func (p *Page[T, D]) mutate(fn func([]T) []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = fn(p.items)
	if p.state == StateLoading {
		p.journal = append(p.journal, fn)
	}
}

func appendItem[T domain.Entity](item T) func([]T) []T {
	return func(items []T) []T {
		for i := range items {
			if items[i].EntityID() == item.EntityID() {
				items[i] = item
				return items
			}
		}
		return append(items, item)
	}
}

func replaceItem[T domain.Entity](id string, item T) func([]T) []T {
	return func(items []T) []T {
		for i := range items {
			if items[i].EntityID() == id {
				items[i] = item
				break
			}
		}
		return items
	}
}

func removeItem[T domain.Entity](id string) func([]T) []T {
	return func(items []T) []T {
		kept := items[:0:0]
		for _, item := range items {
			if item.EntityID() != id {
				kept = append(kept, item)
			}
		}
		return kept
	}
}

// Items returns the loaded list filtered by term. Blank terms match everything.
func (p *Page[T, D]) Items(term string) []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]T, 0, len(p.items))
	for _, item := range p.items {
		if term != "" && p.cfg.Match != nil && !p.cfg.Match(item, term) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Item looks up a loaded record by id.
func (p *Page[T, D]) Item(id string) (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, item := range p.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// OpenAdd opens the add dialog on the default draft.
func (p *Page[T, D]) OpenAdd() {
	var draft D
	if p.cfg.DefaultDraft != nil {
		draft = p.cfg.DefaultDraft()
	}
	p.Add.Open(draft)
}

// OpenEdit opens the edit dialog on a copy of the item.
func (p *Page[T, D]) OpenEdit(id string) error {
	item, ok := p.Item(id)
	if !ok {
		return fmt.Errorf("%s %q: %w", p.cfg.Singular, id, ErrNotFound)
	}
	p.mu.Lock()
	p.editID = id
	p.mu.Unlock()
	p.Edit.Open(item)
	return nil
}

func (p *Page[T, D]) editingID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.editID
}

// SubmitAdd creates the add dialog's draft and appends the server's record.
func (p *Page[T, D]) SubmitAdd(ctx context.Context) (T, error) {
	var created T
	err := p.Add.Submit(ctx, func(ctx context.Context, draft D) error {
		item, err := p.cfg.Client.Create(ctx, draft)
		if err != nil {
			slog.Error("create failed", "page", p.cfg.Plural, "err", err)
			p.toast("Failed to create " + p.cfg.Singular + ".")
			return err
		}
		p.mutate(appendItem(item))
		created = item
		p.Add.Close()
		return nil
	})
	return created, err
}

// SubmitEdit saves the edit dialog's draft and replaces the record the dialog
// was opened on. A draft whose id was changed is rejected without a request.
func (p *Page[T, D]) SubmitEdit(ctx context.Context) (T, error) {
	var updated T
	id := p.editingID()
	err := p.Edit.Submit(ctx, func(ctx context.Context, draft T) error {
		if draft.EntityID() != id {
			return fmt.Errorf("%s %q: %w", p.cfg.Singular, id, ErrIDChanged)
		}
		item, err := p.cfg.Client.Update(ctx, draft)
		if err != nil {
			slog.Error("update failed", "page", p.cfg.Plural, "id", id, "err", err)
			p.toast("Failed to update " + p.cfg.Singular + ".")
			return err
		}
		p.mutate(replaceItem(id, item))
		updated = item
		p.Edit.Close()
		return nil
	})
	return updated, err
}

// Delete removes id on the backend, then drops it locally.
func (p *Page[T, D]) Delete(ctx context.Context, id string) error {
	if err := p.cfg.Client.Delete(ctx, id); err != nil {
		slog.Error("delete failed", "page", p.cfg.Plural, "id", id, "err", err)
		p.toast("Failed to delete " + p.cfg.Singular + ".")
		return err
	}
	p.mutate(removeItem[T](id))
	return nil
}

func (p *Page[T, D]) toast(message string) {
	if p.cfg.Notifier != nil {
		p.cfg.Notifier.Notify(p.cfg.Plural, message)
	}
}

// ContainsFold reports whether any value contains the lower-cased term.
func ContainsFold(term string, values ...string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
