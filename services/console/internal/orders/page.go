// Package orders implements the paginated, status-filtered orders page and its
// single mutation, mark-as-delivered.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"catalogadmin/pkg/domain"
	"catalogadmin/services/console/internal/catalogclient"
	"catalogadmin/services/console/internal/notify"
)

const DefaultPageSize = 10

var (
	ErrNotFound   = errors.New("orders: order not found")
	ErrNotPending = errors.New("orders: order is not pending")
	ErrBusy       = errors.New("orders: order update already in progress")
)

// Client is what the page needs from the catalog backend.
type Client interface {
	List(ctx context.Context, q catalogclient.OrdersQuery) (domain.OrdersPage, error)
	MarkDelivered(ctx context.Context, id string) (domain.Order, error)
}

// Snapshot is the page as rendered.
type Snapshot struct {
	Page        int
	PageSize    int
	Status      domain.OrderStatus
	Items       []domain.Order
	Total       int
	TotalPages  int
	HasPrevious bool
	HasNext     bool
	Loading     bool
	Loaded      bool
}

// Page is one session's view of the orders list.
type Page struct {
	client   Client
	pageSize int
	notifier notify.Notifier

	mu      sync.Mutex
	page    int
	status  domain.OrderStatus
	items   []domain.Order
	total   int
	loaded  bool
	loading bool
	// seq discards responses for a query that has since changed.
	seq uint64
	// delivering holds ids with a mark-delivered request in flight.
	delivering map[string]struct{}
}

// NewPage returns a page on page 1 with no status filter. A non-positive
// pageSize uses DefaultPageSize.
func NewPage(client Client, pageSize int, notifier notify.Notifier) *Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Page{
		client:     client,
		pageSize:   pageSize,
		notifier:   notifier,
		page:       1,
		delivering: map[string]struct{}{},
	}
}

// TotalPages is ceil(total/pageSize), 0 when there are no orders.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// SetStatus changes the filter and returns to the first page. Blank clears it.
// It reports whether the filter changed.
func (p *Page) SetStatus(status domain.OrderStatus) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if status == p.status {
		return false
	}
	p.status = status
	p.page = 1
	p.loaded = false
	return true
}

// GoTo selects a page. Values below 1 select the first page; once a total is
// known, values past the last page are clamped to it.
func (p *Page) GoTo(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if p.loaded {
		if last := TotalPages(p.total, p.pageSize); last > 0 && page > last {
			page = last
		}
	}
	if page != p.page {
		p.page = page
		p.loaded = false
	}
}

// Next advances one page; it reports false on the last page.
func (p *Page) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page >= TotalPages(p.total, p.pageSize) {
		return false
	}
	p.page++
	p.loaded = false
	return true
}

// Previous goes back one page; it reports false on the first page.
func (p *Page) Previous() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page <= 1 {
		return false
	}
	p.page--
	p.loaded = false
	return true
}

// EnsureLoaded fetches the current query unless it is already loaded.
func (p *Page) EnsureLoaded(ctx context.Context) error {
	p.mu.Lock()
	loaded := p.loaded
	p.mu.Unlock()
	if loaded {
		return nil
	}
	return p.Load(ctx)
}

// Load fetches the current page. Identical queries yield identical state.
func (p *Page) Load(ctx context.Context) error {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	q := catalogclient.OrdersQuery{Page: p.page, Limit: p.pageSize, Status: p.status}
	p.loading = true
	p.mu.Unlock()

	result, err := p.client.List(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		return nil
	}
	p.loading = false
	if err != nil {
		slog.Error("orders load failed", "page", q.Page, "status", string(q.Status), "err", err)
		p.toast("Failed to load orders.")
		return fmt.Errorf("list orders: %w", err)
	}
	p.items = result.Items
	p.total = result.Total
	p.loaded = true
	return nil
}

// MarkDelivered is only valid for pending orders; the server's record replaces
// the local one. A second call for an order already being updated gets ErrBusy.
func (p *Page) MarkDelivered(ctx context.Context, id string) (domain.Order, error) {
	p.mu.Lock()
	if _, ok := p.delivering[id]; ok {
		p.mu.Unlock()
		return domain.Order{}, fmt.Errorf("order %q: %w", id, ErrBusy)
	}
	idx := p.indexOf(id)
	if idx < 0 {
		p.mu.Unlock()
		return domain.Order{}, fmt.Errorf("order %q: %w", id, ErrNotFound)
	}
	if p.items[idx].Status != domain.OrderStatusPending {
		p.mu.Unlock()
		return domain.Order{}, fmt.Errorf("order %q is %s: %w", id, p.items[idx].Status, ErrNotPending)
	}
	p.delivering[id] = struct{}{}
	p.mu.Unlock()

	order, err := p.client.MarkDelivered(ctx, id)
	p.mu.Lock()
	delete(p.delivering, id)
	p.mu.Unlock()
	if err != nil {
		slog.Error("mark delivered failed", "order_id", id, "err", err)
		p.toast("Failed to mark order as delivered.")
		return domain.Order{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if idx := p.indexOf(id); idx >= 0 {
		p.items[idx] = order
	}
	return order, nil
}

func (p *Page) indexOf(id string) int {
	for i := range p.items {
		if p.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Snapshot copies the page state for rendering.
func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	totalPages := TotalPages(p.total, p.pageSize)
	return Snapshot{
		Page:        p.page,
		PageSize:    p.pageSize,
		Status:      p.status,
		Items:       append([]domain.Order(nil), p.items...),
		Total:       p.total,
		TotalPages:  totalPages,
		HasPrevious: p.page > 1,
		HasNext:     p.page < totalPages,
		Loading:     p.loading,
		Loaded:      p.loaded,
	}
}

func (p *Page) toast(message string) {
	if p.notifier != nil {
		p.notifier.Notify("orders", message)
	}
}
