// Package notify holds the per-session toast feed that page operations report
// failures to.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"catalogadmin/internal/util"
)

// DefaultCapacity bounds a feed when no capacity is given.
const DefaultCapacity = 50

// Notifier receives user-facing error notifications.
type Notifier interface {
	Notify(page, message string)
}

// Toast is one transient notification.
type Toast struct {
	ID      string    `json:"id"`
	Page    string    `json:"page"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Feed is a bounded FIFO of toasts. The oldest toast is dropped once full.
type Feed struct {
	mu       sync.Mutex
	items    []Toast
	capacity int
	onNotify func(page string)
	now      func() time.Time
}

// NewFeed builds a feed. onNotify, when set, is called once per toast (metrics hook).
func NewFeed(capacity int, onNotify func(page string)) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{capacity: capacity, onNotify: onNotify, now: time.Now}
}

func (f *Feed) Notify(page, message string) {
	toast := Toast{ID: util.NewID(), Page: page, Message: message, At: f.now().UTC()}
	f.mu.Lock()
	if len(f.items) == f.capacity {
		f.items = append(f.items[:0], f.items[1:]...)
	}
	f.items = append(f.items, toast)
	f.mu.Unlock()

	slog.Warn("toast", "page", page, "message", message)
	if f.onNotify != nil {
		f.onNotify(page)
	}
}

// Drain returns every pending toast oldest first and empties the feed.
func (f *Feed) Drain() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

// Len reports how many toasts are pending.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
