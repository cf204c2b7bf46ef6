// Package dialog implements the modal form shell shared by every entity page.
package dialog

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrBusy   = errors.New("dialog: submit already in progress")
	ErrClosed = errors.New("dialog: not open")
)

// State is a snapshot of a shell for rendering.
type State[D any] struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Open        bool   `json:"open"`
	Busy        bool   `json:"busy"`
	Draft       D      `json:"draft"`
}

// Shell holds a dialog's open/busy flags and its draft. It never closes itself
// after a submit; the caller's success path calls Close.
type Shell[D any] struct {
	title       string
	description string

	mu    sync.Mutex
	open  bool
	busy  bool
	draft D
}

// New returns a closed shell with a fixed title and description.
func New[D any](title, description string) *Shell[D] {
	return &Shell[D]{title: title, description: description}
}

// Open shows the dialog with draft as its form contents.
func (s *Shell[D]) Open(draft D) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.draft = draft
}

// Cancel closes the dialog and discards the draft.
func (s *Shell[D]) Cancel() {
	s.Close()
}

// Close hides the dialog and resets the draft.
func (s *Shell[D]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero D
	s.open = false
	s.draft = zero
}

// SetDraft replaces the whole draft.
func (s *Shell[D]) SetDraft(d D) error {
	return s.Update(func(draft *D) { *draft = d })
}

// Update edits the draft in place. Fails on a closed or busy dialog.
func (s *Shell[D]) Update(fn func(*D)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrClosed
	}
	if s.busy {
		return ErrBusy
	}
	fn(&s.draft)
	return nil
}

func (s *Shell[D]) Draft() D {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Shell[D]) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// State snapshots the shell for rendering.
func (s *Shell[D]) State() State[D] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State[D]{
		Title:       s.title,
		Description: s.description,
		Open:        s.open,
		Busy:        s.busy,
		Draft:       s.draft,
	}
}

// Submit validates the draft and, when valid, runs handler with a copy of it.
// The busy flag is held for the duration of handler.
func (s *Shell[D]) Submit(ctx context.Context, handler func(context.Context, D) error) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	draft := s.draft
	if err := Validate(draft); err != nil {
		s.mu.Unlock()
		return err
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()
	return handler(ctx, draft)
}
