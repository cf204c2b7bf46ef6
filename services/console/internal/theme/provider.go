// Package theme resolves and stores the light/dark preference, the only state
// the console persists.
package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"catalogadmin/pkg/domain"
)

var ErrInvalidTheme = errors.New("theme: must be light or dark")

// Provider reads and writes theme preferences through a Store.
type Provider struct {
	store    Store
	fallback domain.Theme
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store, fallback: domain.ThemeLight}
}

// Parse accepts "light" or "dark".
func Parse(s string) (domain.Theme, error) {
	switch t := domain.Theme(s); t {
	case domain.ThemeLight, domain.ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidTheme)
	}
}

// Get returns the stored theme, or light when none is stored or the store fails.
func (p *Provider) Get(ctx context.Context, session string) domain.Theme {
	val, ok, err := p.store.Get(ctx, session)
	if err != nil {
		slog.Warn("theme lookup failed", "err", err)
		return p.fallback
	}
	if !ok {
		return p.fallback
	}
	t, err := Parse(val)
	if err != nil {
		return p.fallback
	}
	return t
}

func (p *Provider) Set(ctx context.Context, session string, t domain.Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}
	if err := p.store.Set(ctx, session, string(t)); err != nil {
		return fmt.Errorf("store theme: %w", err)
	}
	return nil
}

// Toggle flips between light and dark and returns the new theme.
func (p *Provider) Toggle(ctx context.Context, session string) (domain.Theme, error) {
	next := domain.ThemeDark
	if p.Get(ctx, session) == domain.ThemeDark {
		next = domain.ThemeLight
	}
	if err := p.Set(ctx, session, next); err != nil {
		return "", err
	}
	return next, nil
}
