package catalogclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"catalogadmin/pkg/domain"
)

// Resource is the list/create/update/delete capability set of one catalog entity.
// T is the read shape (with id), D the write shape used on create.
type Resource[T domain.Entity, D any] struct {
	client *Client
	name   string
	// updateByID selects PUT {collection}{id}; otherwise PUT {collection} with the id in the body.
	updateByID bool
}

func newResource[T domain.Entity, D any](c *Client, name string, updateByID bool) *Resource[T, D] {
	return &Resource[T, D]{client: c, name: name, updateByID: updateByID}
}

// Name returns the collection path segment, e.g. "categories".
func (r *Resource[T, D]) Name() string {
	return r.name
}

func (r *Resource[T, D]) List(ctx context.Context) ([]T, error) {
	req, err := r.client.newJSONRequest(ctx, http.MethodGet, r.client.collectionURL(r.name), nil)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := r.client.do(req, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *Resource[T, D]) Create(ctx context.Context, data D) (T, error) {
	var created T
	req, err := r.client.newJSONRequest(ctx, http.MethodPost, r.client.collectionURL(r.name), data)
	if err != nil {
		return created, err
	}
	if err := r.client.do(req, &created); err != nil {
		return created, err
	}
	return created, nil
}

func (r *Resource[T, D]) Update(ctx context.Context, item T) (T, error) {
	var updated T
	id := strings.TrimSpace(item.EntityID())
	if id == "" {
		return updated, ErrMissingID
	}
	target := r.client.collectionURL(r.name)
	if r.updateByID {
		target += url.PathEscape(id)
	}
	req, err := r.client.newJSONRequest(ctx, http.MethodPut, target, item)
	if err != nil {
		return updated, err
	}
	if err := r.client.do(req, &updated); err != nil {
		return updated, err
	}
	return updated, nil
}

func (r *Resource[T, D]) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingID
	}
	req, err := r.client.newJSONRequest(ctx, http.MethodDelete, r.client.collectionURL(r.name)+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return r.client.do(req, nil)
}
