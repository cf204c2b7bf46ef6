package catalogclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"catalogadmin/pkg/domain"
)

// OrdersQuery selects one page of orders. Page starts at 1.
type OrdersQuery struct {
	Page   int
	Limit  int
	Status domain.OrderStatus
}

func (q OrdersQuery) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if status := strings.TrimSpace(string(q.Status)); status != "" {
		v.Set("status", status)
	}
	return v
}

// Orders is the order resource. It only supports listing and the delivered transition.
type Orders struct {
	client *Client
}

// List fetches one page of orders plus the total count.
func (o *Orders) List(ctx context.Context, q OrdersQuery) (domain.OrdersPage, error) {
	c := o.client
	target := c.collectionURL("orders") + "?" + q.values().Encode()
	req, err := c.newJSONRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.OrdersPage{}, err
	}
	var page domain.OrdersPage
	if err := c.do(req, &page); err != nil {
		return domain.OrdersPage{}, err
	}
	if page.Items == nil {
		page.Items = []domain.Order{}
	}
	return page, nil
}

// MarkDelivered moves an order to delivered and returns the updated record.
func (o *Orders) MarkDelivered(ctx context.Context, id string) (domain.Order, error) {
	c := o.client
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Order{}, ErrMissingID
	}
	target := c.collectionURL("orders") + url.PathEscape(id) + "/delivered"
	req, err := c.newJSONRequest(ctx, http.MethodPatch, target, nil)
	if err != nil {
		return domain.Order{}, err
	}
	var order domain.Order
	if err := c.do(req, &order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}
