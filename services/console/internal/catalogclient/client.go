package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catalogadmin/pkg/domain"
)

// ErrMissingID is returned by Update when the record carries no id.
var ErrMissingID = errors.New("catalogclient: id is required")

// APIError is any non-2xx answer from the catalog backend. The backend's
// error payloads are not parsed.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client calls the catalog REST backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client

	Categories      *Resource[domain.Category, domain.CategoryData]
	Colors          *Resource[domain.Color, domain.ColorData]
	Sizes           *Resource[domain.Size, domain.SizeData]
	Products        *Resource[domain.Product, domain.ProductData]
	ProductVariants *Resource[domain.ProductVariant, domain.ProductVariantData]
	Orders          *Orders
	Images          *Images
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a catalog client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Categories = newResource[domain.Category, domain.CategoryData](c, "categories", true)
	c.Colors = newResource[domain.Color, domain.ColorData](c, "colors", true)
	c.Sizes = newResource[domain.Size, domain.SizeData](c, "sizes", true)
	c.Products = newResource[domain.Product, domain.ProductData](c, "products", false)
	c.ProductVariants = newResource[domain.ProductVariant, domain.ProductVariantData](c, "product-variants", false)
	c.Orders = &Orders{client: c}
	c.Images = &Images{client: c}
	return c
}

// collectionURL returns "{base}/{name}/" with the trailing slash the backend routes expect.
func (c *Client) collectionURL(name string) string {
	return fmt.Sprintf("%s/%s/", c.baseURL, name)
}

func (c *Client) newJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return &APIError{Status: resp.StatusCode, Message: resp.Status}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
