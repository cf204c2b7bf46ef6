package agentclient

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

// ErrEmptyReply is returned when the agent answers a chat turn with no messages.
var ErrEmptyReply = errors.New("agentclient: agent returned no messages")

// APIError represents a non-2xx answer from the admin agent.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client calls the admin-agent AI service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs an admin-agent client. A nil transport uses the default one.
func NewClient(baseURL string, transport http.RoundTripper) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Generation is slow; the agent gets a longer budget than the catalog.
		httpClient: &http.Client{Timeout: 60 * time.Second, Transport: transport},
	}
}

// Chat sends one user turn. ConversationID is omitted on the first turn.
func (c *Client) Chat(ctx context.Context, in domain.ChatRequest) (domain.ChatResponse, error) {
	if in.ImagesURLs == nil {
		in.ImagesURLs = []string{}
	}
	var out domain.ChatResponse
	if err := c.post(ctx, "/chat", in, &out); err != nil {
		return domain.ChatResponse{}, err
	}
	if len(out.Messages) == 0 {
		return out, ErrEmptyReply
	}
	return out, nil
}

// GenerateDescription returns a marketing description for a product.
func (c *Client) GenerateDescription(ctx context.Context, in domain.DescriptionRequest) (string, error) {
	if in.SecondaryKeywords == nil {
		in.SecondaryKeywords = []string{}
	}
	var description string
	if err := c.post(ctx, "/product-description", in, &description); err != nil {
		return "", err
	}
	return description, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return &APIError{Status: resp.StatusCode, Message: resp.Status}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode agent %s: %w", path, err)
	}
	return nil
}
