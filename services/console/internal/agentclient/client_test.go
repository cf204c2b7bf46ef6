package agentclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalogadmin/pkg/domain"
)

func TestChatOmitsConversationIDOnFirstTurn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if _, ok := body["conversation_id"]; ok {
			t.Errorf("conversation_id must be omitted: %v", body)
		}
		if urls, ok := body["images_urls"].([]any); !ok || len(urls) != 0 {
			t.Errorf("expected empty images_urls array, got %v", body["images_urls"])
		}
		_, _ = w.Write([]byte(`{"conversation_id":"abc","messages":[{"id":"m1","content":"hi"}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, nil).Chat(context.Background(), domain.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.ConversationID != "abc" || resp.Messages[0].Content != "hi" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestChatEmptyMessagesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"conversation_id":"abc","messages":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Chat(context.Background(), domain.ChatRequest{Message: "hello"})
	if !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

func TestGenerateDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/product-description" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var in domain.DescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode("Great " + in.Name)
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, nil).GenerateDescription(context.Background(), domain.DescriptionRequest{Name: "Runner"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Great Runner" {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestAgentErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Chat(context.Background(), domain.ChatRequest{Message: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
}
