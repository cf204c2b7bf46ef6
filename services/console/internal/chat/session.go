// Package chat holds one admin's conversation with the AI assistant: the
// transcript, the conversation id the agent assigned, and images uploaded but
// not yet sent.
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"catalogadmin/internal/util"
	"catalogadmin/pkg/domain"
)

const pageName = "ai-admin"

var (
	ErrBusy         = errors.New("chat: a message is already being sent")
	ErrEmptyMessage = errors.New("chat: message is empty")
	ErrNoReply      = errors.New("chat: agent returned no messages")
	ErrNotFailed    = errors.New("chat: message has not failed")
	ErrNoImages     = errors.New("chat: no images to upload")
)

// Agent answers one chat turn.
type Agent interface {
	Chat(ctx context.Context, in domain.ChatRequest) (domain.ChatResponse, error)
}

// Uploader stores images and returns their public URLs in input order.
type Uploader interface {
	UploadTemporary(ctx context.Context, images []domain.TempImageData) ([]domain.TempImage, error)
}

// Notifier receives the error toasts the session raises.
type Notifier interface {
	Notify(page, message string)
}

// File is one image picked for upload.
type File struct {
	Name string
	Data []byte
}

// Snapshot is the session as rendered.
type Snapshot struct {
	ConversationID string
	Messages       []domain.Message
	Pending        []domain.TempImage
	Failed         map[string]bool
	Busy           bool
	Uploading      bool
}

// Session is one admin's conversation with the agent: the transcript, the
// images waiting to go out with the next message and the busy flags.
type Session struct {
	agent    Agent
	uploader Uploader
	notifier Notifier
	newID    func() string

	mu             sync.Mutex
	messages       []domain.Message
	conversationID string
	pending        []domain.TempImage
	failed         map[string]bool
	busy           bool
	uploading      bool
}

// NewSession starts an empty transcript with no conversation id.
func NewSession(agent Agent, uploader Uploader, notifier Notifier) *Session {
	return &Session{
		agent:    agent,
		uploader: uploader,
		notifier: notifier,
		newID:    util.NewID,
		failed:   map[string]bool{},
	}
}

// AttachImages uploads files in one bulk call and queues the results, in input
// order, for the next message.
func (s *Session) AttachImages(ctx context.Context, files []File) ([]domain.TempImage, error) {
	if len(files) == 0 {
		return nil, ErrNoImages
	}
	payload := make([]domain.TempImageData, 0, len(files))
	for _, f := range files {
		payload = append(payload, domain.TempImageData{Base64Data: base64.StdEncoding.EncodeToString(f.Data)})
	}

	s.mu.Lock()
	s.uploading = true
	s.mu.Unlock()

	uploaded, err := s.uploader.UploadTemporary(ctx, payload)

	s.mu.Lock()
	s.uploading = false
	if err == nil {
		s.pending = append(s.pending, uploaded...)
	}
	s.mu.Unlock()

	if err != nil {
		slog.Error("image upload failed", "count", len(files), "err", err)
		s.toast("Failed to upload images.")
		return nil, fmt.Errorf("upload images: %w", err)
	}
	return uploaded, nil
}

// RemovePending drops a queued image by name. It reports whether one was removed.
func (s *Session) RemovePending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, img := range s.pending {
		if img.Name == name {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Send appends the user message right away, then asks the agent. The returned
// message is the assistant's reply.
func (s *Session) Send(ctx context.Context, text string) (domain.Message, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return domain.Message{}, ErrBusy
	}
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return domain.Message{}, ErrEmptyMessage
	}
	urls := make([]string, 0, len(s.pending))
	for _, img := range s.pending {
		urls = append(urls, img.URL)
	}
	msg := domain.Message{ID: s.newID(), Role: domain.RoleUser, Content: text, ImagesURLs: urls}
	s.messages = append(s.messages, msg)
	s.pending = nil
	s.busy = true
	conversationID := s.conversationID
	s.mu.Unlock()

	return s.exchange(ctx, msg, conversationID)
}

// Retry re-sends a failed user message with the current conversation id.
func (s *Session) Retry(ctx context.Context, messageID string) (domain.Message, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return domain.Message{}, ErrBusy
	}
	if !s.failed[messageID] {
		s.mu.Unlock()
		return domain.Message{}, fmt.Errorf("message %q: %w", messageID, ErrNotFailed)
	}
	var msg domain.Message
	for _, m := range s.messages {
		if m.ID == messageID {
			msg = m
			break
		}
	}
	s.busy = true
	conversationID := s.conversationID
	s.mu.Unlock()

	return s.exchange(ctx, msg, conversationID)
}

func (s *Session) exchange(ctx context.Context, msg domain.Message, conversationID string) (domain.Message, error) {
	resp, err := s.agent.Chat(ctx, domain.ChatRequest{
		Message:        msg.Content,
		ConversationID: conversationID,
		ImagesURLs:     msg.ImagesURLs,
	})
	if err == nil && len(resp.Messages) == 0 {
		err = ErrNoReply
	}

	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.failed[msg.ID] = true
		s.mu.Unlock()
		slog.Error("chat send failed", "message_id", msg.ID, "conversation_id", conversationID, "err", err)
		s.toast("The assistant could not answer. Try again.")
		return domain.Message{}, err
	}
	if s.conversationID == "" {
		s.conversationID = resp.ConversationID
	}
	reply := domain.Message{ID: s.newID(), Role: domain.RoleAssistant, Content: resp.Messages[0].Content}
	s.messages = append(s.messages, reply)
	delete(s.failed, msg.ID)
	s.mu.Unlock()
	return reply, nil
}

// Snapshot copies the transcript and flags for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	failed := make(map[string]bool, len(s.failed))
	for id := range s.failed {
		failed[id] = true
	}
	return Snapshot{
		ConversationID: s.conversationID,
		Messages:       append([]domain.Message(nil), s.messages...),
		Pending:        append([]domain.TempImage(nil), s.pending...),
		Failed:         failed,
		Busy:           s.busy,
		Uploading:      s.uploading,
	}
}

// Lines splits message content into display lines.
func Lines(content string) []string {
	return strings.Split(content, "\n")
}

func (s *Session) toast(message string) {
	if s.notifier != nil {
		s.notifier.Notify(pageName, message)
	}
}
