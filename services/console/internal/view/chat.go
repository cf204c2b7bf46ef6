package view

import (
	"catalogadmin/services/console/internal/chat"
)

type MessageView struct {
	ID     string   `json:"id"`
	Role   string   `json:"role"`
	Lines  []string `json:"lines"`
	Images []string `json:"images"`
	Failed bool     `json:"failed"`
}

type PendingImage struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type ChatView struct {
	ConversationID string         `json:"conversationId,omitempty"`
	Messages       []MessageView  `json:"messages"`
	Pending        []PendingImage `json:"pending"`
	Busy           bool           `json:"busy"`
	Uploading      bool           `json:"uploading"`
}

func Chat(snap chat.Snapshot) ChatView {
	out := ChatView{
		ConversationID: snap.ConversationID,
		Messages:       make([]MessageView, 0, len(snap.Messages)),
		Pending:        make([]PendingImage, 0, len(snap.Pending)),
		Busy:           snap.Busy,
		Uploading:      snap.Uploading,
	}
	for _, m := range snap.Messages {
		images := m.ImagesURLs
		if images == nil {
			images = []string{}
		}
		out.Messages = append(out.Messages, MessageView{
			ID:     m.ID,
			Role:   string(m.Role),
			Lines:  chat.Lines(m.Content),
			Images: images,
			Failed: snap.Failed[m.ID],
		})
	}
	for _, img := range snap.Pending {
		out.Pending = append(out.Pending, PendingImage{Name: img.Name, URL: img.URL})
	}
	return out
}
