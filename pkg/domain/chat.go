package domain

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a transcript entry. ID is generated locally.
type Message struct {
	ID         string      `json:"id"`
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	ImagesURLs []string    `json:"imagesUrls,omitempty"`
}

type ChatRequest struct {
	Message        string   `json:"message"`
	ConversationID string   `json:"conversation_id,omitempty"`
	ImagesURLs     []string `json:"images_urls"`
}

type AgentMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type ChatResponse struct {
	ConversationID string         `json:"conversation_id"`
	Messages       []AgentMessage `json:"messages"`
}
