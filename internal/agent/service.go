package agent

import (
	"context"
	"time"
)

// Service describes how the booking conversation engine behaves. Exactly one
// pass through the stage graph runs per inbound message.
type Service interface {
	ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error)
	GetHistory(ctx context.Context, conversationID string) ([]StoredMessage, error)
}

// MessageRequest is one inbound message from the email gateway or the API.
// An empty ConversationID opens a new conversation.
type MessageRequest struct {
	ConversationID string     `json:"conversation_id,omitempty"`
	SenderEmail    string     `json:"sender_email"`
	SenderName     string     `json:"sender_name,omitempty"`
	SenderRole     SenderRole `json:"sender_role,omitempty"`
	Message        string     `json:"message"`
	Channel        string     `json:"channel,omitempty"`
}

// Response is the DTO returned to the API layer after a pass completes.
type Response struct {
	ConversationID   string    `json:"conversation_id"`
	Message          string    `json:"message"`
	Intent           Intent    `json:"intent"`
	RequiresApproval bool      `json:"requires_approval"`
	NextAction       string    `json:"next_action,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
