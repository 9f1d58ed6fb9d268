package agent

import (
	"context"
	"time"
)

// RosterMember is an internal party whose email the desk recognizes.
type RosterMember struct {
	Email string
	Name  string
}

// Contact is a resolved external correspondent. Exactly one contact exists
// per distinct email across all conversations.
type Contact struct {
	ID    string
	Email string
	Name  string
}

// Participant describes one party on a conversation record.
type Participant struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Availability statuses a roster member can record for a date range.
const (
	AvailabilityUnavailable = "unavailable"
	AvailabilityTentative   = "tentative"
	AvailabilityAvailable   = "available"
)

// AvailabilityBlock is one recorded availability window for a roster member.
// Start and End are inclusive dates.
type AvailabilityBlock struct {
	MemberEmail string
	Start       time.Time
	End         time.Time
	Status      string
	Notes       string
}

// Covers reports whether the block's date range contains the given day.
func (b AvailabilityBlock) Covers(day time.Time) bool {
	y, m, d := day.Date()
	day = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !day.Before(b.Start) && !day.After(b.End)
}

// MessageAppend is one transcript row to persist.
type MessageAppend struct {
	ConversationID string
	Role           string // "user" or "assistant"
	SenderType     string
	SenderID       string
	SenderName     string
	Content        string
}

// StoredMessage is a transcript row read back from the store.
type StoredMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	SenderType     string    `json:"sender_type"`
	SenderName     string    `json:"sender_name"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the persistence surface the agent depends on. The engine treats
// AppendMessage failures as non-fatal; everything else fails the pass.
type Store interface {
	GetConstraints(ctx context.Context) ([]Constraint, error)
	GetRosterMembers(ctx context.Context) ([]RosterMember, error)
	CreateAvailability(ctx context.Context, block AvailabilityBlock) error
	ListAvailabilityOn(ctx context.Context, day time.Time) ([]AvailabilityBlock, error)
	GetContactByEmail(ctx context.Context, email string) (*Contact, error)
	CreateContact(ctx context.Context, email, name string) (string, error)
	CreateConversation(ctx context.Context, channel string, participants []Participant) (string, error)
	AppendMessage(ctx context.Context, msg MessageAppend) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]StoredMessage, error)
}
