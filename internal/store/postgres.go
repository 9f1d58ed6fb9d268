// Package store implements the Postgres-backed persistence layer for the
// booking agent: contacts, roster, constraints, conversations, and
// transcript messages.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sickdaywithferris/booking-ai-platform/internal/agent"
)

// Postgres implements agent.Store on database/sql.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	if db == nil {
		panic("store: db cannot be nil")
	}
	return &Postgres{db: db}
}

var _ agent.Store = (*Postgres)(nil)

// GetConstraints loads the band's booking constraints.
func (s *Postgres) GetConstraints(ctx context.Context) ([]agent.Constraint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, value FROM booking_constraints WHERE active ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query constraints: %w", err)
	}
	defer rows.Close()

	var out []agent.Constraint
	for rows.Next() {
		var (
			kind string
			raw  []byte
		)
		if err := rows.Scan(&kind, &raw); err != nil {
			return nil, fmt.Errorf("store: failed to scan constraint: %w", err)
		}
		value := map[string]any{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &value); err != nil {
				return nil, fmt.Errorf("store: invalid constraint value for %s: %w", kind, err)
			}
		}
		out = append(out, agent.Constraint{Kind: kind, Value: value})
	}
	return out, rows.Err()
}

// GetRosterMembers lists the band roster.
func (s *Postgres) GetRosterMembers(ctx context.Context) ([]agent.RosterMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, name FROM roster_members ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query roster: %w", err)
	}
	defer rows.Close()

	var out []agent.RosterMember
	for rows.Next() {
		var m agent.RosterMember
		if err := rows.Scan(&m.Email, &m.Name); err != nil {
			return nil, fmt.Errorf("store: failed to scan roster member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateAvailability records one availability window for a roster member.
func (s *Postgres) CreateAvailability(ctx context.Context, block agent.AvailabilityBlock) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO availability (id, member_email, date_range_start, date_range_end, status, notes)
		VALUES ($1, lower($2), $3, $4, $5, $6)`,
		uuid.NewString(), block.MemberEmail, block.Start, block.End,
		block.Status, block.Notes); err != nil {
		return fmt.Errorf("store: failed to create availability: %w", err)
	}
	return nil
}

// ListAvailabilityOn returns every availability window covering the day.
func (s *Postgres) ListAvailabilityOn(ctx context.Context, day time.Time) ([]agent.AvailabilityBlock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_email, date_range_start, date_range_end, status, notes
		FROM availability
		WHERE date_range_start <= $1 AND date_range_end >= $1
		ORDER BY member_email`, day)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query availability: %w", err)
	}
	defer rows.Close()

	var out []agent.AvailabilityBlock
	for rows.Next() {
		var b agent.AvailabilityBlock
		if err := rows.Scan(&b.MemberEmail, &b.Start, &b.End, &b.Status, &b.Notes); err != nil {
			return nil, fmt.Errorf("store: failed to scan availability: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetContactByEmail returns the contact for an email, or nil when unknown.
// Emails are compared case-insensitively.
func (s *Postgres) GetContactByEmail(ctx context.Context, email string) (*agent.Contact, error) {
	var c agent.Contact
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name FROM contacts WHERE lower(email) = lower($1)`, email).
		Scan(&c.ID, &c.Email, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to query contact: %w", err)
	}
	return &c, nil
}

// CreateContact inserts a contact, returning the existing row's id when the
// email is already present. Concurrent creates for the same email converge
// on one row.
func (s *Postgres) CreateContact(ctx context.Context, email, name string) (string, error) {
	id := uuid.NewString()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO contacts (id, email, name)
		VALUES ($1, lower($2), $3)
		ON CONFLICT (email) DO UPDATE SET name = COALESCE(NULLIF(contacts.name, ''), EXCLUDED.name)
		RETURNING id`, id, email, name).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("store: failed to create contact: %w", err)
	}
	return id, nil
}

// CreateConversation inserts a conversation row and returns its id.
func (s *Postgres) CreateConversation(ctx context.Context, channel string, participants []agent.Participant) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(participants)
	if err != nil {
		return "", fmt.Errorf("store: failed to encode participants: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, channel, participants)
		VALUES ($1, $2, $3)`, id, channel, raw); err != nil {
		return "", fmt.Errorf("store: failed to create conversation: %w", err)
	}
	return id, nil
}

// AppendMessage writes one transcript row.
func (s *Postgres) AppendMessage(ctx context.Context, msg agent.MessageAppend) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (id, conversation_id, role, sender_type, sender_id, sender_name, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), msg.ConversationID, msg.Role, msg.SenderType,
		nullable(msg.SenderID), msg.SenderName, msg.Content); err != nil {
		return fmt.Errorf("store: failed to append message: %w", err)
	}
	return nil
}

// ListMessages returns a conversation's transcript in insertion order.
func (s *Postgres) ListMessages(ctx context.Context, conversationID string, limit int) ([]agent.StoredMessage, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, sender_type, sender_name, content, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY seq ASC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []agent.StoredMessage
	for rows.Next() {
		var m agent.StoredMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.SenderType,
			&m.SenderName, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	if out == nil {
		out = []agent.StoredMessage{}
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
