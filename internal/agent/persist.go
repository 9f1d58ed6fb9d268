package agent

import (
	"context"
	"strings"
)

const (
	senderTypeAgent   = "agent"
	senderTypeContact = "contact"

	agentSenderID   = "booking-agent"
	agentSenderName = "Booking Agent"
)

// persistTranscript writes the turns added during this pass to durable
// storage. Persistence is best effort: a failed append is logged and
// skipped so a storage outage cannot eat a reply that was already
// generated.
func (e *Engine) persistTranscript(ctx context.Context, st State) {
	var contactID, contactName string

	for _, turn := range st.Turns[st.persistFrom:] {
		msg := MessageAppend{
			ConversationID: st.ConversationID,
			Role:           string(turn.Role),
			Content:        turn.Content,
		}
		switch turn.Role {
		case ChatRoleAssistant:
			msg.SenderType = senderTypeAgent
			msg.SenderID = agentSenderID
			msg.SenderName = agentSenderName
		default:
			if contactID == "" {
				contactID, contactName = e.resolveContact(ctx, st)
			}
			msg.SenderType = senderTypeContact
			msg.SenderID = contactID
			msg.SenderName = contactName
		}
		if err := e.store.AppendMessage(ctx, msg); err != nil {
			e.logger.Error("failed to persist message",
				"conversation_id", st.ConversationID,
				"role", string(turn.Role), "error", err)
		}
	}
}

// resolveContact looks up or creates the contact record for the sender.
// On failure the turn is still persisted with whatever identity is known.
func (e *Engine) resolveContact(ctx context.Context, st State) (id, name string) {
	contact, err := e.store.GetContactByEmail(ctx, st.SenderEmail)
	if err != nil {
		e.logger.Error("failed to look up contact",
			"conversation_id", st.ConversationID, "email", st.SenderEmail, "error", err)
		return "", e.safeName(st, "")
	}
	if contact != nil {
		return contact.ID, e.safeName(st, contact.Name)
	}

	id, err = e.store.CreateContact(ctx, st.SenderEmail, e.safeName(st, ""))
	if err != nil {
		e.logger.Error("failed to create contact",
			"conversation_id", st.ConversationID, "email", st.SenderEmail, "error", err)
		return "", e.safeName(st, "")
	}
	return id, e.safeName(st, "")
}

// safeName picks the best available display name for the sender.
func (e *Engine) safeName(st State, contactName string) string {
	if name := strings.TrimSpace(contactName); name != "" {
		return name
	}
	if name := strings.TrimSpace(st.SenderName); name != "" {
		return name
	}
	if local := emailLocalPart(st.SenderEmail); local != "" {
		return local
	}
	return "Unknown"
}
