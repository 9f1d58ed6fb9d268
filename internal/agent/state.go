package agent

import (
	"fmt"
	"strings"
)

// SenderRole identifies who is on the other side of the conversation.
type SenderRole string

const (
	SenderVenue        SenderRole = "venue"
	SenderRosterMember SenderRole = "roster_member"
	SenderAdmin        SenderRole = "admin"
)

// Intent is the coarse category assigned to a turn; it selects the stage
// handler that runs for the rest of the pass.
type Intent string

const (
	IntentInquiry      Intent = "venue_inquiry"
	IntentAvailability Intent = "availability_request"
	IntentNegotiation  Intent = "negotiation"
	IntentContract     Intent = "contract_request"
	IntentGeneral      Intent = "general"
)

// Next-action tags recorded when a pass needs human sign-off.
const (
	NextActionPendingApproval  = "pending_approval"
	NextActionContractApproval = "contract_approval_needed"
)

// Turn is one transcript entry. Ordering within Turns is the only ordering
// guarantee; timestamps never drive control flow.
type Turn struct {
	Role    string `json:"role"` // ChatRoleUser or ChatRoleAssistant
	Content string `json:"content"`
}

// State carries everything one pass through the agent graph needs. Stage
// handlers receive it by value and return a replacement; nothing mutates a
// previous stage's copy.
type State struct {
	ConversationID string     `json:"conversation_id"`
	SenderEmail    string     `json:"sender_email"`
	SenderName     string     `json:"sender_name"`
	SenderRole     SenderRole `json:"sender_role"`

	Turns []Turn  `json:"turns"`
	Slots SlotSet `json:"slots"`

	Intent           Intent       `json:"intent"`
	Constraints      []Constraint `json:"-"`
	RequiresApproval bool         `json:"requires_approval"`
	NextAction       string       `json:"next_action,omitempty"`

	// persistFrom marks where this pass's new turns begin in Turns; the
	// persister only writes entries at or after this index.
	persistFrom int
}

// appendTurn returns a new state with the turn added, leaving the receiver's
// transcript slice untouched.
func (s State) appendTurn(role, content string) State {
	turns := make([]Turn, len(s.Turns), len(s.Turns)+1)
	copy(turns, s.Turns)
	s.Turns = append(turns, Turn{Role: role, Content: content})
	return s
}

// inboundTurns returns the user-authored turns in order.
func (s State) inboundTurns() []Turn {
	var inbound []Turn
	for _, turn := range s.Turns {
		if turn.Role == ChatRoleUser {
			inbound = append(inbound, turn)
		}
	}
	return inbound
}

// lastInboundText returns the most recent user turn's content, if any.
func (s State) lastInboundText() string {
	inbound := s.inboundTurns()
	if len(inbound) == 0 {
		return ""
	}
	return inbound[len(inbound)-1].Content
}

// inboundText concatenates every user turn; the slot extractor scans the
// whole conversation, not just the latest message.
func (s State) inboundText() string {
	inbound := s.inboundTurns()
	lines := make([]string, 0, len(inbound))
	for _, turn := range inbound {
		lines = append(lines, turn.Content)
	}
	return strings.Join(lines, "\n")
}

// historyWindow renders the last n turns as prompt context.
func (s State) historyWindow(n int) string {
	turns := s.Turns
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		label := "User"
		if turn.Role == ChatRoleAssistant {
			label = "Agent"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, turn.Content))
	}
	return strings.Join(lines, "\n")
}

// chatMessages converts the transcript into completion-client messages.
func (s State) chatMessages() []ChatMessage {
	msgs := make([]ChatMessage, 0, len(s.Turns))
	for _, turn := range s.Turns {
		msgs = append(msgs, ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	return msgs
}

// lastAssistantText returns the reply generated during this pass, if any.
func (s State) lastAssistantText() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == ChatRoleAssistant {
			return s.Turns[i].Content
		}
	}
	return ""
}
