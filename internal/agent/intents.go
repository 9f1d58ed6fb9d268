package agent

import (
	"context"
	"fmt"
	"strings"
)

// intentKeywordGroups maps classifier output text onto intents. Groups are
// checked in priority order; the first group with a matching keyword wins.
var intentKeywordGroups = []struct {
	intent   Intent
	keywords []string
}{
	{IntentInquiry, []string{"venue", "booking"}},
	{IntentAvailability, []string{"availability", "available"}},
	{IntentNegotiation, []string{"negotiat", "price", "offer"}},
	{IntentContract, []string{"contract"}},
}

// matchIntent buckets raw classifier output into the closed intent set.
func matchIntent(text string) Intent {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, group := range intentKeywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.intent
			}
		}
	}
	return IntentGeneral
}

// classifyIntent assigns an intent to the latest inbound turn.
//
// After classification one deterministic rule applies: on the very first
// inbound turn of a conversation, a sender whose email is not on the roster
// is always routed to the structured inquiry flow, whatever the model said.
// New outside contacts must have their booking fields collected before any
// other stage may run. If the roster cannot be fetched it is treated as
// empty, which keeps unknown senders on the stricter path instead of letting
// a lookup failure bypass it.
func (e *Engine) classifyIntent(ctx context.Context, st State) (State, error) {
	inbound := st.inboundTurns()
	if len(inbound) == 0 {
		st.Intent = IntentGeneral
		return st, nil
	}

	prompt := formatPrompt(intentClassificationPrompt, map[string]string{
		"sender_type":          string(st.SenderRole),
		"conversation_history": st.historyWindow(5),
	})

	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.cfg.Model,
		System:      []string{e.basePrompt(), prompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: st.lastInboundText()}},
		Temperature: 0.3,
		MaxTokens:   50,
	})
	if err != nil {
		return st, fmt.Errorf("agent: intent classification failed: %w", err)
	}
	st.Intent = matchIntent(resp.Text)

	if len(inbound) == 1 {
		roster, rosterErr := e.store.GetRosterMembers(ctx)
		if rosterErr != nil {
			e.logger.Error("failed to fetch roster, treating as empty",
				"conversation_id", st.ConversationID, "error", rosterErr)
			roster = nil
		}
		if !rosterContains(roster, st.SenderEmail) {
			st.Intent = IntentInquiry
		}
	}

	e.logger.Info("intent classified", "conversation_id", st.ConversationID, "intent", string(st.Intent))
	return st, nil
}

func rosterContains(roster []RosterMember, email string) bool {
	needle := strings.ToLower(strings.TrimSpace(email))
	if needle == "" {
		return false
	}
	for _, m := range roster {
		if strings.ToLower(strings.TrimSpace(m.Email)) == needle {
			return true
		}
	}
	return false
}
