package agent

import (
	"context"
	"fmt"
	"strings"
)

// handleNegotiation evaluates a payment offer against the band's
// constraints. When the drafted reply signals acceptance it is held for
// human approval instead of going out directly.
func (e *Engine) handleNegotiation(ctx context.Context, st State) (State, error) {
	constraints, err := e.store.GetConstraints(ctx)
	if err != nil {
		return st, fmt.Errorf("agent: failed to load booking constraints: %w", err)
	}
	st.Constraints = constraints

	prompt := formatPrompt(negotiationPrompt, e.withIdentity(map[string]string{
		"venue_name":           venueName(st),
		"payment_offer":        st.Slots.PaymentOffer,
		"booking_constraints":  renderConstraints(constraints),
		"conversation_history": st.historyWindow(6),
	}))

	reply, err := e.generate(ctx, st, prompt, 300)
	if err != nil {
		return st, err
	}
	reply = e.patchSignature(reply)

	st = st.appendTurn(ChatRoleAssistant, reply)
	if acceptsOffer(reply) {
		st.RequiresApproval = true
		st.NextAction = NextActionPendingApproval
	} else {
		st.RequiresApproval = false
		st.NextAction = ""
	}
	return st, nil
}

// acceptsOffer reports whether the drafted reply commits to the venue's
// terms. The negotiation prompt instructs the model to use these words
// only when the offer clears the configured rates.
func acceptsOffer(reply string) bool {
	lower := strings.ToLower(reply)
	return strings.Contains(lower, "accept") || strings.Contains(lower, "agree")
}
