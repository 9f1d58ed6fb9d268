package agent

import (
	"context"
	"fmt"
	"strings"
)

// handleInquiry runs the structured venue-inquiry flow: extract and merge
// booking fields from everything the venue has written so far, then either
// ask for what is still missing or hand the conversation to the
// availability stage.
func (e *Engine) handleInquiry(ctx context.Context, st State) (State, error) {
	constraints, err := e.store.GetConstraints(ctx)
	if err != nil {
		return st, fmt.Errorf("agent: failed to load booking constraints: %w", err)
	}
	st.Constraints = constraints

	slots, err := e.extractSlots(ctx, st)
	if err != nil {
		return st, err
	}
	st.Slots = slots

	missing := slots.MissingFields()
	if len(missing) == 0 {
		// Every field collected; the next stage runs on the following pass.
		st.Intent = IntentAvailability
		st.RequiresApproval = false
		e.logger.Info("inquiry details complete, handing off to availability",
			"conversation_id", st.ConversationID)
		return st, nil
	}

	followUp := "To proceed, could you please provide the following details: " + strings.Join(missing, ", ") + "."

	prompt := formatPrompt(venueInquiryPrompt, e.withIdentity(map[string]string{
		"venue_name":          venueName(st),
		"requested_dates":     slots.RequestedDates,
		"booking_constraints": renderConstraints(constraints),
	}))

	reply, err := e.generate(ctx, st, prompt, 300)
	if err != nil {
		return st, err
	}
	reply = e.patchSignature(reply) + "\n\n" + followUp

	st = st.appendTurn(ChatRoleAssistant, reply)
	st.RequiresApproval = false
	return st, nil
}

// patchSignature replaces signature placeholders some models leave in
// drafted email text with the configured agent name.
func (e *Engine) patchSignature(reply string) string {
	reply = strings.ReplaceAll(reply, "[Your Name]", e.cfg.AgentName)
	reply = strings.ReplaceAll(reply, "[YourName]", e.cfg.AgentName)
	return reply
}

// withIdentity merges stage context over the band identity map.
func (e *Engine) withIdentity(ctx map[string]string) map[string]string {
	merged := e.identity()
	for k, v := range ctx {
		merged[k] = v
	}
	return merged
}

func venueName(st State) string {
	if name := strings.TrimSpace(st.SenderName); name != "" {
		return name
	}
	return "Venue"
}
