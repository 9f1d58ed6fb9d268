package agent

import "context"

// handleContract drafts contract terms from the collected booking
// details. Contract drafts always wait for human approval.
func (e *Engine) handleContract(ctx context.Context, st State) (State, error) {
	prompt := formatPrompt(contractGenerationPrompt, e.withIdentity(map[string]string{
		"venue_name":           venueName(st),
		"requested_dates":      st.Slots.RequestedDates,
		"event_type":           st.Slots.EventType,
		"expected_attendance":  st.Slots.ExpectedAttendance,
		"payment_offer":        st.Slots.PaymentOffer,
		"conversation_history": st.historyWindow(8),
	}))

	reply, err := e.generate(ctx, st, prompt, 300)
	if err != nil {
		return st, err
	}

	st = st.appendTurn(ChatRoleAssistant, e.patchSignature(reply))
	st.RequiresApproval = true
	st.NextAction = NextActionContractApproval
	return st, nil
}
