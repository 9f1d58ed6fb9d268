package agent

import "context"

// checkApproval observes the approval outcome of the pass. Stage handlers
// decide whether a reply is gated; this step only records the decision and
// fires the operator notice. Notification failures never fail the pass.
func (e *Engine) checkApproval(ctx context.Context, st State) State {
	if !st.RequiresApproval {
		return st
	}

	e.logger.Info("response held for human approval",
		"conversation_id", st.ConversationID,
		"intent", string(st.Intent),
		"next_action", st.NextAction)
	if e.metrics != nil {
		e.metrics.IncApprovalGated(string(st.Intent))
	}

	if e.notifier != nil {
		summary := st.lastAssistantText()
		if err := e.notifier.NotifyApprovalNeeded(ctx, st.ConversationID, st.NextAction, summary); err != nil {
			e.logger.Error("failed to send approval notification",
				"conversation_id", st.ConversationID, "error", err)
		}
	}
	return st
}
