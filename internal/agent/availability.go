package agent

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Availability actions recognized within the availability stage.
const (
	availabilityActionBlock = "BLOCK"
	availabilityActionCheck = "CHECK"
	availabilityActionNone  = "NONE"
)

const availabilityDateLayout = "2006-01-02"

// handleAvailability runs the availability stage. Messages that block out
// dates or check recorded availability are resolved against the availability
// calendar; anything else drafts an availability ask addressed to a band
// member. Nothing in this stage is ever held for approval.
func (e *Engine) handleAvailability(ctx context.Context, st State) (State, error) {
	action, err := e.availabilityAction(ctx, st)
	if err != nil {
		return st, err
	}

	if action == availabilityActionBlock || action == availabilityActionCheck {
		roster, rosterErr := e.store.GetRosterMembers(ctx)
		if rosterErr != nil {
			return st, fmt.Errorf("agent: failed to load roster: %w", rosterErr)
		}

		start, end, dateErr := e.availabilityDates(ctx, st)
		if dateErr != nil {
			return st, dateErr
		}
		if start.IsZero() {
			if action == availabilityActionCheck {
				return e.availabilityReply(st, "Please specify a date to check availability."), nil
			}
			return e.availabilityReply(st, "Sorry, I could not process that."), nil
		}

		if action == availabilityActionCheck {
			return e.checkAvailability(ctx, st, roster, start)
		}
		// Only insiders may write to the calendar; a venue message that
		// happens to read like a block falls through to the draft flow.
		if e.isInsider(st, roster) {
			return e.blockAvailability(ctx, st, roster, start, end)
		}
	}

	return e.draftAvailabilityAsk(ctx, st, "")
}

// checkAvailability answers an availability question from the recorded
// calendar. Band-level answers for outside senders never name members.
func (e *Engine) checkAvailability(ctx context.Context, st State, roster []RosterMember, day time.Time) (State, error) {
	target, err := e.availabilityMember(ctx, st, roster)
	if err != nil {
		return st, err
	}

	blocks, err := e.store.ListAvailabilityOn(ctx, day)
	if err != nil {
		return st, fmt.Errorf("agent: failed to load availability: %w", err)
	}
	unavailable := map[string]bool{}
	for _, b := range blocks {
		if b.Status == AvailabilityUnavailable {
			unavailable[strings.ToLower(b.MemberEmail)] = true
		}
	}
	dateStr := formatAvailabilityDates(day, day)

	if target != "ALL" && target != availabilityActionNone && target != "" {
		member := resolveRosterMember(roster, target)
		if member == nil {
			return e.availabilityReply(st, availabilityUnknownMemberReply(target, roster)), nil
		}
		if unavailable[strings.ToLower(member.Email)] {
			return e.availabilityReply(st, fmt.Sprintf("%s is not available on %s.", member.Name, dateStr)), nil
		}
		// Nothing recorded for the member, so ask them directly.
		return e.draftAvailabilityAsk(ctx, st, member.Name)
	}

	var blockedNames []string
	for _, m := range roster {
		if unavailable[strings.ToLower(m.Email)] {
			blockedNames = append(blockedNames, m.Name)
		}
	}

	if e.isInsider(st, roster) {
		if len(blockedNames) > 0 {
			return e.availabilityReply(st, fmt.Sprintf("Not available: %s on %s.", strings.Join(blockedNames, ", "), dateStr)), nil
		}
		return e.availabilityReply(st, fmt.Sprintf("The whole band is available on %s.", dateStr)), nil
	}
	if len(blockedNames) > 0 {
		return e.availabilityReply(st, fmt.Sprintf("%s is not available on %s.", e.cfg.BandName, dateStr)), nil
	}
	return e.availabilityReply(st, fmt.Sprintf("%s is available on %s.", e.cfg.BandName, dateStr)), nil
}

// blockAvailability records an unavailable window for one member or the
// whole band. Save failures produce an apologetic reply, not a failed pass.
func (e *Engine) blockAvailability(ctx context.Context, st State, roster []RosterMember, start, end time.Time) (State, error) {
	target, err := e.availabilityMember(ctx, st, roster)
	if err != nil {
		return st, err
	}
	dateStr := formatAvailabilityDates(start, end)

	if target == "ALL" {
		var failed []string
		for _, m := range roster {
			if blockErr := e.store.CreateAvailability(ctx, AvailabilityBlock{
				MemberEmail: m.Email,
				Start:       start,
				End:         end,
				Status:      AvailabilityUnavailable,
			}); blockErr != nil {
				e.logger.Error("availability save failed",
					"conversation_id", st.ConversationID, "member", m.Email, "error", blockErr)
				failed = append(failed, m.Name)
			}
		}
		if len(failed) > 0 {
			return e.availabilityReply(st, fmt.Sprintf("Blocked out %s for all except: %s.", dateStr, strings.Join(failed, ", "))), nil
		}
		return e.availabilityReply(st, fmt.Sprintf("Blocked out %s as unavailable for all band members.", dateStr)), nil
	}

	member := resolveRosterMember(roster, target)
	if member == nil {
		if target != availabilityActionNone && target != "" {
			return e.availabilityReply(st, availabilityUnknownMemberReply(target, roster)), nil
		}
		// No member named: the sender blocks their own dates.
		member = resolveRosterEmail(roster, st.SenderEmail)
	}
	if member == nil {
		return e.availabilityReply(st, availabilityUnknownMemberReply(st.SenderEmail, roster)), nil
	}

	if blockErr := e.store.CreateAvailability(ctx, AvailabilityBlock{
		MemberEmail: member.Email,
		Start:       start,
		End:         end,
		Status:      AvailabilityUnavailable,
	}); blockErr != nil {
		e.logger.Error("availability save failed",
			"conversation_id", st.ConversationID, "member", member.Email, "error", blockErr)
		return e.availabilityReply(st, "Sorry, there was an error saving your unavailable date."), nil
	}
	return e.availabilityReply(st, fmt.Sprintf("Blocked out %s as unavailable.", dateStr)), nil
}

// draftAvailabilityAsk composes the email asking a band member to confirm
// their availability. member overrides the addressee; when empty, the sender
// is assumed to be the member being asked.
func (e *Engine) draftAvailabilityAsk(ctx context.Context, st State, member string) (State, error) {
	if member == "" {
		member = strings.TrimSpace(st.SenderName)
	}
	if member == "" {
		member = emailLocalPart(st.SenderEmail)
	}
	if member == "" {
		member = "Band Member"
	}

	prompt := formatPrompt(availabilityCollectionPrompt, e.withIdentity(map[string]string{
		"band_member_name":     member,
		"requested_dates":      st.Slots.RequestedDates,
		"conversation_history": st.historyWindow(6),
	}))

	reply, err := e.generate(ctx, st, prompt, 250)
	if err != nil {
		return st, err
	}
	return e.availabilityReply(st, e.patchSignature(reply)), nil
}

// availabilityAction classifies the message as a calendar write, a calendar
// read, or neither.
func (e *Engine) availabilityAction(ctx context.Context, st State) (string, error) {
	prompt := formatPrompt(availabilityActionPrompt, e.withIdentity(nil))
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.cfg.Model,
		System:      []string{e.basePrompt(), prompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: st.lastInboundText()}},
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		return "", fmt.Errorf("agent: availability action classification failed: %w", err)
	}
	switch action := strings.ToUpper(strings.TrimSpace(resp.Text)); action {
	case availabilityActionBlock, availabilityActionCheck:
		return action, nil
	default:
		return availabilityActionNone, nil
	}
}

// availabilityDates extracts the date range the message refers to. A zero
// start means no date was found.
func (e *Engine) availabilityDates(ctx context.Context, st State) (start, end time.Time, err error) {
	prompt := formatPrompt(availabilityDatePrompt, e.withIdentity(map[string]string{
		"today": time.Now().UTC().Format(availabilityDateLayout),
	}))
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.cfg.Model,
		System:      []string{e.basePrompt(), prompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: st.lastInboundText()}},
		Temperature: 0,
		MaxTokens:   50,
	})
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("agent: availability date extraction failed: %w", err)
	}
	start, end = parseAvailabilityDates(resp.Text)
	return start, end, nil
}

// availabilityMember extracts which roster member the message refers to,
// returning "ALL", "NONE", or a name to resolve.
func (e *Engine) availabilityMember(ctx context.Context, st State, roster []RosterMember) (string, error) {
	names := make([]string, 0, len(roster))
	for _, m := range roster {
		names = append(names, m.Name)
	}
	prompt := formatPrompt(availabilityMemberPrompt, e.withIdentity(map[string]string{
		"roster_names": strings.Join(names, ", "),
	}))
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.cfg.Model,
		System:      []string{e.basePrompt(), prompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: st.lastInboundText()}},
		Temperature: 0,
		MaxTokens:   50,
	})
	if err != nil {
		return "", fmt.Errorf("agent: availability member extraction failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (e *Engine) availabilityReply(st State, text string) State {
	st = st.appendTurn(ChatRoleAssistant, text)
	st.RequiresApproval = false
	return st
}

// isInsider reports whether the sender may read member-level availability
// and write to the calendar.
func (e *Engine) isInsider(st State, roster []RosterMember) bool {
	return st.SenderRole == SenderAdmin || rosterContains(roster, st.SenderEmail)
}

// parseAvailabilityDates parses "YYYY-MM-DD" or "YYYY-MM-DD to YYYY-MM-DD".
// Anything unparseable yields a zero start.
func parseAvailabilityDates(text string) (start, end time.Time) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, availabilityActionNone) {
		return time.Time{}, time.Time{}
	}
	if first, second, ok := strings.Cut(text, " to "); ok {
		start, err1 := time.Parse(availabilityDateLayout, strings.TrimSpace(first))
		end, err2 := time.Parse(availabilityDateLayout, strings.TrimSpace(second))
		if err1 != nil || err2 != nil || end.Before(start) {
			return time.Time{}, time.Time{}
		}
		return start, end
	}
	day, err := time.Parse(availabilityDateLayout, text)
	if err != nil {
		return time.Time{}, time.Time{}
	}
	return day, day
}

func formatAvailabilityDates(start, end time.Time) string {
	const layout = "January 2, 2006"
	if start.Equal(end) {
		return start.Format(layout)
	}
	return fmt.Sprintf("%s to %s", start.Format(layout), end.Format(layout))
}

// resolveRosterMember matches an extracted name against the roster, exact
// first, then substring in either direction.
func resolveRosterMember(roster []RosterMember, name string) *RosterMember {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for i, m := range roster {
		if strings.ToLower(strings.TrimSpace(m.Name)) == needle {
			return &roster[i]
		}
	}
	for i, m := range roster {
		full := strings.ToLower(strings.TrimSpace(m.Name))
		if strings.Contains(full, needle) || strings.Contains(needle, full) {
			return &roster[i]
		}
	}
	return nil
}

func resolveRosterEmail(roster []RosterMember, email string) *RosterMember {
	needle := strings.ToLower(strings.TrimSpace(email))
	for i, m := range roster {
		if strings.ToLower(strings.TrimSpace(m.Email)) == needle {
			return &roster[i]
		}
	}
	return nil
}

func availabilityUnknownMemberReply(name string, roster []RosterMember) string {
	names := make([]string, 0, len(roster))
	for _, m := range roster {
		names = append(names, m.Name)
	}
	return fmt.Sprintf("Sorry, I couldn't find a band member named %q. Band members: %s. Please specify the full name.",
		name, strings.Join(names, ", "))
}
