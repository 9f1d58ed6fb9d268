package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// SlotUnspecified is the sentinel for a booking field the venue has not
// provided yet. It is preserved as-is by normalization.
const SlotUnspecified = "unspecified"

// SlotSet holds the six canonical booking fields extracted from free text.
// Values are either canonical strings or SlotUnspecified.
type SlotSet struct {
	RequestedDates     string `json:"requested_dates"`
	EventType          string `json:"event_type"`
	ExpectedAttendance string `json:"expected_attendance"`
	PaymentOffer       string `json:"payment_offer"`
	PAAvailable        string `json:"pa_available"`
	LoadInTime         string `json:"load_in_time"`
}

// NewSlotSet returns a slot set with every field unspecified.
func NewSlotSet() SlotSet {
	return SlotSet{
		RequestedDates:     SlotUnspecified,
		EventType:          SlotUnspecified,
		ExpectedAttendance: SlotUnspecified,
		PaymentOffer:       SlotUnspecified,
		PAAvailable:        SlotUnspecified,
		LoadInTime:         SlotUnspecified,
	}
}

// slotFields fixes both the extraction keys and the order in which missing
// fields are reported back to the venue.
var slotFields = []struct {
	key   string
	label string
	get   func(*SlotSet) *string
}{
	{"requested_dates", "requested dates", func(s *SlotSet) *string { return &s.RequestedDates }},
	{"event_type", "event type", func(s *SlotSet) *string { return &s.EventType }},
	{"expected_attendance", "expected attendance", func(s *SlotSet) *string { return &s.ExpectedAttendance }},
	{"payment_offer", "payment offer", func(s *SlotSet) *string { return &s.PaymentOffer }},
	{"pa_available", "PA system availability", func(s *SlotSet) *string { return &s.PAAvailable }},
	{"load_in_time", "load-in time", func(s *SlotSet) *string { return &s.LoadInTime }},
}

// MissingFields lists the labels of still-unspecified fields in fixed order.
func (s SlotSet) MissingFields() []string {
	var missing []string
	for _, f := range slotFields {
		if *f.get(&s) == SlotUnspecified {
			missing = append(missing, f.label)
		}
	}
	return missing
}

// Complete reports whether every field has a canonical value.
func (s SlotSet) Complete() bool {
	return len(s.MissingFields()) == 0
}

// ---------- normalization keyword tables ----------

// Each table is the audit surface for one normalization rule; extending a
// rule means extending its table, not adding branches.
var (
	attendanceKeywords = []string{"attendance", "people", "folks", "guests", "attendees", "crowd", "residents"}
	paymentKeywords    = []string{"$", "budget", "pay", "fee", "quote", "pricing", "rate", "discount"}
	durationKeywords   = []string{"hour", "set", "duration", "evening", "afternoon"}
	vagueDateKeywords  = []string{"early", "late", "summer", "spring", "fall", "winter", "evening", "afternoon"}

	paAffirmative = map[string]struct{}{
		"yes":                            {},
		"provided":                       {},
		"available":                      {},
		"have pa":                        {},
		"have a pa":                      {},
		"pa provided":                    {},
		"sound and staging are provided": {},
	}
	paNegative = map[string]struct{}{
		"no":                    {},
		"not available":         {},
		"need pa":               {},
		"no pa":                 {},
		"don't have pa":         {},
		"do not have pa":        {},
		"need you to bring one": {},
	}
)

var (
	integerRE          = regexp.MustCompile(`\d+`)
	approxAttendanceRE = regexp.MustCompile(`about (\d+)`)
	budgetShorthandRE  = regexp.MustCompile(`(\d+) budg`)
	numericRE          = regexp.MustCompile(`\d+\.?\d*`)
)

// normalizeSlot maps a raw extracted value to its canonical form. It is
// idempotent: normalizeSlot(normalizeSlot(x)) == normalizeSlot(x).
func normalizeSlot(value string) string {
	s := strings.TrimSpace(value)
	if s == "" || s == SlotUnspecified {
		return SlotUnspecified
	}
	lower := strings.ToLower(s)

	if containsAny(lower, attendanceKeywords) {
		if m := integerRE.FindString(s); m != "" {
			return m
		}
		return s
	}
	if m := approxAttendanceRE.FindStringSubmatch(lower); m != nil {
		return m[1]
	}

	if containsAny(lower, paymentKeywords) {
		stripped := strings.ReplaceAll(s, ",", "")
		if m := integerRE.FindString(stripped); m != "" {
			return "$" + m
		}
		return s
	}
	if m := budgetShorthandRE.FindStringSubmatch(lower); m != nil {
		return "$" + m[1]
	}

	if _, ok := paAffirmative[lower]; ok {
		return "yes"
	}
	if _, ok := paNegative[lower]; ok {
		return "no"
	}
	if strings.Contains(lower, "bring one") || strings.Contains(lower, "you will need to bring") {
		return "no"
	}

	if containsAny(lower, durationKeywords) {
		if m := numericRE.FindString(s); m != "" {
			return m + " hours"
		}
		return s
	}
	if containsAny(lower, vagueDateKeywords) {
		return s
	}
	return s
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// extractSlots runs one extraction pass over every inbound turn and merges
// the result into the current slot set. A completion failure is returned to
// the caller; a malformed completion falls back to the prior values so a
// flaky extraction never loses information already collected.
func (e *Engine) extractSlots(ctx context.Context, st State) (SlotSet, error) {
	prompt := fmt.Sprintf(extractionPromptFormat, st.inboundText())

	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.cfg.Model,
		System:      []string{extractionSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		return SlotSet{}, fmt.Errorf("agent: slot extraction failed: %w", err)
	}

	extracted := map[string]string{}
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &extracted); err != nil {
		e.logger.Warn("slot extraction returned malformed JSON, keeping prior values",
			"conversation_id", st.ConversationID, "error", err)
		extracted = map[string]string{}
	}

	merged := st.Slots
	for _, f := range slotFields {
		current := f.get(&merged)
		raw, ok := extracted[f.key]
		if !ok || strings.TrimSpace(raw) == "" {
			raw = *current
		}
		*current = normalizeSlot(raw)
	}
	return merged, nil
}

// stripCodeFence removes a markdown fence some models wrap JSON output in.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
