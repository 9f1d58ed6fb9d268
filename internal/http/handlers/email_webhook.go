// Package handlers contains the HTTP handlers that sit outside the agent
// package: inbound gateway webhooks and operational endpoints.
package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/sickdaywithferris/booking-ai-platform/internal/agent"
	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

const eventEmailReceived = "email.received"

// MessageDispatcher accepts one inbound message for processing.
type MessageDispatcher interface {
	ProcessMessage(ctx context.Context, req agent.MessageRequest) (*agent.Response, error)
}

// EmailWebhookHandler receives inbound email events from the email gateway
// (Resend-style payloads) and feeds them to the booking agent.
type EmailWebhookHandler struct {
	secret     string
	dispatcher MessageDispatcher
	logger     *logging.Logger
}

func NewEmailWebhookHandler(secret string, dispatcher MessageDispatcher, logger *logging.Logger) *EmailWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &EmailWebhookHandler{
		secret:     strings.TrimSpace(secret),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type emailWebhookEvent struct {
	Type string           `json:"type"`
	Data emailWebhookData `json:"data"`
}

type emailWebhookData struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
	Tags    []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"tags"`
}

// Handle processes POST /webhooks/email. Signature verification happens
// before anything else touches the payload.
func (h *EmailWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.logger.Error("email webhook secret not configured")
		http.Error(w, "webhook secret not configured", http.StatusInternalServerError)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !verifyWebhookSignature(h.secret, payload, r.Header.Get("Webhook-Signature")) {
		h.logger.Warn("invalid email webhook signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var evt emailWebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	// Delivery/bounce status events are acknowledged without processing.
	if evt.Type != eventEmailReceived {
		h.logger.Debug("ignoring email webhook event", "type", evt.Type)
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	senderName, senderEmail := parseAddress(evt.Data.From)
	body := evt.Data.Text
	if strings.TrimSpace(body) == "" {
		body = stripHTMLTags(evt.Data.HTML)
	}
	if strings.TrimSpace(body) == "" || senderEmail == "" {
		http.Error(w, "payload missing sender or body", http.StatusBadRequest)
		return
	}

	req := agent.MessageRequest{
		ConversationID: tagValue(evt.Data, "conversation_id"),
		SenderEmail:    senderEmail,
		SenderName:     senderName,
		Message:        body,
		Channel:        "email",
	}

	resp, err := h.dispatcher.ProcessMessage(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to process inbound email",
			"sender", senderEmail, "subject", evt.Data.Subject, "error", err)
		http.Error(w, "failed to process email", http.StatusInternalServerError)
		return
	}

	h.logger.Info("email webhook processed",
		"sender", senderEmail, "subject", evt.Data.Subject,
		"conversation_id", resp.ConversationID, "intent", string(resp.Intent))
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "processed",
		"conversation_id": resp.ConversationID,
	})
}

// verifyWebhookSignature checks an HMAC-SHA256 of the raw body against the
// header's space-separated "v1,<base64>" tokens. Any matching token passes,
// which allows secret rotation with overlapping keys.
func verifyWebhookSignature(secret string, payload []byte, header string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, token := range strings.Fields(header) {
		version, sig, ok := strings.Cut(token, ",")
		if !ok || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return true
		}
	}
	return false
}

var addressRE = regexp.MustCompile(`^\s*(.*?)\s*<([^>]+)>\s*$`)

// parseAddress splits "Name <email>" into its parts; a bare address yields
// an empty name.
func parseAddress(from string) (name, email string) {
	if m := addressRE.FindStringSubmatch(from); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", strings.TrimSpace(from)
}

var htmlTagRE = regexp.MustCompile(`<[^>]*>`)

func stripHTMLTags(html string) string {
	return strings.TrimSpace(htmlTagRE.ReplaceAllString(html, ""))
}

func tagValue(data emailWebhookData, name string) string {
	for _, tag := range data.Tags {
		if tag.Name == name {
			return tag.Value
		}
	}
	return ""
}

func (h *EmailWebhookHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
