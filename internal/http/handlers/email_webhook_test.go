package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sickdaywithferris/booking-ai-platform/internal/agent"
	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

type stubDispatcher struct {
	requests []agent.MessageRequest
	resp     *agent.Response
	err      error
}

func (d *stubDispatcher) ProcessMessage(_ context.Context, req agent.MessageRequest) (*agent.Response, error) {
	d.requests = append(d.requests, req)
	if d.err != nil {
		return nil, d.err
	}
	if d.resp != nil {
		return d.resp, nil
	}
	return &agent.Response{ConversationID: "conv-1", Intent: agent.IntentInquiry}, nil
}

const testSecret = "whsec_test"

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func receivedEvent(t *testing.T, from, text string, tags map[string]string) []byte {
	t.Helper()
	type tag struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	var tagList []tag
	for name, value := range tags {
		tagList = append(tagList, tag{Name: name, Value: value})
	}
	raw, err := json.Marshal(map[string]any{
		"type": "email.received",
		"data": map[string]any{
			"from":    from,
			"to":      []string{"booking@sickdaywithferris.band"},
			"subject": "Booking request",
			"text":    text,
			"tags":    tagList,
		},
	})
	require.NoError(t, err)
	return raw
}

func postWebhook(h *EmailWebhookHandler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/email", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Webhook-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestEmailWebhookProcessesReceivedEvent(t *testing.T) {
	dispatcher := &stubDispatcher{}
	h := NewEmailWebhookHandler(testSecret, dispatcher, logging.New("error"))

	payload := receivedEvent(t, "Sarah Johnson <sarah@thebasement.com>",
		"Are you free March 15th?", map[string]string{"conversation_id": "conv-42"})
	rec := postWebhook(h, payload, signPayload(testSecret, payload))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, dispatcher.requests, 1)
	got := dispatcher.requests[0]
	assert.Equal(t, "conv-42", got.ConversationID)
	assert.Equal(t, "sarah@thebasement.com", got.SenderEmail)
	assert.Equal(t, "Sarah Johnson", got.SenderName)
	assert.Equal(t, "Are you free March 15th?", got.Message)
	assert.Equal(t, "email", got.Channel)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "processed", body["status"])
	assert.Equal(t, "conv-1", body["conversation_id"])
}

func TestEmailWebhookBareAddress(t *testing.T) {
	dispatcher := &stubDispatcher{}
	h := NewEmailWebhookHandler(testSecret, dispatcher, logging.New("error"))

	payload := receivedEvent(t, "sarah@thebasement.com", "Hello", nil)
	rec := postWebhook(h, payload, signPayload(testSecret, payload))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, dispatcher.requests, 1)
	assert.Equal(t, "sarah@thebasement.com", dispatcher.requests[0].SenderEmail)
	assert.Empty(t, dispatcher.requests[0].SenderName)
	assert.Empty(t, dispatcher.requests[0].ConversationID)
}

func TestEmailWebhookHTMLFallback(t *testing.T) {
	dispatcher := &stubDispatcher{}
	h := NewEmailWebhookHandler(testSecret, dispatcher, logging.New("error"))

	raw, err := json.Marshal(map[string]any{
		"type": "email.received",
		"data": map[string]any{
			"from": "sarah@thebasement.com",
			"html": "<p>Are you <b>free</b> March 15th?</p>",
		},
	})
	require.NoError(t, err)
	rec := postWebhook(h, raw, signPayload(testSecret, raw))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, dispatcher.requests, 1)
	assert.Equal(t, "Are you free March 15th?", dispatcher.requests[0].Message)
}

func TestEmailWebhookInvalidSignature(t *testing.T) {
	dispatcher := &stubDispatcher{}
	h := NewEmailWebhookHandler(testSecret, dispatcher, logging.New("error"))

	payload := receivedEvent(t, "sarah@thebasement.com", "Hello", nil)
	rec := postWebhook(h, payload, signPayload("wrong-secret", payload))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, dispatcher.requests)
}

func TestEmailWebhookMissingSignature(t *testing.T) {
	h := NewEmailWebhookHandler(testSecret, &stubDispatcher{}, logging.New("error"))

	payload := receivedEvent(t, "sarah@thebasement.com", "Hello", nil)
	rec := postWebhook(h, payload, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmailWebhookRotatedSecretAnyTokenMatches(t *testing.T) {
	dispatcher := &stubDispatcher{}
	h := NewEmailWebhookHandler(testSecret, dispatcher, logging.New("error"))

	payload := receivedEvent(t, "sarah@thebasement.com", "Hello", nil)
	header := signPayload("old-secret", payload) + " " + signPayload(testSecret, payload)
	rec := postWebhook(h, payload, header)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, dispatcher.requests, 1)
}

func TestEmailWebhookNoSecretConfigured(t *testing.T) {
	h := NewEmailWebhookHandler("", &stubDispatcher{}, logging.New("error"))

	payload := receivedEvent(t, "sarah@thebasement.com", "Hello", nil)
	rec := postWebhook(h, payload, signPayload(testSecret, payload))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEmailWebhookIgnoresOtherEvents(t *testing.T) {
	dispatcher := &stubDispatcher{}
	h := NewEmailWebhookHandler(testSecret, dispatcher, logging.New("error"))

	raw, err := json.Marshal(map[string]any{
		"type": "email.delivered",
		"data": map[string]any{"from": "sarah@thebasement.com"},
	})
	require.NoError(t, err)
	rec := postWebhook(h, raw, signPayload(testSecret, raw))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.requests)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ignored", body["status"])
}

func TestEmailWebhookMissingBody(t *testing.T) {
	dispatcher := &stubDispatcher{}
	h := NewEmailWebhookHandler(testSecret, dispatcher, logging.New("error"))

	payload := receivedEvent(t, "sarah@thebasement.com", "   ", nil)
	rec := postWebhook(h, payload, signPayload(testSecret, payload))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, dispatcher.requests)
}

func TestEmailWebhookInvalidJSON(t *testing.T) {
	h := NewEmailWebhookHandler(testSecret, &stubDispatcher{}, logging.New("error"))

	payload := []byte("{not json")
	rec := postWebhook(h, payload, signPayload(testSecret, payload))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailWebhookDispatchError(t *testing.T) {
	dispatcher := &stubDispatcher{err: errors.New("engine down")}
	h := NewEmailWebhookHandler(testSecret, dispatcher, logging.New("error"))

	payload := receivedEvent(t, "sarah@thebasement.com", "Hello", nil)
	rec := postWebhook(h, payload, signPayload(testSecret, payload))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseAddress(t *testing.T) {
	name, email := parseAddress("Sarah Johnson <sarah@thebasement.com>")
	assert.Equal(t, "Sarah Johnson", name)
	assert.Equal(t, "sarah@thebasement.com", email)

	name, email = parseAddress("  sarah@thebasement.com ")
	assert.Empty(t, name)
	assert.Equal(t, "sarah@thebasement.com", email)
}
