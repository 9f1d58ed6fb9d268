package agent

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

// Handler wires HTTP requests to the agent dispatcher.
type Handler struct {
	dispatcher MessageProcessor
	history    HistoryReader
	logger     *logging.Logger
}

// MessageProcessor accepts one inbound message for processing.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error)
}

// HistoryReader reads a conversation transcript.
type HistoryReader interface {
	GetHistory(ctx context.Context, conversationID string) ([]StoredMessage, error)
}

// NewHandler creates an agent handler.
func NewHandler(dispatcher MessageProcessor, history HistoryReader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		dispatcher: dispatcher,
		history:    history,
		logger:     logger,
	}
}

// Message handles POST /agent/messages.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode message request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.dispatcher.ProcessMessage(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to process message", "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// History handles GET /agent/conversations/{conversationID}/messages.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "Conversation ID is required", http.StatusBadRequest)
		return
	}

	messages, err := h.history.GetHistory(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("failed to load conversation history",
			"conversation_id", conversationID, "error", err)
		http.Error(w, "Failed to load conversation history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, historyResponse{
		ConversationID: conversationID,
		Messages:       messages,
	})
}

type historyResponse struct {
	ConversationID string          `json:"conversation_id"`
	Messages       []StoredMessage `json:"messages"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
