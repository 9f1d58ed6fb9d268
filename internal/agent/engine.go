package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sickdaywithferris/booking-ai-platform/internal/observability/metrics"
	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

var engineTracer = otel.Tracer("booking.internal.agent")

// StateStore persists per-conversation working state (transcript and slot
// set) between passes.
type StateStore interface {
	Load(ctx context.Context, conversationID string) (State, bool, error)
	Save(ctx context.Context, conversationID string, st State) error
}

// ApprovalNotifier delivers "human action needed" notices. Delivery is best
// effort; the gate itself only observes.
type ApprovalNotifier interface {
	NotifyApprovalNeeded(ctx context.Context, conversationID, nextAction, summary string) error
}

// EngineConfig carries the band identity and model selection the prompts
// are built from.
type EngineConfig struct {
	Model         string
	BandName      string
	AgentName     string
	AgentEmail    string
	BandWebsite   string
	MinNoticeDays int
	Channel       string
}

// Engine runs the per-message state machine:
//
//	classify → {inquiry | availability | negotiation | contract} → approval gate → persist
//
// Each inbound message crosses the graph exactly once; the conversation
// resumes from classify on the next message with carried-over state.
type Engine struct {
	llm      LLMClient
	store    Store
	states   StateStore
	notifier ApprovalNotifier
	metrics  *metrics.AgentMetrics
	logger   *logging.Logger
	tracer   trace.Tracer
	cfg      EngineConfig
}

// NewEngine wires the conversation engine. notifier and agentMetrics may be
// nil.
func NewEngine(llm LLMClient, store Store, states StateStore, notifier ApprovalNotifier, agentMetrics *metrics.AgentMetrics, logger *logging.Logger, cfg EngineConfig) *Engine {
	if llm == nil {
		panic("agent: llm client cannot be nil")
	}
	if store == nil {
		panic("agent: store cannot be nil")
	}
	if states == nil {
		panic("agent: state store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BandName == "" {
		cfg.BandName = "Sick Day with Ferris"
	}
	if cfg.AgentName == "" {
		cfg.AgentName = "Ferris"
	}
	if cfg.Channel == "" {
		cfg.Channel = "email"
	}
	return &Engine{
		llm:      llm,
		store:    store,
		states:   states,
		notifier: notifier,
		metrics:  agentMetrics,
		logger:   logger,
		tracer:   engineTracer,
		cfg:      cfg,
	}
}

var _ Service = (*Engine)(nil)

// ProcessMessage runs one full pass for an inbound message.
func (e *Engine) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("agent: message text is required")
	}
	if strings.TrimSpace(req.SenderEmail) == "" {
		return nil, errors.New("agent: sender email is required")
	}

	ctx, span := e.tracer.Start(ctx, "agent.process_message")
	defer span.End()
	started := time.Now()

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		var err error
		conversationID, err = e.store.CreateConversation(ctx, e.channelFor(req), []Participant{
			{Email: req.SenderEmail, Name: req.SenderName, Role: string(e.roleFor(req))},
			{Email: e.cfg.AgentEmail, Name: "Booking Agent", Role: "agent"},
		})
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("agent: failed to create conversation: %w", err)
		}
	}
	span.SetAttributes(attribute.String("booking.conversation_id", conversationID))

	st, _, err := e.states.Load(ctx, conversationID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("agent: failed to load conversation state: %w", err)
	}

	// Seed the pass. Approval state never carries over between passes.
	st.ConversationID = conversationID
	st.SenderEmail = req.SenderEmail
	st.SenderName = req.SenderName
	st.SenderRole = e.roleFor(req)
	st.RequiresApproval = false
	st.NextAction = ""
	if st.Slots == (SlotSet{}) {
		st.Slots = NewSlotSet()
	}
	st.persistFrom = len(st.Turns)
	st = st.appendTurn(ChatRoleUser, req.Message)

	st, err = e.classifyIntent(ctx, st)
	if err != nil {
		span.RecordError(err)
		e.observePass(st.Intent, "error", started)
		return nil, err
	}

	st, err = e.runStage(ctx, st)
	if err != nil {
		span.RecordError(err)
		e.observePass(st.Intent, "error", started)
		return nil, err
	}

	st = e.checkApproval(ctx, st)
	e.persistTranscript(ctx, st)

	if err := e.states.Save(ctx, conversationID, st); err != nil {
		// The reply already exists; losing the cached state degrades the
		// next pass but must not fail this one.
		e.logger.Error("failed to save conversation state",
			"conversation_id", conversationID, "error", err)
	}

	e.observePass(st.Intent, "ok", started)

	return &Response{
		ConversationID:   conversationID,
		Message:          e.passReply(st),
		Intent:           st.Intent,
		RequiresApproval: st.RequiresApproval,
		NextAction:       st.NextAction,
		Timestamp:        time.Now().UTC(),
	}, nil
}

// GetHistory returns the stored transcript for a conversation.
func (e *Engine) GetHistory(ctx context.Context, conversationID string) ([]StoredMessage, error) {
	return e.store.ListMessages(ctx, conversationID, 200)
}

// runStage routes the classified intent to its stage handler. The general
// intent falls through to the inquiry flow, the safest default for anything
// the classifier could not bucket.
func (e *Engine) runStage(ctx context.Context, st State) (State, error) {
	switch st.Intent {
	case IntentAvailability:
		return e.handleAvailability(ctx, st)
	case IntentNegotiation:
		return e.handleNegotiation(ctx, st)
	case IntentContract:
		return e.handleContract(ctx, st)
	case IntentInquiry, IntentGeneral:
		return e.handleInquiry(ctx, st)
	default:
		return e.handleInquiry(ctx, st)
	}
}

// passReply returns the assistant text generated during this pass, which is
// empty when the stage produced no reply (a completed-slots inquiry pass).
func (e *Engine) passReply(st State) string {
	for i := len(st.Turns) - 1; i >= st.persistFrom; i-- {
		if st.Turns[i].Role == ChatRoleAssistant {
			return st.Turns[i].Content
		}
	}
	return ""
}

func (e *Engine) roleFor(req MessageRequest) SenderRole {
	switch req.SenderRole {
	case SenderVenue, SenderRosterMember, SenderAdmin:
		return req.SenderRole
	default:
		return SenderVenue
	}
}

func (e *Engine) channelFor(req MessageRequest) string {
	if strings.TrimSpace(req.Channel) != "" {
		return req.Channel
	}
	return e.cfg.Channel
}

func (e *Engine) observePass(intent Intent, status string, started time.Time) {
	if e.metrics == nil {
		return
	}
	// Passes that die before classification still count, under "unknown".
	label := string(intent)
	if label == "" {
		label = "unknown"
	}
	e.metrics.ObservePass(label, status, time.Since(started).Seconds())
}

// basePrompt renders the band-identity system prompt.
func (e *Engine) basePrompt() string {
	return formatPrompt(baseSystemPrompt, e.identity())
}

func (e *Engine) identity() map[string]string {
	return map[string]string{
		"band_name":       e.cfg.BandName,
		"band_website":    e.cfg.BandWebsite,
		"agent_email":     e.cfg.AgentEmail,
		"min_notice_days": strconv.Itoa(e.cfg.MinNoticeDays),
	}
}

// generate issues one stage completion with the shared base prompt plus a
// stage prompt, feeding the transcript as chat messages.
func (e *Engine) generate(ctx context.Context, st State, stagePrompt string, maxTokens int32) (string, error) {
	ctx, span := e.tracer.Start(ctx, "agent.generate")
	defer span.End()
	started := time.Now()

	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.cfg.Model,
		System:      []string{e.basePrompt(), stagePrompt},
		Messages:    st.chatMessages(),
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if e.metrics != nil {
		e.metrics.ObserveCompletion(string(st.Intent), err == nil, time.Since(started).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("agent: completion failed: %w", err)
	}
	return resp.Text, nil
}

// emailLocalPart extracts the part before '@', used as a display-name
// fallback.
func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
