package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/attento-ai/interview-platform/internal/chatguard"
	"github.com/attento-ai/interview-platform/internal/interview"
	"github.com/attento-ai/interview-platform/internal/leads"
	"github.com/attento-ai/interview-platform/internal/observability/metrics"
	"github.com/attento-ai/interview-platform/pkg/logging"
)

// TurnProcessor runs one interview turn and exposes the committed
// transcript. Implemented by interview.Engine.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, req interview.TurnRequest) (*interview.TurnDecision, error)
	History(ctx context.Context, conversationID string) ([]interview.ChatMessage, error)
}

// Config carries the widget-facing knobs of a deployment.
type Config struct {
	DefaultLanguage     string
	LeadTriggerStrategy string
	LeadFields          []string
	Scope               chatguard.Scope
}

// Handler manages web chat connections and drives the interview engine.
type Handler struct {
	engine   TurnProcessor
	leadRepo leads.Repository
	cfg      Config
	logger   *logging.Logger
	metrics  *metrics.InterviewMetrics
	widgetJS []byte

	mu       sync.RWMutex
	sessions map[string]*session // conversationID -> active session
}

type session struct {
	conn *websocket.Conn

	// lead collection state for this connection
	draft    leads.Draft
	awaiting bool
	saved    bool
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "message", "typing", "history", "session", "pong", "error"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"`
	Phase     string           `json:"phase,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is one replayed transcript entry.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// NewHandler creates a web chat handler.
func NewHandler(engine TurnProcessor, leadRepo leads.Repository, cfg Config, widgetJS []byte, m *metrics.InterviewMetrics, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("webchat: turn processor required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = interview.LanguageEnglish
	}
	return &Handler{
		engine:   engine,
		leadRepo: leadRepo,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		widgetJS: widgetJS,
		sessions: make(map[string]*session),
	}
}

// ConversationID builds the canonical conversation ID for a webchat session.
func ConversationID(sessionID string) string {
	return fmt.Sprintf("webchat:%s", sessionID)
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	language := r.URL.Query().Get("lang")
	if language == "" {
		language = h.cfg.DefaultLanguage
	}

	convID := ConversationID(sessionID)

	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "session",
		SessionID: sessionID,
	})

	// Replay the committed transcript so a reconnecting widget catches up.
	if history, err := h.engine.History(r.Context(), convID); err == nil && len(history) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: historyMessages(history)})
	}

	sess := &session{conn: conn, draft: leads.NewDraft(h.cfg.LeadFields)}
	h.mu.Lock()
	h.sessions[convID] = sess
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[convID] == sess {
			delete(h.sessions, convID)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}

		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}
		if msg.Language != "" {
			language = msg.Language
		}

		h.processMessage(r.Context(), sess, convID, msg.Text, language)
	}
}

// processMessage routes one user message either into the exit-intent lead
// collection flow or into a regular interview turn.
func (h *Handler) processMessage(ctx context.Context, sess *session, convID, text, language string) {
	if h.collectLead(ctx, sess, convID, text, language) {
		return
	}

	if chatguard.IsClearlyOutOfScope(text, h.scopeLexicon(), chatguard.HasConfiguredScope(h.cfg.Scope)) {
		h.sendAssistant(convID, outOfScopeMessage(language), "")
		return
	}

	h.SendToSession(convID, OutboundMessage{Type: "typing"})

	decision, err := h.engine.ProcessTurn(ctx, interview.TurnRequest{
		ConversationID: convID,
		UserMessage:    text,
		Language:       language,
	})
	if err != nil {
		if errors.Is(err, interview.ErrConversationClosed) {
			h.sendAssistant(convID, closingMessage(language), string(interview.PhaseClosed))
			return
		}
		h.logger.Error("webchat: turn failed", "conversation_id", convID, "error", err)
		h.SendToSession(convID, OutboundMessage{
			Type: "error",
			Text: "Sorry, something went wrong. Please try again.",
		})
		return
	}

	h.sendAssistant(convID, renderDecision(decision, language), string(decision.Phase))
}

// collectLead runs the exit-intent lead flow. It reports whether the message
// was consumed by the flow, in which case no interview turn runs.
func (h *Handler) collectLead(ctx context.Context, sess *session, convID, text, language string) bool {
	if h.leadRepo == nil || sess.saved {
		return false
	}

	field, missing := sess.draft.NextMissing()

	collect := chatguard.ShouldCollectOnExit(chatguard.ExitCollectInput{
		TriggerStrategy:     h.cfg.LeadTriggerStrategy,
		HasNextMissingField: missing,
		HasExitIntent:       chatguard.IsExitIntentMessage(text),
	})
	if !chatguard.ShouldAttemptLeadExtraction(chatguard.LeadExtractionInput{
		HasNextMissingField: missing,
		ShouldCollect:       collect,
		AwaitingLeadReply:   sess.awaiting,
	}) {
		return false
	}

	if sess.awaiting {
		// A direct reply to a lead question answers exactly one field.
		if value := leads.ExtractFieldValue(field, text); value != "" && sess.draft.Apply(field, value) {
			h.metrics.ObserveLeadField(field)
		}
	} else {
		// The farewell itself may already carry contact details. Mine the
		// patterned fields, but never treat a goodbye as a name.
		sess.awaiting = true
		for _, f := range []string{leads.FieldEmail, leads.FieldPhone} {
			if value := leads.ExtractFieldValue(f, text); value != "" && sess.draft.Apply(f, value) {
				h.metrics.ObserveLeadField(f)
			}
		}
	}

	if sess.draft.Complete() {
		h.saveLead(ctx, sess, convID, language)
		return true
	}
	next, _ := sess.draft.NextMissing()
	h.sendAssistant(convID, leadQuestion(next, language), "")
	return true
}

func (h *Handler) saveLead(ctx context.Context, sess *session, convID, language string) {
	sess.awaiting = false
	req := sess.draft.Request(convID, "webchat")
	lead, err := h.leadRepo.Create(ctx, req)
	if err != nil {
		h.logger.Error("webchat: failed to save lead", "conversation_id", convID, "error", err)
		h.sendAssistant(convID, closingMessage(language), "")
		return
	}
	sess.saved = true
	h.logger.Info("webchat: lead saved", "conversation_id", convID, "lead_id", lead.ID)
	h.sendAssistant(convID, leadThanks(language), "")
}

func historyMessages(history []interview.ChatMessage) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(history))
	for _, m := range history {
		out = append(out, HistoryMessage{Role: m.Role, Text: m.Content})
	}
	return out
}

func (h *Handler) scopeLexicon() []string {
	lexicon := make([]string, 0, len(h.cfg.Scope.Topics)+1)
	if h.cfg.Scope.ResearchGoal != "" {
		lexicon = append(lexicon, h.cfg.Scope.ResearchGoal)
	}
	return append(lexicon, h.cfg.Scope.Topics...)
}

func (h *Handler) sendAssistant(convID, text, phase string) {
	if text == "" {
		return
	}
	h.SendToSession(convID, OutboundMessage{
		Type:      "message",
		Role:      "assistant",
		Text:      text,
		Phase:     phase,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// SendToSession sends a message to an active WebSocket session.
func (h *Handler) SendToSession(convID string, msg OutboundMessage) {
	h.mu.RLock()
	sess, ok := h.sessions[convID]
	h.mu.RUnlock()
	if !ok || sess.conn == nil {
		return
	}
	_ = websocket.JSON.Send(sess.conn, msg)
}

// HandleMessage is the HTTP fallback for widgets without WebSocket support.
// It runs the turn synchronously and returns the reply in the response.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Language  string `json:"language"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}
	language := req.Language
	if language == "" {
		language = h.cfg.DefaultLanguage
	}

	decision, err := h.engine.ProcessTurn(r.Context(), interview.TurnRequest{
		ConversationID: ConversationID(req.SessionID),
		UserMessage:    req.Text,
		Language:       language,
	})
	if err != nil {
		if errors.Is(err, interview.ErrConversationClosed) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"session_id": req.SessionID,
				"phase":      string(interview.PhaseClosed),
				"text":       closingMessage(language),
			})
			return
		}
		h.logger.Error("webchat: turn failed", "error", err)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"session_id": req.SessionID,
		"phase":      string(decision.Phase),
		"text":       renderDecision(decision, language),
	})
}

// HandleWidgetJS serves the embeddable widget JavaScript.
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.widgetJS)
}
