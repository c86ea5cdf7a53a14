package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attento-ai/interview-platform/internal/chatguard"
	"github.com/attento-ai/interview-platform/internal/interview"
	"github.com/attento-ai/interview-platform/internal/leads"
)

// fakeEngine returns a canned decision and records requests.
type fakeEngine struct {
	decision *interview.TurnDecision
	history  []interview.ChatMessage
	err      error
	requests []interview.TurnRequest
}

func (f *fakeEngine) ProcessTurn(_ context.Context, req interview.TurnRequest) (*interview.TurnDecision, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.decision, nil
}

func (f *fakeEngine) History(context.Context, string) ([]interview.ChatMessage, error) {
	return f.history, nil
}

func newTestHandler(engine TurnProcessor, repo leads.Repository) *Handler {
	return NewHandler(engine, repo, Config{
		DefaultLanguage:     "en",
		LeadTriggerStrategy: chatguard.TriggerOnExit,
		LeadFields:          []string{leads.FieldName, leads.FieldEmail},
	}, []byte("// widget"), nil, nil)
}

func TestConversationID(t *testing.T) {
	assert.Equal(t, "webchat:sess456", ConversationID("sess456"))
}

func TestGenerateSessionID(t *testing.T) {
	s1 := generateSessionID()
	s2 := generateSessionID()
	assert.NotEmpty(t, s1)
	assert.NotEqual(t, s1, s2)
	assert.Len(t, s1, 32) // 16 bytes = 32 hex chars
}

func TestHandleMessageHTTP(t *testing.T) {
	engine := &fakeEngine{decision: &interview.TurnDecision{
		Phase:        interview.PhaseScan,
		NextQuestion: "What do you like about the brand?",
	}}
	h := newTestHandler(engine, nil)

	body := `{"session_id":"sess1","text":"Hello"}`
	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleMessage(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess1", resp["session_id"])
	assert.Equal(t, "SCAN", resp["phase"])
	assert.Equal(t, "What do you like about the brand?", resp["text"])

	require.Len(t, engine.requests, 1)
	assert.Equal(t, "webchat:sess1", engine.requests[0].ConversationID)
	assert.Equal(t, "en", engine.requests[0].Language)
}

func TestHandleMessageHTTPGeneratesSession(t *testing.T) {
	engine := &fakeEngine{decision: &interview.TurnDecision{Phase: interview.PhaseScan, NextQuestion: "q"}}
	h := newTestHandler(engine, nil)

	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(`{"text":"hi"}`))
	w := httptest.NewRecorder()
	h.HandleMessage(w, req)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["session_id"])
}

func TestHandleMessageHTTPClosedConversation(t *testing.T) {
	engine := &fakeEngine{err: interview.ErrConversationClosed}
	h := newTestHandler(engine, nil)

	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(`{"session_id":"s","text":"hi"}`))
	w := httptest.NewRecorder()
	h.HandleMessage(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CLOSED", resp["phase"])
	assert.Contains(t, resp["text"], "Thank you")
}

func TestHandleMessageHTTPRejectsEmptyText(t *testing.T) {
	h := newTestHandler(&fakeEngine{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(`{"session_id":"s","text":"  "}`))
	w := httptest.NewRecorder()
	h.HandleMessage(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollectLeadFlow(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	engine := &fakeEngine{decision: &interview.TurnDecision{Phase: interview.PhaseScan, NextQuestion: "q"}}
	h := newTestHandler(engine, repo)
	ctx := context.Background()

	sess := &session{draft: leads.NewDraft(h.cfg.LeadFields)}

	// An ordinary message is not consumed by lead collection.
	assert.False(t, h.collectLead(ctx, sess, "webchat:s", "I love the espresso blend", "en"))
	assert.False(t, sess.awaiting)

	// Exit intent starts the flow and asks for the first field.
	assert.True(t, h.collectLead(ctx, sess, "webchat:s", "gotta go, bye!", "en"))
	assert.True(t, sess.awaiting)

	// The name reply fills the field and moves on to the email.
	assert.True(t, h.collectLead(ctx, sess, "webchat:s", "Mario Rossi", "en"))
	assert.Equal(t, "Mario Rossi", sess.draft.Values[leads.FieldName])
	assert.False(t, sess.saved)

	// The email completes the draft and stores the lead.
	assert.True(t, h.collectLead(ctx, sess, "webchat:s", "mario@example.com", "en"))
	assert.True(t, sess.saved)

	// Once saved, messages flow back to the interview.
	assert.False(t, h.collectLead(ctx, sess, "webchat:s", "one more thing", "en"))
}

func TestCollectLeadMinesExitMessage(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := newTestHandler(&fakeEngine{}, repo)
	ctx := context.Background()

	// Email-only deployment: the farewell already carries the email, so the
	// flow saves immediately instead of re-asking for it.
	sess := &session{draft: leads.NewDraft([]string{leads.FieldEmail})}
	assert.True(t, h.collectLead(ctx, sess, "webchat:s", "gotta go, bye! reach me at mario@example.com", "en"))
	assert.Equal(t, "mario@example.com", sess.draft.Values[leads.FieldEmail])
	assert.True(t, sess.saved)

	// With a name still wanted, the mined email is kept and only the name
	// gets asked for.
	sess = &session{draft: leads.NewDraft([]string{leads.FieldName, leads.FieldEmail})}
	assert.True(t, h.collectLead(ctx, sess, "webchat:s", "bye, it's mario@example.com", "en"))
	assert.True(t, sess.awaiting)
	assert.Equal(t, "mario@example.com", sess.draft.Values[leads.FieldEmail])
	assert.False(t, sess.saved)

	// The goodbye itself is never taken as the name.
	assert.Empty(t, sess.draft.Values[leads.FieldName])
}

func TestCollectLeadWithoutRepositoryIsInert(t *testing.T) {
	h := newTestHandler(&fakeEngine{}, nil)
	sess := &session{draft: leads.NewDraft(h.cfg.LeadFields)}
	assert.False(t, h.collectLead(context.Background(), sess, "webchat:s", "bye", "en"))
}

func TestCollectLeadKeepsAskingOnUnusableReply(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := newTestHandler(&fakeEngine{}, repo)
	sess := &session{draft: leads.NewDraft([]string{leads.FieldEmail}), awaiting: true}
	ctx := context.Background()

	// No email in the reply: the message is consumed but nothing is filled.
	assert.True(t, h.collectLead(ctx, sess, "webchat:s", "hmm why do you ask", "en"))
	assert.Empty(t, sess.draft.Values)
	assert.False(t, sess.saved)

	assert.True(t, h.collectLead(ctx, sess, "webchat:s", "ok it's mario@example.com", "en"))
	assert.True(t, sess.saved)
}

func TestProcessMessageSkipsEngineWhenOutOfScope(t *testing.T) {
	engine := &fakeEngine{decision: &interview.TurnDecision{Phase: interview.PhaseScan, NextQuestion: "q"}}
	h := NewHandler(engine, nil, Config{
		DefaultLanguage: "en",
		Scope:           chatguard.Scope{ResearchGoal: "coffee brand perception", Topics: []string{"pricing"}},
	}, nil, nil, nil)
	sess := &session{draft: leads.NewDraft(nil)}

	h.processMessage(context.Background(), sess, "webchat:s", "please write my homework essay for school", "en")
	assert.Empty(t, engine.requests, "out-of-scope message never reaches the engine")

	h.processMessage(context.Background(), sess, "webchat:s", "I think the pricing is fair for the quality", "en")
	assert.Len(t, engine.requests, 1)
}

func TestHistoryMessages(t *testing.T) {
	msgs := historyMessages([]interview.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "welcome back"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "welcome back", msgs[1].Text)
}

func TestHandleWidgetJS(t *testing.T) {
	h := newTestHandler(&fakeEngine{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/webchat/widget.js", nil)
	w := httptest.NewRecorder()
	h.HandleWidgetJS(w, req)

	assert.Equal(t, "application/javascript", w.Header().Get("Content-Type"))
	assert.Equal(t, "// widget", w.Body.String())
}
