package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/attento-ai/interview-platform/internal/observability/metrics"
	"github.com/attento-ai/interview-platform/pkg/logging"
)

var engineTracer = otel.Tracer("attento/turn-engine")

const defaultLLMTimeout = 20 * time.Second

// TurnRequest is one inbound user message for a conversation.
type TurnRequest struct {
	ConversationID string
	UserMessage    string
	Language       string
}

// TurnDecision is what the engine hands back to the prompt renderer and the
// persistence layer after one processed turn.
type TurnDecision struct {
	Phase        Phase               `json:"phase"`
	NextQuestion string              `json:"next_question,omitempty"`
	Validation   *ValidationResponse `json:"validation,omitempty"`
	DeepOffer    *DeepOfferInsight   `json:"deep_offer,omitempty"`
	Duplicate    *DuplicateMatch     `json:"duplicate,omitempty"`
	Memory       *ConversationMemory `json:"memory"`
	FieldValues  map[string]string   `json:"field_values,omitempty"`
}

// Engine processes one turn synchronously end-to-end: load the committed
// snapshot, decide, mutate a working copy, commit once. It holds no mutable
// state of its own, so one engine serves all conversations; turns for the
// same conversation must be serialized by the caller.
type Engine struct {
	extractor  *Extractor
	store      SnapshotStore
	machine    *Machine
	logger     *logging.Logger
	metrics    *metrics.InterviewMetrics
	llmTimeout time.Duration
}

// NewEngine wires the turn engine. metrics may be nil.
func NewEngine(extractor *Extractor, store SnapshotStore, machine *Machine, logger *logging.Logger, m *metrics.InterviewMetrics, llmTimeout time.Duration) *Engine {
	if extractor == nil {
		panic("interview: extractor cannot be nil")
	}
	if store == nil {
		panic("interview: snapshot store cannot be nil")
	}
	if machine == nil {
		panic("interview: phase machine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if llmTimeout <= 0 {
		llmTimeout = defaultLLMTimeout
	}
	return &Engine{
		extractor:  extractor,
		store:      store,
		machine:    machine,
		logger:     logger,
		metrics:    m,
		llmTimeout: llmTimeout,
	}
}

// StartConversation commits a fresh snapshot seeded from the configured
// topics. Calling it for an existing conversation resets it.
func (e *Engine) StartConversation(ctx context.Context, conversationID, language string) (*Snapshot, error) {
	snap := &Snapshot{
		Memory:      NewConversationMemory(e.machine.cfg.Topics),
		State:       NewPhaseState(),
		Language:    language,
		FieldValues: map[string]string{},
	}
	if err := e.store.Commit(ctx, conversationID, snap); err != nil {
		return nil, err
	}
	e.logger.Info("conversation started", "conversation_id", conversationID, "language", language)
	return snap, nil
}

// History returns the committed transcript for a conversation, or nil for
// conversations that have not started yet.
func (e *Engine) History(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	snap, err := e.store.Load(ctx, conversationID)
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap.History, nil
}

// ProcessTurn runs the full decision pipeline for one user message. Nothing
// is persisted until the single commit at the end: a failure anywhere leaves
// the previous snapshot untouched.
func (e *Engine) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnDecision, error) {
	start := time.Now()
	ctx, span := engineTracer.Start(ctx, "turn.process")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", req.ConversationID))

	snap, err := e.store.Load(ctx, req.ConversationID)
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		snap = &Snapshot{
			Memory:      NewConversationMemory(e.machine.cfg.Topics),
			State:       NewPhaseState(),
			FieldValues: map[string]string{},
		}
	case err != nil:
		span.RecordError(err)
		e.observeTurn(PhaseClosed, "load_error", start)
		return nil, err
	}

	if snap.State.Phase == PhaseClosed {
		return nil, ErrConversationClosed
	}
	if req.Language != "" {
		snap.Language = req.Language
	}
	language := snap.Language
	if language == "" {
		language = LanguageEnglish
	}
	if snap.FieldValues == nil {
		snap.FieldValues = map[string]string{}
	}

	prevPhase := snap.State.Phase
	span.SetAttributes(attribute.String("turn.phase", string(prevPhase)))

	decision := &TurnDecision{}
	snap.History = append(snap.History, ChatMessage{Role: ChatRoleUser, Content: req.UserMessage})

	switch prevPhase {
	case PhaseScan, PhaseDeep:
		err = e.processExploration(ctx, req, snap, decision)
	case PhaseDeepOfferAsk:
		err = e.processDeepOffer(ctx, req, snap, language, decision)
	case PhaseDataCollection:
		err = e.processDataCollection(ctx, req, snap, language, decision)
	default:
		err = fmt.Errorf("interview: unknown phase %q", prevPhase)
	}
	if err != nil {
		span.RecordError(err)
		e.observeTurn(prevPhase, "error", start)
		return nil, err
	}

	snap.Turn++
	if err := e.store.Commit(ctx, req.ConversationID, snap); err != nil {
		span.RecordError(err)
		e.observeTurn(prevPhase, "commit_error", start)
		return nil, err
	}

	decision.Phase = snap.State.Phase
	decision.Memory = snap.Memory
	decision.FieldValues = snap.FieldValues

	e.metrics.ObservePhaseTransition(string(prevPhase), string(snap.State.Phase))
	e.observeTurn(prevPhase, "ok", start)
	e.logger.Info("turn processed",
		"conversation_id", req.ConversationID,
		"phase", prevPhase,
		"next_phase", snap.State.Phase,
		"turn", snap.Turn,
	)
	return decision, nil
}

// processExploration handles SCAN and DEEP: extract facts, fold them into
// memory, advance the machine and either emit the deep offer or the next
// duplicate-screened question.
func (e *Engine) processExploration(ctx context.Context, req TurnRequest, snap *Snapshot, decision *TurnDecision) error {
	var extraction FactExtraction
	err := e.withRetry(ctx, func(ctx context.Context) error {
		var err error
		extraction, err = e.extractor.ExtractFacts(ctx, e.machine.cfg.Topics, req.UserMessage)
		return err
	})
	if err != nil {
		// Degraded extraction is not fatal: the turn proceeds with no new
		// facts, exactly as a confidence-none extraction would.
		e.logger.Warn("fact extraction degraded", "conversation_id", req.ConversationID, "error", err)
		extraction = FactExtraction{}
	}

	signals := TurnSignals{
		UserMessage:       req.UserMessage,
		NewFacts:          extraction.Facts,
		SubGoalsAddressed: e.attributeSubGoals(snap.Memory, extraction.Facts),
	}
	snap.Memory = ApplyTurn(snap.Memory, signals)
	snap.State = e.machine.Advance(snap.State, snap.Memory)

	if snap.State.Phase == PhaseDeepOfferAsk {
		insight := NewDeepOfferInsight(e.machine.ExtensionTopics(snap.Memory), nil)
		decision.DeepOffer = &insight
		return nil
	}

	question, match, err := e.nextScreenedQuestion(ctx, snap)
	if err != nil {
		return err
	}
	decision.NextQuestion = question
	decision.Duplicate = match
	if question != "" {
		snap.History = append(snap.History, ChatMessage{Role: ChatRoleAssistant, Content: question})
	}
	return nil
}

// processDeepOffer validates the user's answer to the extend-the-interview
// proposal through the smaller confirmation retry loop.
func (e *Engine) processDeepOffer(ctx context.Context, req TurnRequest, snap *Snapshot, language string, decision *TurnDecision) error {
	var judgment ConfirmationJudgment
	err := e.withRetry(ctx, func(ctx context.Context) error {
		var err error
		judgment, err = e.extractor.JudgeConfirmation(ctx, req.UserMessage)
		return err
	})
	if err != nil {
		e.logger.Warn("confirmation judgment degraded", "conversation_id", req.ConversationID, "error", err)
		judgment = ConfirmationJudgment{Valid: false, Confidence: ConfidenceNone}
	}

	confidence := judgment.Confidence
	if !judgment.Valid {
		confidence = ConfidenceNone
	}
	attempt := snap.State.ConfirmAttempts + 1
	confirmation := ValidateConfirmation(req.UserMessage, confidence, attempt, language, DefaultConfirmationMaxAttempts)
	e.metrics.ObserveValidation(string(confirmation.Strategy))

	snap.Memory = ApplyTurn(snap.Memory, TurnSignals{UserMessage: req.UserMessage})
	snap.State = e.machine.ResolveDeepOffer(snap.State, confirmation, judgment.Accepted)

	if snap.State.Phase == PhaseDeepOfferAsk {
		// Still ambiguous: re-offer with the retry feedback echoed through.
		insight := NewDeepOfferInsight(e.machine.ExtensionTopics(snap.Memory), &confirmation)
		decision.DeepOffer = &insight
		return nil
	}

	if snap.State.Phase == PhaseDeep {
		// Accepted: open the extension with a screened question, otherwise
		// the turn has nothing to say and the conversation stalls.
		question, match, err := e.nextScreenedQuestion(ctx, snap)
		if err != nil {
			return err
		}
		decision.NextQuestion = question
		decision.Duplicate = match
		if question != "" {
			snap.History = append(snap.History, ChatMessage{Role: ChatRoleAssistant, Content: question})
		}
	}
	return nil
}

// processDataCollection drives the validation engine over the current field.
func (e *Engine) processDataCollection(ctx context.Context, req TurnRequest, snap *Snapshot, language string, decision *TurnDecision) error {
	field, ok := e.machine.CurrentField(snap.State)
	if !ok {
		snap.State = PhaseState{Phase: PhaseClosed}
		return nil
	}

	var extraction FieldExtraction
	err := e.withRetry(ctx, func(ctx context.Context) error {
		var err error
		extraction, err = e.extractor.ExtractField(ctx, field, req.UserMessage)
		return err
	})
	if err != nil {
		e.logger.Warn("field extraction degraded", "conversation_id", req.ConversationID, "field", field, "error", err)
		extraction = FieldExtraction{Field: field, Confidence: ConfidenceNone}
	}

	attempt := snap.State.FieldAttempts + 1
	result := Validate(field, extraction.Value, extraction.Confidence, attempt, language, DefaultFieldMaxAttempts)
	decision.Validation = &result
	e.metrics.ObserveValidation(string(result.Strategy))

	signals := TurnSignals{UserMessage: req.UserMessage}
	if result.IsValid {
		snap.FieldValues[field] = result.ExtractedValue
	} else {
		signals.SkippedArea = &AreaSkip{
			Area:     field,
			Priority: PriorityHigh,
			Final:    result.Strategy == StrategySkipField,
			Reason:   SkipUserDeclined,
		}
	}

	snap.Memory = ApplyTurn(snap.Memory, signals)
	snap.State = e.machine.RecordFieldResult(snap.State, result)
	return nil
}

// nextScreenedQuestion generates the next exploration question and screens
// it against the assistant history; a duplicate gets one regeneration, after
// which the screen fails open.
func (e *Engine) nextScreenedQuestion(ctx context.Context, snap *Snapshot) (string, *DuplicateMatch, error) {
	history := assistantMessages(snap.History)

	var question string
	err := e.withRetry(ctx, func(ctx context.Context) error {
		var err error
		question, err = e.extractor.NextQuestion(ctx, snap.Memory, snap.History)
		return err
	})
	if err != nil {
		return "", nil, fmt.Errorf("interview: failed to generate next question: %w", err)
	}

	match := FindDuplicateQuestionMatch(DuplicateQuestionInput{
		Language:                 snap.Language,
		CandidateResponse:        question,
		HistoryAssistantMessages: history,
	})
	e.metrics.ObserveDuplicate(string(match.Reason))
	if !match.IsDuplicate {
		return question, &match, nil
	}

	e.logger.Info("candidate question duplicated history, regenerating",
		"reason", match.Reason, "similarity", match.Similarity)

	regenCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
	defer cancel()
	regenerated, err := e.extractor.NextQuestion(regenCtx, snap.Memory, snap.History)
	if err != nil {
		// Fail open: a repeated question beats a stalled conversation.
		return question, &match, nil
	}
	rematch := FindDuplicateQuestionMatch(DuplicateQuestionInput{
		Language:                 snap.Language,
		CandidateResponse:        regenerated,
		HistoryAssistantMessages: history,
	})
	return regenerated, &rematch, nil
}

// attributeSubGoals maps extracted facts onto the sub-goals they plausibly
// address, by token overlap between the fact and the sub-goal text.
func (e *Engine) attributeSubGoals(memory *ConversationMemory, facts []CollectedFact) map[string][]string {
	if memory == nil || len(facts) == 0 {
		return nil
	}
	addressed := map[string][]string{}
	for _, topic := range memory.TopicsExplored {
		for _, goal := range topic.SubGoalsMissing {
			goalTokens := significantTokens(goal)
			for _, fact := range facts {
				if fact.Topic != topic.TopicID {
					continue
				}
				if tokensOverlap(goalTokens, significantTokens(fact.Content+" "+joinKeywords(fact))) {
					addressed[topic.TopicID] = append(addressed[topic.TopicID], goal)
					break
				}
			}
		}
	}
	return addressed
}

func joinKeywords(f CollectedFact) string {
	out := ""
	for _, k := range f.Keywords {
		out += " " + k
	}
	return out
}

// significantTokens keeps normalized tokens long enough to carry meaning.
func significantTokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range tokenize(s) {
		if len([]rune(tok)) > 3 {
			out[tok] = struct{}{}
		}
	}
	return out
}

func tokenize(s string) []string {
	return strings.Fields(normalizeQuestion(s))
}

func tokensOverlap(a, b map[string]struct{}) bool {
	for t := range a {
		if _, ok := b[t]; ok {
			return true
		}
	}
	return false
}

func assistantMessages(history []ChatMessage) []string {
	var out []string
	for _, m := range history {
		if m.Role == ChatRoleAssistant {
			out = append(out, m.Content)
		}
	}
	return out
}

// withRetry runs one bounded external call and retries it exactly once on
// failure, each attempt under its own deadline.
func (e *Engine) withRetry(ctx context.Context, call func(ctx context.Context) error) error {
	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
		defer cancel()
		return call(callCtx)
	}
	if err := attempt(); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return attempt()
	}
	return nil
}

func (e *Engine) observeTurn(phase Phase, status string, start time.Time) {
	e.metrics.ObserveTurn(string(phase), status)
	e.metrics.ObserveTurnLatency(string(phase), time.Since(start).Seconds())
}
