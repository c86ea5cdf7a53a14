package interview

// PhaseConfig is the per-bot configuration driving phase transitions.
type PhaseConfig struct {
	Topics []Topic
	// Fields are the structured fields DATA_COLLECTION drives the validation
	// engine over, in order.
	Fields []string
	// MaxScanTurns and MaxDeepTurns bound how long each exploration phase
	// may run before moving on.
	MaxScanTurns int
	MaxDeepTurns int
	// FatigueThreshold accelerates the transition toward data collection
	// when the user is disengaging.
	FatigueThreshold float64
}

// PhaseState is the per-conversation position inside the state machine.
// It travels with the memory snapshot; the machine itself is stateless.
type PhaseState struct {
	Phase           Phase `json:"phase"`
	TurnsInPhase    int   `json:"turns_in_phase"`
	ConfirmAttempts int   `json:"confirm_attempts"`
	FieldIndex      int   `json:"field_index"`
	FieldAttempts   int   `json:"field_attempts"`
}

// NewPhaseState starts a conversation in SCAN.
func NewPhaseState() PhaseState {
	return PhaseState{Phase: PhaseScan}
}

// Machine sequences SCAN → DEEP_OFFER_ASK → DEEP → DATA_COLLECTION → CLOSED.
// It is thin glue over memory coverage and the validation results: every
// method returns the next state and never touches shared data, so one
// machine serves all conversations.
type Machine struct {
	cfg PhaseConfig
}

// NewMachine creates a phase machine for one bot configuration.
func NewMachine(cfg PhaseConfig) *Machine {
	if cfg.MaxScanTurns <= 0 {
		cfg.MaxScanTurns = 8
	}
	if cfg.MaxDeepTurns <= 0 {
		cfg.MaxDeepTurns = 6
	}
	if cfg.FatigueThreshold <= 0 {
		cfg.FatigueThreshold = 0.8
	}
	return &Machine{cfg: cfg}
}

// Fields exposes the configured data-collection fields.
func (m *Machine) Fields() []string { return m.cfg.Fields }

// CurrentField returns the field DATA_COLLECTION is working on.
func (m *Machine) CurrentField(st PhaseState) (string, bool) {
	if st.Phase != PhaseDataCollection || st.FieldIndex >= len(m.cfg.Fields) {
		return "", false
	}
	return m.cfg.Fields[st.FieldIndex], true
}

// ExtensionTopics lists labels of topics that still have missing sub-goals,
// i.e. what a deep-offer could extend into.
func (m *Machine) ExtensionTopics(memory *ConversationMemory) []string {
	if memory == nil {
		return nil
	}
	var labels []string
	for _, t := range memory.TopicsExplored {
		if len(t.SubGoalsMissing) > 0 {
			labels = append(labels, t.TopicLabel)
		}
	}
	return labels
}

// Advance moves an exploration phase forward after a processed turn.
// SCAN transitions to the transient DEEP_OFFER_ASK once breadth coverage,
// the turn budget or the fatigue threshold is reached; DEEP transitions
// straight to DATA_COLLECTION under the same kind of budget. CLOSED accepts
// no transitions.
func (m *Machine) Advance(st PhaseState, memory *ConversationMemory) PhaseState {
	switch st.Phase {
	case PhaseScan:
		st.TurnsInPhase++
		if m.scanExhausted(st, memory) {
			return PhaseState{Phase: PhaseDeepOfferAsk}
		}
		return st
	case PhaseDeep:
		st.TurnsInPhase++
		if m.deepExhausted(st, memory) {
			return m.enterDataCollection()
		}
		return st
	default:
		return st
	}
}

func (m *Machine) scanExhausted(st PhaseState, memory *ConversationMemory) bool {
	if st.TurnsInPhase >= m.cfg.MaxScanTurns {
		return true
	}
	if memory == nil {
		return false
	}
	if memory.UserFatigueScore >= m.cfg.FatigueThreshold {
		return true
	}
	if len(memory.TopicsExplored) == 0 {
		return false
	}
	for _, t := range memory.TopicsExplored {
		if coverageRank(t.CoverageLevel) < coverageRank(CoverageModerate) {
			return false
		}
	}
	return true
}

func (m *Machine) deepExhausted(st PhaseState, memory *ConversationMemory) bool {
	if st.TurnsInPhase >= m.cfg.MaxDeepTurns {
		return true
	}
	if memory == nil {
		return false
	}
	if memory.UserFatigueScore >= m.cfg.FatigueThreshold {
		return true
	}
	for _, t := range memory.TopicsExplored {
		if coverageRank(t.CoverageLevel) < coverageRank(CoverageDeep) {
			return false
		}
	}
	return len(memory.TopicsExplored) > 0
}

// ResolveDeepOffer consumes the validated confirmation reply while in
// DEEP_OFFER_ASK. An accepted confirmation enters DEEP; a refusal or a
// move_on after the smaller confirmation budget goes straight to
// DATA_COLLECTION; an ambiguous reply under budget stays put and bumps the
// confirmation attempt counter.
func (m *Machine) ResolveDeepOffer(st PhaseState, confirmation ValidationResponse, accepted bool) PhaseState {
	if st.Phase != PhaseDeepOfferAsk {
		return st
	}

	if confirmation.IsValid {
		if accepted {
			return PhaseState{Phase: PhaseDeep}
		}
		return m.enterDataCollection()
	}

	if confirmation.Strategy == StrategyMoveOn {
		return m.enterDataCollection()
	}
	st.ConfirmAttempts++
	return st
}

// RecordFieldResult consumes one validation engine result while in
// DATA_COLLECTION. A valid or finally-skipped field advances to the next;
// once every configured field is valid or skipped the conversation closes.
func (m *Machine) RecordFieldResult(st PhaseState, result ValidationResponse) PhaseState {
	if st.Phase != PhaseDataCollection {
		return st
	}

	if result.IsValid || result.Strategy == StrategySkipField {
		st.FieldIndex++
		st.FieldAttempts = 0
	} else {
		st.FieldAttempts++
	}

	if st.FieldIndex >= len(m.cfg.Fields) {
		return PhaseState{Phase: PhaseClosed}
	}
	return st
}

func (m *Machine) enterDataCollection() PhaseState {
	if len(m.cfg.Fields) == 0 {
		return PhaseState{Phase: PhaseClosed}
	}
	return PhaseState{Phase: PhaseDataCollection}
}
