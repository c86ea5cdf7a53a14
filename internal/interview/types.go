package interview

import "time"

// Phase identifies the stage an interview conversation is in.
type Phase string

const (
	PhaseScan           Phase = "SCAN"
	PhaseDeepOfferAsk   Phase = "DEEP_OFFER_ASK"
	PhaseDeep           Phase = "DEEP"
	PhaseDataCollection Phase = "DATA_COLLECTION"
	PhaseClosed         Phase = "CLOSED"
)

// Confidence grades how sure the extraction capability is about a value.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Strategy tells the prompt renderer how to continue after a validation result.
type Strategy string

const (
	StrategyAskDifferently Strategy = "ask_differently"
	StrategyMoveOn         Strategy = "move_on"
	StrategyExplainBetter  Strategy = "explain_better"
	StrategySkipField      Strategy = "skip_field"
)

// CoverageLevel rates how thoroughly a topic's sub-goals have been addressed.
type CoverageLevel string

const (
	CoverageShallow  CoverageLevel = "shallow"
	CoverageModerate CoverageLevel = "moderate"
	CoverageDeep     CoverageLevel = "deep"
)

// Priority ranks an unanswered interview area.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// SkipReason records why an area was finally abandoned.
type SkipReason string

const (
	SkipUserDeclined SkipReason = "user_declined"
	SkipOffTopic     SkipReason = "off_topic"
	SkipTimeLimit    SkipReason = "time_limit"
)

// Tone is the heuristic writing style detected from user replies.
type Tone string

const (
	ToneUnknown Tone = ""
	ToneFormal  Tone = "formal"
	ToneCasual  Tone = "casual"
	ToneBrief   Tone = "brief"
	ToneVerbose Tone = "verbose"
)

// Topic is read-only interview configuration owned by the bot config.
type Topic struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	SubGoals    []string `json:"sub_goals"`
}

// CollectedFact is a single extracted statement. Append-only: never mutated
// after creation.
type CollectedFact struct {
	Content     string    `json:"content"`
	Topic       string    `json:"topic"`
	ExtractedAt time.Time `json:"extracted_at"`
	Confidence  float64   `json:"confidence"`
	Keywords    []string  `json:"keywords,omitempty"`
}

// ExploredTopic tracks per-topic coverage. SubGoalsCovered and
// SubGoalsMissing are disjoint and together equal the topic's configured
// sub-goal set.
type ExploredTopic struct {
	TopicID         string        `json:"topic_id"`
	TopicLabel      string        `json:"topic_label"`
	CoverageLevel   CoverageLevel `json:"coverage_level"`
	SubGoalsCovered []string      `json:"sub_goals_covered"`
	SubGoalsMissing []string      `json:"sub_goals_missing"`
	LastExploredAt  time.Time     `json:"last_explored_at"`
}

// UnansweredArea is a topic area the interview could not get an answer for.
type UnansweredArea struct {
	Area       string     `json:"area"`
	Priority   Priority   `json:"priority"`
	Attempts   int        `json:"attempts"`
	SkipReason SkipReason `json:"skip_reason,omitempty"`
}

// ConversationMemory is the accumulated knowledge for one conversation.
// Exactly one instance exists per conversation; it is created at
// conversation start and replaced (never shared) once per processed turn.
type ConversationMemory struct {
	FactsCollected    []CollectedFact  `json:"facts_collected"`
	TopicsExplored    []ExploredTopic  `json:"topics_explored"`
	UnansweredAreas   []UnansweredArea `json:"unanswered_areas"`
	UserFatigueScore  float64          `json:"user_fatigue_score"`
	DetectedTone      Tone             `json:"detected_tone,omitempty"`
	AvgResponseLength float64          `json:"avg_response_length"`
	UsesEmoji         bool             `json:"uses_emoji"`
}

// NewConversationMemory seeds memory from the configured topics: every
// sub-goal starts missing and every topic starts shallow.
func NewConversationMemory(topics []Topic) *ConversationMemory {
	mem := &ConversationMemory{}
	for _, t := range topics {
		missing := make([]string, len(t.SubGoals))
		copy(missing, t.SubGoals)
		mem.TopicsExplored = append(mem.TopicsExplored, ExploredTopic{
			TopicID:         t.ID,
			TopicLabel:      t.Label,
			CoverageLevel:   CoverageShallow,
			SubGoalsMissing: missing,
		})
	}
	return mem
}

// Clone returns a deep copy so a turn can be applied copy-on-write without
// touching the committed snapshot.
func (m *ConversationMemory) Clone() *ConversationMemory {
	if m == nil {
		return nil
	}
	out := &ConversationMemory{
		UserFatigueScore:  m.UserFatigueScore,
		DetectedTone:      m.DetectedTone,
		AvgResponseLength: m.AvgResponseLength,
		UsesEmoji:         m.UsesEmoji,
	}
	out.FactsCollected = make([]CollectedFact, len(m.FactsCollected))
	for i, f := range m.FactsCollected {
		f.Keywords = append([]string(nil), f.Keywords...)
		out.FactsCollected[i] = f
	}
	out.TopicsExplored = make([]ExploredTopic, len(m.TopicsExplored))
	for i, t := range m.TopicsExplored {
		t.SubGoalsCovered = append([]string(nil), t.SubGoalsCovered...)
		t.SubGoalsMissing = append([]string(nil), t.SubGoalsMissing...)
		out.TopicsExplored[i] = t
	}
	out.UnansweredAreas = append([]UnansweredArea(nil), m.UnansweredAreas...)
	return out
}

// ValidationResponse is the outcome of validating one extracted value.
type ValidationResponse struct {
	IsValid        bool       `json:"is_valid"`
	Reason         string     `json:"reason,omitempty"`
	Confidence     Confidence `json:"confidence,omitempty"`
	AttemptCount   int        `json:"attempt_count"`
	MaxAttempts    int        `json:"max_attempts"`
	Strategy       Strategy   `json:"strategy,omitempty"`
	Feedback       string     `json:"feedback,omitempty"`
	ExtractedValue string     `json:"extracted_value,omitempty"`
}

// DeepOfferInsight is the render input for the extend-the-interview
// proposal. Produced fresh per call and never persisted.
type DeepOfferInsight struct {
	Status             Phase               `json:"status"`
	ValidationFeedback *ValidationResponse `json:"validation_feedback,omitempty"`
	FeedbackMessage    string              `json:"feedback_message,omitempty"`
	ExtensionPreview   string              `json:"extension_preview,omitempty"`
}

// DuplicateReason explains why a candidate question matched history.
type DuplicateReason string

const (
	DuplicateExact          DuplicateReason = "exact"
	DuplicateHighSimilarity DuplicateReason = "high_similarity"
	DuplicateSamePrefix     DuplicateReason = "same_prefix"
	DuplicateNone           DuplicateReason = "none"
)

// DuplicateMatch is the duplicate question detector's verdict.
type DuplicateMatch struct {
	IsDuplicate bool            `json:"is_duplicate"`
	Reason      DuplicateReason `json:"reason"`
	Similarity  float64         `json:"similarity"`
}
