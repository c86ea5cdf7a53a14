package interview

import "strings"

// Default retry budgets. Field extraction gets a larger budget than the
// deep-offer confirmation, which should resolve in at most two asks.
const (
	DefaultFieldMaxAttempts        = 3
	DefaultConfirmationMaxAttempts = 2
)

// retryLoop distinguishes the two validation retry loops, which pick
// different strategies from the policy table.
type retryLoop int

const (
	loopField retryLoop = iota
	loopConfirmation
)

// validationRule is one row of the retry policy table. A value is invalid
// when it is empty after trimming or carries no confidence signal; the table
// maps (loop, over-budget) to the strategy and reason to surface. New
// strategies or thresholds are added as rows, not as branches.
type validationRule struct {
	loop       retryLoop
	overBudget bool
	strategy   Strategy
	reason     string
}

var validationPolicy = []validationRule{
	{loop: loopField, overBudget: false, strategy: StrategyExplainBetter, reason: "value missing or no extraction signal"},
	{loop: loopField, overBudget: true, strategy: StrategySkipField, reason: "attempt budget exhausted"},
	{loop: loopConfirmation, overBudget: false, strategy: StrategyAskDifferently, reason: "confirmation was ambiguous"},
	{loop: loopConfirmation, overBudget: true, strategy: StrategyMoveOn, reason: "confirmation budget exhausted"},
}

func lookupStrategy(loop retryLoop, overBudget bool) (Strategy, string) {
	for _, r := range validationPolicy {
		if r.loop == loop && r.overBudget == overBudget {
			return r.strategy, r.reason
		}
	}
	// Unreachable with the table above; fail toward not interrogating the user.
	return StrategyMoveOn, "no matching policy rule"
}

// Validate decides whether an extracted field value is acceptable and, when
// it is not, which retry strategy to use. Low and medium confidence are
// accepted: repeatedly interrogating the user costs more than an uncertain
// extraction. Only an empty value or a total absence of signal is rejected.
//
// Pure function: attempt counting is owned by the caller, and identical
// inputs always yield identical outputs. maxAttempts <= 0 selects
// DefaultFieldMaxAttempts.
func Validate(fieldName, rawValue string, confidence Confidence, attemptCount int, language string, maxAttempts int) ValidationResponse {
	if maxAttempts <= 0 {
		maxAttempts = DefaultFieldMaxAttempts
	}

	resp := ValidationResponse{
		Confidence:   confidence,
		AttemptCount: attemptCount,
		MaxAttempts:  maxAttempts,
	}

	hasValue := strings.TrimSpace(rawValue) != ""
	if hasValue && confidence != ConfidenceNone {
		resp.IsValid = true
		resp.ExtractedValue = rawValue
		// No feedback on success: no unnecessary chatter.
		return resp
	}

	strategy, reason := lookupStrategy(loopField, attemptCount > maxAttempts)
	resp.Strategy = strategy
	resp.Reason = reason
	if strategy == StrategyExplainBetter {
		resp.Feedback = explainBetterFeedback(language, fieldName)
	}
	return resp
}

// ValidateConfirmation validates the user's reply to a deep-offer proposal.
// Same acceptance rule as Validate, but the retry loop is smaller and its
// strategies differ: re-ask differently while under budget, then move on to
// data collection instead of skipping a field. The budget boundary is
// inclusive here: once attemptCount reaches maxAttempts the interview stops
// insisting.
func ValidateConfirmation(rawValue string, confidence Confidence, attemptCount int, language string, maxAttempts int) ValidationResponse {
	if maxAttempts <= 0 {
		maxAttempts = DefaultConfirmationMaxAttempts
	}

	resp := ValidationResponse{
		Confidence:   confidence,
		AttemptCount: attemptCount,
		MaxAttempts:  maxAttempts,
	}

	hasValue := strings.TrimSpace(rawValue) != ""
	if hasValue && confidence != ConfidenceNone {
		resp.IsValid = true
		resp.ExtractedValue = rawValue
		return resp
	}

	strategy, reason := lookupStrategy(loopConfirmation, attemptCount >= maxAttempts)
	resp.Strategy = strategy
	resp.Reason = reason
	switch strategy {
	case StrategyAskDifferently:
		resp.Feedback = askDifferentlyFeedback(language)
	case StrategyMoveOn:
		resp.Feedback = moveOnFeedback(language)
	}
	return resp
}
