// Package chatguard holds the pure decision functions that tell a chat
// widget when to pivot from answering questions into collecting lead data.
// Every function is stateless and safe to call from any number of
// conversations at once.
package chatguard

import (
	"regexp"
	"strings"
	"unicode"
)

// TriggerOnExit is the lead-collection trigger strategy this package
// decides for; other strategies are the caller's concern.
const TriggerOnExit = "on_exit"

// exitIntentPatterns recognize closing/farewell statements (English and
// Italian, matching the product's supported locales).
var exitIntentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(bye|goodbye|good\s*bye|see\s+you|see\s+ya|farewell)\b`),
	regexp.MustCompile(`(?i)\b(gotta|have\s+to|need\s+to)\s+(go|run|leave)\b`),
	regexp.MustCompile(`(?i)\bthat('?s| is| was)\s+(all|everything|it)\b`),
	regexp.MustCompile(`(?i)\b(i'?m|i\s+am)\s+(done|finished|leaving|off)\b`),
	regexp.MustCompile(`(?i)\bthanks?,?\s+(bye|that'?s\s+all|i'?m\s+done|nothing\s+else)\b`),
	regexp.MustCompile(`(?i)\bno(thing)?\s+(more|else)(\s+(thanks|thank\s+you))?\b`),
	regexp.MustCompile(`(?i)\btalk\s+(to\s+you\s+)?later\b`),
	regexp.MustCompile(`(?i)\b(ciao|arrivederci|a\s+presto|a\s+dopo)\b`),
	regexp.MustCompile(`(?i)\b(devo\s+andare|vado\s+via|basta\s+così|è\s+tutto|ho\s+finito)\b`),
	regexp.MustCompile(`(?i)\bgrazie,?\s+(ciao|è\s+tutto|basta)\b`),
}

// IsExitIntentMessage reports whether the text is recognizably a
// closing/farewell statement.
func IsExitIntentMessage(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, re := range exitIntentPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Scope is the configured subject area of a chat bot.
type Scope struct {
	ResearchGoal string
	Topics       []string
}

// HasConfiguredScope reports whether any subject area was configured: a
// non-empty goal or at least one topic.
func HasConfiguredScope(s Scope) bool {
	if strings.TrimSpace(s.ResearchGoal) != "" {
		return true
	}
	for _, t := range s.Topics {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}

// minScopeJudgmentTokens is the shortest message worth judging; brief
// replies like "yes" or "not sure" carry no topical signal.
const minScopeJudgmentTokens = 4

// IsClearlyOutOfScope reports whether a message shares no terms with the
// configured scope lexicon. It deliberately refuses to flag anything when no
// scope was configured: without a scope every judgment would be a false
// positive.
func IsClearlyOutOfScope(message string, scopeLexicon []string, scopeConfigured bool) bool {
	if !scopeConfigured || len(scopeLexicon) == 0 {
		return false
	}
	terms := lexiconSet(scopeLexicon)
	tokens := tokenize(message)
	if len(tokens) < minScopeJudgmentTokens {
		return false
	}
	for _, tok := range tokens {
		if _, ok := terms[tok]; ok {
			return false
		}
	}
	return true
}

// ExitCollectInput feeds ShouldCollectOnExit.
type ExitCollectInput struct {
	TriggerStrategy     string
	HasNextMissingField bool
	HasExitIntent       bool
	TotalUserMessages   int
	RecentlyAsked       bool
}

// ShouldCollectOnExit decides whether the widget should start collecting
// lead fields now. For the on_exit strategy both conditions are required:
// something is still missing and the user is leaving. Other trigger
// strategies are decided elsewhere.
func ShouldCollectOnExit(in ExitCollectInput) bool {
	if in.TriggerStrategy != TriggerOnExit {
		return false
	}
	return in.HasNextMissingField && in.HasExitIntent
}

// LeadExtractionInput feeds ShouldAttemptLeadExtraction.
type LeadExtractionInput struct {
	HasNextMissingField bool
	ShouldCollect       bool
	AwaitingLeadReply   bool
}

// ShouldAttemptLeadExtraction decides whether this turn's reply should be
// mined for a lead field. Once the widget has asked a lead question and is
// awaiting the answer, extraction stays enabled even if a cooldown would
// otherwise suppress collection.
func ShouldAttemptLeadExtraction(in LeadExtractionInput) bool {
	return in.HasNextMissingField && (in.ShouldCollect || in.AwaitingLeadReply)
}

func lexiconSet(lexicon []string) map[string]struct{} {
	set := make(map[string]struct{}, len(lexicon))
	for _, term := range lexicon {
		for _, tok := range tokenize(term) {
			set[tok] = struct{}{}
		}
	}
	return set
}

func tokenize(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}
