package interview

import (
	"strings"
	"unicode"
)

const (
	// duplicateThreshold is the similarity above which a candidate counts as
	// a near-duplicate of an earlier assistant message.
	duplicateThreshold = 0.7

	// samePrefixMinTokens is the shared leading token span that makes a
	// near-duplicate a same-prefix match ("What do you think about ...").
	samePrefixMinTokens = 4
)

// DuplicateQuestionInput carries the candidate question and the assistant
// side of the conversation history to screen it against.
type DuplicateQuestionInput struct {
	Language                 string
	CandidateResponse        string
	HistoryAssistantMessages []string
}

// FindDuplicateQuestionMatch screens a candidate question against every
// assistant message already sent, so the interview never asks something it
// already covered.
//
// Messages are normalized (case-folded, punctuation stripped) and compared
// with token-set Jaccard similarity; the best match over history decides.
// Exact normalized equality scores 1.0. The detector fails open: with no
// history or an empty candidate the result is not-duplicate, because the
// screen must never block the conversation from proceeding.
func FindDuplicateQuestionMatch(in DuplicateQuestionInput) DuplicateMatch {
	none := DuplicateMatch{IsDuplicate: false, Reason: DuplicateNone}

	candidate := normalizeQuestion(in.CandidateResponse)
	if candidate == "" || len(in.HistoryAssistantMessages) == 0 {
		return none
	}
	candidateTokens := strings.Fields(candidate)

	best := none
	for _, msg := range in.HistoryAssistantMessages {
		prior := normalizeQuestion(msg)
		if prior == "" {
			continue
		}

		if prior == candidate {
			return DuplicateMatch{IsDuplicate: true, Reason: DuplicateExact, Similarity: 1}
		}

		priorTokens := strings.Fields(prior)
		sim := jaccard(candidateTokens, priorTokens)
		if sim < best.Similarity || sim < duplicateThreshold {
			continue
		}

		reason := DuplicateHighSimilarity
		switch {
		case sim == 1:
			// Token-set identity (a reordering) reads as the same question.
			reason = DuplicateExact
		case commonPrefixLen(candidateTokens, priorTokens) >= samePrefixMinTokens:
			reason = DuplicateSamePrefix
		}
		best = DuplicateMatch{IsDuplicate: true, Reason: reason, Similarity: sim}
	}

	return best
}

// normalizeQuestion lowercases, drops punctuation and collapses whitespace.
func normalizeQuestion(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// Everything else (punctuation, symbols, emoji) is dropped.
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// jaccard computes token-set overlap in [0,1].
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// commonPrefixLen counts how many leading tokens two messages share.
func commonPrefixLen(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
