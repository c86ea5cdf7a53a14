package interview

import (
	"strings"
	"time"
	"unicode"
)

const (
	// Reply-length boundaries (runes) for fatigue and tone heuristics.
	shortReplyRunes = 25
	longReplyRunes  = 120

	// Fatigue moves up faster than it recovers: a curt answer is a stronger
	// signal than a detailed one.
	fatigueCurtStep     = 0.15
	fatigueDetailedStep = 0.10

	// Smoothing factor for the running average response length.
	responseLengthAlpha = 0.3

	// Coverage ratio boundaries for escalating a topic's coverage level.
	moderateCoverageRatio = 0.25
	deepCoverageRatio     = 0.75
)

// AreaSkip reports that a topic area was skipped this turn. Reason is only
// recorded on the final skip; intermediate retries just bump the counter.
type AreaSkip struct {
	Area     string
	Priority Priority
	Final    bool
	Reason   SkipReason
}

// TurnSignals is everything one processed turn contributes to memory.
type TurnSignals struct {
	UserMessage string
	// NewFacts are the facts the extraction capability pulled from this
	// turn's reply.
	NewFacts []CollectedFact
	// SubGoalsAddressed maps topic id to the sub-goals this reply addressed.
	SubGoalsAddressed map[string][]string
	SkippedArea       *AreaSkip
	Timestamp         time.Time
}

// ApplyTurn folds one turn's signals into memory and returns the updated
// copy. The input memory is never mutated, so an aborted turn leaves the
// committed snapshot untouched.
func ApplyTurn(memory *ConversationMemory, signals TurnSignals) *ConversationMemory {
	if memory == nil {
		memory = &ConversationMemory{}
	}
	next := memory.Clone()

	ts := signals.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	appendFacts(next, signals.NewFacts, ts)
	updateCoverage(next, signals.SubGoalsAddressed, ts)
	updateEngagement(next, signals.UserMessage)
	recordSkip(next, signals.SkippedArea)

	return next
}

func appendFacts(mem *ConversationMemory, facts []CollectedFact, ts time.Time) {
	for _, f := range facts {
		if strings.TrimSpace(f.Content) == "" {
			continue
		}
		if f.ExtractedAt.IsZero() {
			f.ExtractedAt = ts
		}
		mem.FactsCollected = append(mem.FactsCollected, f)
	}
}

// updateCoverage moves addressed sub-goals from missing to covered and
// escalates the coverage level. Escalation is monotonic: a level never
// drops, even if the ratio heuristic changes underneath it.
func updateCoverage(mem *ConversationMemory, addressed map[string][]string, ts time.Time) {
	if len(addressed) == 0 {
		return
	}
	for i := range mem.TopicsExplored {
		topic := &mem.TopicsExplored[i]
		goals, ok := addressed[topic.TopicID]
		if !ok || len(goals) == 0 {
			continue
		}

		for _, goal := range goals {
			idx := indexOf(topic.SubGoalsMissing, goal)
			if idx < 0 {
				continue // unknown or already covered; never re-add
			}
			topic.SubGoalsMissing = append(topic.SubGoalsMissing[:idx], topic.SubGoalsMissing[idx+1:]...)
			topic.SubGoalsCovered = append(topic.SubGoalsCovered, goal)
		}
		topic.LastExploredAt = ts

		if level := coverageFor(len(topic.SubGoalsCovered), len(topic.SubGoalsMissing)); coverageRank(level) > coverageRank(topic.CoverageLevel) {
			topic.CoverageLevel = level
		}
	}
}

func coverageFor(covered, missing int) CoverageLevel {
	total := covered + missing
	if total == 0 || covered == 0 {
		return CoverageShallow
	}
	ratio := float64(covered) / float64(total)
	switch {
	case ratio >= deepCoverageRatio:
		return CoverageDeep
	case ratio >= moderateCoverageRatio:
		return CoverageModerate
	default:
		return CoverageShallow
	}
}

func coverageRank(level CoverageLevel) int {
	switch level {
	case CoverageDeep:
		return 2
	case CoverageModerate:
		return 1
	default:
		return 0
	}
}

// updateEngagement adjusts fatigue, tone, average length and emoji usage
// from this turn's reply. These are pacing heuristics, not normative data;
// downstream phrasing consumes them.
func updateEngagement(mem *ConversationMemory, reply string) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return
	}
	length := float64(len([]rune(reply)))

	switch {
	case length < shortReplyRunes:
		mem.UserFatigueScore = clamp01(mem.UserFatigueScore + fatigueCurtStep)
	case length > longReplyRunes:
		mem.UserFatigueScore = clamp01(mem.UserFatigueScore - fatigueDetailedStep)
	}

	if mem.AvgResponseLength == 0 {
		mem.AvgResponseLength = length
	} else {
		mem.AvgResponseLength = responseLengthAlpha*length + (1-responseLengthAlpha)*mem.AvgResponseLength
	}

	if containsEmoji(reply) {
		mem.UsesEmoji = true
	}

	mem.DetectedTone = detectTone(mem, reply)
}

func detectTone(mem *ConversationMemory, reply string) Tone {
	lower := strings.ToLower(reply)
	switch {
	case mem.UsesEmoji || hasCasualMarker(lower):
		return ToneCasual
	case hasFormalMarker(lower):
		return ToneFormal
	case mem.AvgResponseLength > 0 && mem.AvgResponseLength < shortReplyRunes:
		return ToneBrief
	case mem.AvgResponseLength > longReplyRunes:
		return ToneVerbose
	default:
		return mem.DetectedTone
	}
}

var casualMarkers = []string{"lol", "haha", "yeah", "yep", "nah", "cool", "hey", "ciao", "boh", "vabbè"}

var formalMarkers = []string{"dear", "regards", "sincerely", "kindly", "gentile", "cordiali saluti", "distinti saluti"}

func hasCasualMarker(lower string) bool {
	for _, m := range casualMarkers {
		if containsWord(lower, m) {
			return true
		}
	}
	return false
}

func hasFormalMarker(lower string) bool {
	for _, m := range formalMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for _, tok := range strings.Fields(text) {
		if strings.Trim(tok, ".,!?;:'\"") == word {
			return true
		}
	}
	return false
}

func containsEmoji(s string) bool {
	for _, r := range s {
		if r >= 0x1F000 && r <= 0x1FAFF {
			return true
		}
		if r >= 0x2600 && r <= 0x27BF {
			return true
		}
		if unicode.Is(unicode.So, r) {
			return true
		}
	}
	return false
}

// recordSkip bumps the retry counter for a skipped area and stamps the skip
// reason only when the skip is final.
func recordSkip(mem *ConversationMemory, skip *AreaSkip) {
	if skip == nil || strings.TrimSpace(skip.Area) == "" {
		return
	}
	for i := range mem.UnansweredAreas {
		if mem.UnansweredAreas[i].Area != skip.Area {
			continue
		}
		mem.UnansweredAreas[i].Attempts++
		if skip.Final {
			mem.UnansweredAreas[i].SkipReason = skip.Reason
		}
		return
	}

	area := UnansweredArea{
		Area:     skip.Area,
		Priority: skip.Priority,
		Attempts: 1,
	}
	if area.Priority == "" {
		area.Priority = PriorityMedium
	}
	if skip.Final {
		area.SkipReason = skip.Reason
	}
	mem.UnansweredAreas = append(mem.UnansweredAreas, area)
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
