package chatguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExitIntentMessage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain goodbye", "ok bye!", true},
		{"thanks thats all", "thanks, that's all I needed", true},
		{"gotta go", "sorry, gotta go now", true},
		{"nothing else", "nothing else, thank you", true},
		{"talk later", "talk to you later", true},
		{"italian ciao", "grazie mille, ciao", true},
		{"italian devo andare", "scusa ma devo andare", true},
		{"italian e tutto", "è tutto, grazie", true},
		{"ordinary question", "how much does the premium plan cost?", false},
		{"mentions leaving a review", "I want to leave a review", false},
		{"empty", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExitIntentMessage(tt.text))
		})
	}
}

func TestHasConfiguredScope(t *testing.T) {
	assert.False(t, HasConfiguredScope(Scope{}))
	assert.False(t, HasConfiguredScope(Scope{Topics: []string{"  ", ""}}))
	assert.True(t, HasConfiguredScope(Scope{ResearchGoal: "coffee brand perception"}))
	assert.True(t, HasConfiguredScope(Scope{Topics: []string{"", "pricing"}}))
}

func TestIsClearlyOutOfScope(t *testing.T) {
	lexicon := []string{"coffee brand perception", "pricing"}

	t.Run("no scope never flags", func(t *testing.T) {
		assert.False(t, IsClearlyOutOfScope("tell me about quantum physics", lexicon, false))
		assert.False(t, IsClearlyOutOfScope("tell me about quantum physics", nil, true))
	})

	t.Run("shared term is in scope", func(t *testing.T) {
		assert.False(t, IsClearlyOutOfScope("what do you think about our PRICING?", lexicon, true))
	})

	t.Run("no shared terms is out of scope", func(t *testing.T) {
		assert.True(t, IsClearlyOutOfScope("can you write my homework essay", lexicon, true))
	})

	t.Run("empty message is not flagged", func(t *testing.T) {
		assert.False(t, IsClearlyOutOfScope("  !! ", lexicon, true))
	})

	t.Run("short replies carry no topical signal", func(t *testing.T) {
		assert.False(t, IsClearlyOutOfScope("yes", lexicon, true))
		assert.False(t, IsClearlyOutOfScope("not really sure", lexicon, true))
	})
}

func TestShouldCollectOnExit(t *testing.T) {
	tests := []struct {
		name string
		in   ExitCollectInput
		want bool
	}{
		{
			"exit with missing field",
			ExitCollectInput{TriggerStrategy: TriggerOnExit, HasNextMissingField: true, HasExitIntent: true},
			true,
		},
		{
			"exit but nothing missing",
			ExitCollectInput{TriggerStrategy: TriggerOnExit, HasNextMissingField: false, HasExitIntent: true},
			false,
		},
		{
			"missing field but no exit",
			ExitCollectInput{TriggerStrategy: TriggerOnExit, HasNextMissingField: true, HasExitIntent: false},
			false,
		},
		{
			"other strategy is not ours",
			ExitCollectInput{TriggerStrategy: "after_n_messages", HasNextMissingField: true, HasExitIntent: true},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldCollectOnExit(tt.in))
		})
	}
}

func TestShouldAttemptLeadExtraction(t *testing.T) {
	assert.True(t, ShouldAttemptLeadExtraction(LeadExtractionInput{HasNextMissingField: true, ShouldCollect: true}))
	assert.True(t, ShouldAttemptLeadExtraction(LeadExtractionInput{HasNextMissingField: true, AwaitingLeadReply: true}),
		"awaiting a reply keeps extraction on even when collection is suppressed")
	assert.False(t, ShouldAttemptLeadExtraction(LeadExtractionInput{HasNextMissingField: true}))
	assert.False(t, ShouldAttemptLeadExtraction(LeadExtractionInput{ShouldCollect: true, AwaitingLeadReply: true}))
}
