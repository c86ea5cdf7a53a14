package webchat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attento-ai/interview-platform/internal/interview"
)

func TestRenderDecisionNextQuestion(t *testing.T) {
	text := renderDecision(&interview.TurnDecision{
		Phase:        interview.PhaseScan,
		NextQuestion: "What do you drink in the morning?",
	}, "en")
	assert.Equal(t, "What do you drink in the morning?", text)
}

func TestRenderDecisionDeepOffer(t *testing.T) {
	insight := interview.NewDeepOfferInsight([]string{"Brand image", "Pricing"}, nil)
	text := renderDecision(&interview.TurnDecision{
		Phase:     interview.PhaseDeepOfferAsk,
		DeepOffer: &insight,
	}, "en")
	assert.Contains(t, text, "We could also explore: Brand image, Pricing")
	assert.Contains(t, text, "keep exploring")
}

func TestRenderDecisionRetryFeedbackComesFirst(t *testing.T) {
	validation := interview.Validate("email", "", interview.ConfidenceNone, 1, "en", 3)
	text := renderDecision(&interview.TurnDecision{
		Phase:        interview.PhaseDataCollection,
		Validation:   &validation,
		NextQuestion: "",
	}, "en")
	assert.Contains(t, text, validation.Feedback)
}

func TestRenderDecisionClosed(t *testing.T) {
	assert.Contains(t, renderDecision(&interview.TurnDecision{Phase: interview.PhaseClosed}, "en"), "Thank you")
	assert.Contains(t, renderDecision(&interview.TurnDecision{Phase: interview.PhaseClosed}, "it"), "Grazie")
	assert.Equal(t, "", renderDecision(nil, "en"))
}

func TestLeadQuestionLocalized(t *testing.T) {
	assert.Contains(t, leadQuestion("email", "it"), "email")
	assert.NotEqual(t, leadQuestion("email", "it"), leadQuestion("email", "en"))
	assert.NotEmpty(t, leadQuestion("unknown_field", "en"))
}
