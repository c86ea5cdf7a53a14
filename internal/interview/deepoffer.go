package interview

import "strings"

// NewDeepOfferInsight builds the render input for the moment the interview
// proposes extending into additional topics and waits for the user's answer.
//
// extensionTopics are the labels of the topics on offer; each appears
// verbatim in the preview. validationFeedback, when present and invalid,
// carries the retry state of a previous ambiguous confirmation: it is echoed
// unchanged so the prompt renderer can see the strategy, and its feedback
// text becomes the insight's FeedbackMessage.
//
// This is a decision builder, not a state mutator: no side effects, nothing
// persisted.
func NewDeepOfferInsight(extensionTopics []string, validationFeedback *ValidationResponse) DeepOfferInsight {
	insight := DeepOfferInsight{Status: PhaseDeepOfferAsk}

	if len(extensionTopics) > 0 {
		insight.ExtensionPreview = buildExtensionPreview(extensionTopics)
	}

	if validationFeedback != nil && !validationFeedback.IsValid {
		fb := *validationFeedback
		insight.ValidationFeedback = &fb
		insight.FeedbackMessage = fb.Feedback
	}

	return insight
}

func buildExtensionPreview(labels []string) string {
	clean := make([]string, 0, len(labels))
	for _, l := range labels {
		if strings.TrimSpace(l) == "" {
			continue
		}
		clean = append(clean, l)
	}
	if len(clean) == 0 {
		return ""
	}
	return "We could also explore: " + strings.Join(clean, ", ")
}
