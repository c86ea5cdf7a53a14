package webchat

import (
	"strings"

	"github.com/attento-ai/interview-platform/internal/interview"
	"github.com/attento-ai/interview-platform/internal/leads"
)

// renderDecision flattens a turn decision into the single text message the
// widget shows. The engine hands back structured parts; the order here is
// retry feedback first, then the deep offer or the next question.
func renderDecision(decision *interview.TurnDecision, language string) string {
	if decision == nil {
		return ""
	}

	var parts []string
	if decision.Validation != nil && !decision.Validation.IsValid && decision.Validation.Feedback != "" {
		parts = append(parts, decision.Validation.Feedback)
	}

	switch {
	case decision.DeepOffer != nil:
		if decision.DeepOffer.FeedbackMessage != "" && len(parts) == 0 {
			parts = append(parts, decision.DeepOffer.FeedbackMessage)
		}
		if decision.DeepOffer.ExtensionPreview != "" {
			parts = append(parts, decision.DeepOffer.ExtensionPreview)
		}
		parts = append(parts, deepOfferQuestion(language))
	case decision.NextQuestion != "":
		parts = append(parts, decision.NextQuestion)
	case decision.Phase == interview.PhaseClosed:
		parts = append(parts, closingMessage(language))
	case decision.Phase == interview.PhaseDataCollection:
		parts = append(parts, dataCollectionPrompt(language))
	}

	return strings.Join(parts, " ")
}

func deepOfferQuestion(language string) string {
	if language == interview.LanguageItalian {
		return "Ti va di approfondire ancora qualche tema, o preferisci concludere?"
	}
	return "Would you like to keep exploring a bit more, or shall we wrap up?"
}

func dataCollectionPrompt(language string) string {
	if language == interview.LanguageItalian {
		return "Prima di salutarci, posso chiederti qualche dato di contatto?"
	}
	return "Before we finish, may I ask for a couple of contact details?"
}

func closingMessage(language string) string {
	if language == interview.LanguageItalian {
		return "Grazie mille per il tuo tempo, è stato davvero utile!"
	}
	return "Thank you so much for your time, this was really helpful!"
}

func outOfScopeMessage(language string) string {
	if language == interview.LanguageItalian {
		return "Temo di non poterti aiutare su questo, ma mi piacerebbe sentire di più sulla tua esperienza. Dove eravamo rimasti?"
	}
	return "I'm afraid I can't help with that, but I'd love to hear more about your experience. Where were we?"
}

func leadThanks(language string) string {
	if language == interview.LanguageItalian {
		return "Perfetto, grazie! Ti ricontatteremo presto."
	}
	return "Perfect, thank you! We'll be in touch soon."
}

// leadQuestion asks for one missing lead field.
func leadQuestion(field, language string) string {
	it := language == interview.LanguageItalian
	switch field {
	case leads.FieldName:
		if it {
			return "Prima che tu vada, posso chiederti il tuo nome?"
		}
		return "Before you go, could I ask your name?"
	case leads.FieldEmail:
		if it {
			return "A quale email possiamo ricontattarti?"
		}
		return "What email address can we reach you at?"
	case leads.FieldPhone:
		if it {
			return "C'è un numero di telefono dove possiamo chiamarti?"
		}
		return "Is there a phone number where we can reach you?"
	default:
		if it {
			return "Come possiamo ricontattarti?"
		}
		return "How can we get back to you?"
	}
}
