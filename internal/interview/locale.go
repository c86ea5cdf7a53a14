package interview

import "fmt"

// Supported feedback locales. Anything else falls back to English.
const (
	LanguageItalian = "it"
	LanguageEnglish = "en"
)

type feedbackTemplates struct {
	explainBetter  string // shown when re-asking a field more specifically
	askDifferently string // shown when re-asking a deep-offer confirmation
	moveOn         string // shown when giving up on a confirmation
}

var localeTemplates = map[string]feedbackTemplates{
	LanguageEnglish: {
		explainBetter:  "I didn't quite catch your %s. Could you share it a bit more specifically?",
		askDifferently: "Sorry, I'm not sure I understood. Would you like to keep going for a few more questions?",
		moveOn:         "No problem, let's move on.",
	},
	LanguageItalian: {
		explainBetter:  "Non ho capito bene il campo %s. Potresti indicarlo in modo un po' più preciso?",
		askDifferently: "Scusa, non sono sicuro di aver capito. Ti va di continuare con qualche altra domanda?",
		moveOn:         "Nessun problema, andiamo avanti.",
	},
}

func templatesFor(language string) feedbackTemplates {
	if t, ok := localeTemplates[language]; ok {
		return t
	}
	return localeTemplates[LanguageEnglish]
}

func explainBetterFeedback(language, fieldName string) string {
	return fmt.Sprintf(templatesFor(language).explainBetter, fieldName)
}

func askDifferentlyFeedback(language string) string {
	return templatesFor(language).askDifferently
}

func moveOnFeedback(language string) string {
	return templatesFor(language).moveOn
}
