package turn

import "github.com/vocollect/vocollect/config"

// DetectLanguage guesses the language of a transcript from its script.
// Devanagari maps to Hindi, Tamil script to Tamil, anything else to English.
func DetectLanguage(text string) string {
	for _, r := range text {
		switch {
		case r >= 0x0900 && r <= 0x097F:
			return config.LangHindi
		case r >= 0x0B80 && r <= 0x0BFF:
			return config.LangTamil
		}
	}
	return config.LangEnglish
}
