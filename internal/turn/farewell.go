package turn

import (
	"strings"

	"github.com/vocollect/vocollect/config"
)

// farewellTailRunes bounds the closing-phrase search to the end of the
// utterance, so "thank you for telling us..." at the start of a longer reply
// does not end the call.
const farewellTailRunes = 80

// IsFarewell reports whether an assistant utterance is a genuine closing
// statement. It is deliberately conservative: any question marker anywhere in
// the text vetoes a farewell, and closing phrases only count inside the
// trailing tail.
func IsFarewell(text string, policy config.LanguagePolicy) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}

	for _, q := range policy.QuestionMarkers {
		if strings.Contains(t, strings.ToLower(q)) {
			return false
		}
	}

	runes := []rune(t)
	tail := t
	if len(runes) > farewellTailRunes {
		tail = string(runes[len(runes)-farewellTailRunes:])
	}

	for _, p := range policy.FarewellPhrases {
		if strings.Contains(tail, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
