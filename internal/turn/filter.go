package turn

import "strings"

// UtteranceFilter gates transcripts before the costly response-generation
// step, rejecting echo and transcription artifacts. Thresholds deliberately
// under-trigger: a wasted generation is cheap, a dropped real utterance is
// not.
type UtteranceFilter struct {
	fillers map[string]struct{}
}

func NewUtteranceFilter(fillerWords []string) *UtteranceFilter {
	set := make(map[string]struct{}, len(fillerWords))
	for _, w := range fillerWords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &UtteranceFilter{fillers: set}
}

// IsNoise reports whether a transcript is likely echo or noise rather than
// genuine caller speech.
func (f *UtteranceFilter) IsNoise(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if len([]rune(t)) < 2 {
		return true
	}

	words := strings.Fields(t)
	if len(words) == 0 {
		return true
	}

	allFiller := true
	for _, w := range words {
		if _, ok := f.fillers[w]; !ok {
			allFiller = false
			break
		}
	}
	if allFiller {
		return true
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}

	// A single token looping >=4 times is a stutter artifact; very few
	// distinct tokens across a long transcript is a broken repetitive
	// transcription.
	if len(unique) == 1 && len(words) >= 4 {
		return true
	}
	if len(unique) <= 3 && len(words) >= 9 {
		return true
	}
	return false
}
