package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNoise(t *testing.T) {
	f := NewUtteranceFilter([]string{"hmm", "hm", "uh", "um", "ah", "oh"})

	cases := []struct {
		name  string
		text  string
		noise bool
	}{
		{"empty", "", true},
		{"single rune", "a", true},
		{"filler only", "hmm uh um", true},
		{"filler mixed case", "Hmm UH", true},
		{"single token looped", "hello hello hello hello", true},
		{"few tokens long transcript", "pay pay now pay now pay now pay now", true},
		{"genuine short reply", "yes", false},
		{"genuine sentence", "I will pay the amount before the due date", false},
		{"three repeats pass", "hello hello hello", false},
		{"filler plus content", "hmm I can pay tomorrow", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.noise, f.IsNoise(tc.text))
		})
	}
}
