package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", LangEnglish},
		{"english", LangEnglish},
		{"EN", LangEnglish},
		{"en-IN", LangEnglish},
		{"English (UK)", LangEnglish},
		{"Hindi", LangHindi},
		{"hi_IN", LangHindi},
		{"tamil", LangTamil},
		{"ta", LangTamil},
		{"klingon", LangEnglish},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeLanguage(tc.in), "input %q", tc.in)
	}
}

func TestLoadPoliciesDefaults(t *testing.T) {
	os.Unsetenv("POLICY_FILE")
	policies := LoadPolicies()

	require.Len(t, policies, 3)
	for _, lang := range []string{LangEnglish, LangHindi, LangTamil} {
		p := policies[lang]
		assert.NotEmpty(t, p.Greeting, lang)
		assert.NotEmpty(t, p.SystemPrompt, lang)
		assert.NotEmpty(t, p.FallbackAck, lang)
		assert.NotEmpty(t, p.Speaker, lang)
		assert.NotEmpty(t, p.FarewellPhrases, lang)
	}
	assert.Equal(t, "vidya", policies[LangEnglish].Speaker)
}

func TestLoadPoliciesMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"en": {"speaker": "anushka", "greeting": "Hello there."}
	}`), 0o644))
	t.Setenv("POLICY_FILE", path)

	policies := LoadPolicies()
	en := policies[LangEnglish]
	assert.Equal(t, "anushka", en.Speaker)
	assert.Equal(t, "Hello there.", en.Greeting)
	// Untouched fields keep their defaults.
	assert.NotEmpty(t, en.SystemPrompt)
	assert.NotEmpty(t, en.FarewellPhrases)
	assert.Len(t, policies, 3)
}

func TestLoadPoliciesBrokenFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	t.Setenv("POLICY_FILE", path)

	policies := LoadPolicies()
	assert.Equal(t, defaultPolicies()[LangEnglish].Greeting, policies[LangEnglish].Greeting)
}
