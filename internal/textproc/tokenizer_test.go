package textproc

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// suffixLemmatizer strips a trailing "s" so tests do not depend on the
// dictionary contents.
type suffixLemmatizer struct{}

func (suffixLemmatizer) Lemma(word string) string {
	if len(word) > 3 {
		return strings.TrimSuffix(word, "s")
	}
	return word
}

func TestTokenize_Dictionary(t *testing.T) {
	tok, err := NewTokenizer()
	require.NoError(t, err)

	got := tok.Tokenize("Hello, World! 123")
	if diff := cmp.Diff([]string{"hello", "world", "123"}, got); diff != "" {
		t.Fatalf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize(t *testing.T) {
	tok, err := NewTokenizer(WithLemmatizer(suffixLemmatizer{}))
	require.NoError(t, err)

	tests := []struct {
		in   string
		want []string
	}{
		{"Hello, World! 123", []string{"hello", "world", "123"}},
		{"We need WATER and food in the camps", []string{"need", "water", "food", "camp"}},
		{"tents tents tents", []string{"tent", "tent", "tent"}},
		{"road-blocked; bridges/out", []string{"road", "blocked", "bridge"}},
		{"Café près d'ici", []string{"caf", "pr", "ici"}},
		{"", nil},
		{"the and of", nil},
	}
	for _, tt := range tests {
		got := tok.Tokenize(tt.in)
		if len(tt.want) == 0 {
			assert.Empty(t, got, "input %q", tt.in)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestTokenize_Faithful(t *testing.T) {
	tok, err := NewTokenizer(WithFaithful(true))
	require.NoError(t, err)

	// Case is kept, so capitalized stop words survive, and tokens are not
	// lemmatized.
	got := tok.Tokenize("The camps need Water")
	if diff := cmp.Diff([]string{"The", "camps", "need", "Water"}, got); diff != "" {
		t.Fatalf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_StopWords(t *testing.T) {
	tok, err := NewTokenizer(WithLemmatizer(suffixLemmatizer{}))
	require.NoError(t, err)

	assert.Empty(t, tok.Tokenize("the wouldn"))
	assert.Equal(t, []string{"water"}, tok.Tokenize("water"))
	assert.False(t, tok.Faithful())

	faithful, err := NewTokenizer(WithFaithful(true))
	require.NoError(t, err)
	assert.True(t, faithful.Faithful())
}
