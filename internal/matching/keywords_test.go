package matching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractorKeywords(t *testing.T) {
	e := NewExtractor(nil, 20)

	got := e.Keywords("Lost: BLUE leather wallet near the central fountain, please help!")
	require.Equal(t, []string{"blue", "leather", "wallet", "central", "fountain"}, got)
}

func TestExtractorKeywordsDropsShortAndStopTokens(t *testing.T) {
	e := NewExtractor(nil, 20)

	got := e.Keywords("I we at on the and for was found lost it ok go")
	require.Empty(t, got)
}

func TestExtractorKeywordsStripsPunctuationInPlace(t *testing.T) {
	e := NewExtractor(nil, 20)

	// Punctuation is removed, not turned into a separator.
	got := e.Keywords("head-phones (black), 2nd-gen")
	require.Equal(t, []string{"headphones", "black", "2ndgen"}, got)
}

func TestExtractorKeywordsDeduplicates(t *testing.T) {
	e := NewExtractor(nil, 20)

	got := e.Keywords("wallet wallet brown wallet brown keys")
	require.Equal(t, []string{"wallet", "brown", "keys"}, got)
}

func TestExtractorKeywordsCap(t *testing.T) {
	e := NewExtractor(nil, 20)

	words := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		words = append(words, "token"+strings.Repeat("x", i+1))
	}
	got := e.Keywords(strings.Join(words, " "))
	require.Len(t, got, 20)
	require.Equal(t, words[:20], got)
}

func TestExtractorKeywordsEmptyInput(t *testing.T) {
	e := NewExtractor(nil, 20)

	require.Empty(t, e.Keywords(""))
	require.Empty(t, e.Keywords("   \t\n  "))
	require.Empty(t, e.Keywords("!!! ... ???"))
}

func TestExtractorKeywordsProperties(t *testing.T) {
	e := NewExtractor(nil, 20)

	inputs := []string{
		"Lost my dark-blue JanSport backpack on the 5 train this morning",
		"found. a set of KEYS with a red keychain @ the gym locker room",
		"iPhone 13 (cracked screen) left in Caffe Nero on 3rd street",
		strings.Repeat("umbrella raincoat boots gloves scarf hat ", 12),
	}
	for _, in := range inputs {
		got := e.Keywords(in)
		require.LessOrEqual(t, len(got), 20)
		for _, tok := range got {
			require.Greater(t, len(tok), 2)
			require.Equal(t, strings.ToLower(tok), tok)
			for _, r := range tok {
				ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
				require.True(t, ok, "token %q has non-alphanumeric rune", tok)
			}
			_, stopped := e.stop[tok]
			require.False(t, stopped, "token %q is a stop-word", tok)
		}
	}
}

func TestExtractorCustomStopWords(t *testing.T) {
	e := NewExtractor([]string{"Wallet"}, 20)

	got := e.Keywords("brown wallet found")
	require.Equal(t, []string{"brown", "found"}, got)
}

func TestNormalizeLocation(t *testing.T) {
	require.Equal(t, "central park", NormalizeLocation("  Central Park  "))
	require.Equal(t, "5th ave & main st", NormalizeLocation("5th Ave & Main St"))
	require.Equal(t, "", NormalizeLocation("   "))
	require.Equal(t, "", NormalizeLocation(""))
}

func TestSharedLocationToken(t *testing.T) {
	require.True(t, sharedLocationToken("main library entrance", "north entrance"))
	require.False(t, sharedLocationToken("gate b2", "terminal b2"), "short tokens are ignored")
	require.False(t, sharedLocationToken("", "north entrance"))
	require.False(t, sharedLocationToken("east wing", "west hall"))
}
