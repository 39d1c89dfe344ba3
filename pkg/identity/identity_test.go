package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseLowercasesAndCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "barack obama", Normalise("  Barack   Obama  "))
}

func TestNormaliseStripsDiacritics(t *testing.T) {
	assert.Equal(t, "beyonce", Normalise("Beyoncé"))
}

func TestNormaliseStripsGenerationalSuffix(t *testing.T) {
	assert.Equal(t, "robert downey", Normalise("Robert Downey Jr."))
	assert.Equal(t, "robert downey", Normalise("Robert Downey Jr"))
}

func TestNodeIDIsPureFunctionOfNormalisedName(t *testing.T) {
	id1 := NodeIDForName("Barack Obama")
	id2 := NodeIDForName("  barack   obama ")
	assert.Equal(t, id1, id2)
}

func TestNodeIDDiffersForDifferentNames(t *testing.T) {
	assert.NotEqual(t, NodeIDForName("Barack Obama"), NodeIDForName("Michelle Obama"))
}

func TestMatchesExactEquality(t *testing.T) {
	assert.True(t, Matches("Barack Obama", "barack obama", nil))
}

func TestMatchesReversedTwoWordOrder(t *testing.T) {
	assert.True(t, Matches("Obama Barack", "Barack Obama", nil))
}

func TestMatchesWholeWordSubsetOnly(t *testing.T) {
	assert.True(t, Matches("Barack Obama", "Barack Hussein Obama", nil))
	// "An" must not match "Anderson" via substring containment.
	assert.False(t, Matches("An Cooper", "Anderson Cooper", nil))
}

func TestMatchesSingleTokenSurname(t *testing.T) {
	assert.True(t, Matches("Musk", "Elon Musk", nil))
	assert.False(t, Matches("Musk", "Elon Gates", nil))
}

func TestMatchesViaAliasTable(t *testing.T) {
	table, err := NewAliasTable()
	require.NoError(t, err)
	assert.True(t, Matches("RDJ", "Robert Downey Jr", table))
}

func TestMatchesRejectsUnrelatedNames(t *testing.T) {
	assert.False(t, Matches("Taylor Swift", "Katy Perry", nil))
}
