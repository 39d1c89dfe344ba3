// Package identity implements name normalisation, deterministic node-id
// derivation, and the §4.3 name-matching rule chain used to decide whether
// two detections/suggestions refer to the same person.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nameSuffixes = map[string]bool{
	"jr": true, "jr.": true,
	"sr": true, "sr.": true,
	"ii": true, "iii": true, "iv": true,
}

// Normalise lowercases, NFD-strips diacritics, collapses whitespace, and
// removes trailing generational suffixes (Jr, Sr, II, III, IV), per
// spec.md §3's Person.normalised_name invariant.
func Normalise(name string) string {
	stripped := stripDiacritics(strings.ToLower(strings.TrimSpace(name)))
	fields := strings.Fields(stripped)
	for len(fields) > 1 && nameSuffixes[strings.TrimSuffix(fields[len(fields)-1], ",")] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue // combining mark dropped by NFD-stripping
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NodeID derives the deterministic node id from a normalised name.
// Two names that normalise equally always resolve to the same id
// (spec.md §8).
func NodeID(normalisedName string) string {
	sum := sha256.Sum256([]byte(normalisedName))
	return hex.EncodeToString(sum[:])[:32]
}

// NodeIDForName is a convenience that normalises then derives the id.
func NodeIDForName(name string) string {
	return NodeID(Normalise(name))
}
