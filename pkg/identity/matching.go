package identity

import "strings"

// Matches reports whether two raw names refer to the same person,
// applying the rule chain from spec.md §4.3 in order: exact normalised
// equality; alias table lookup; reversed two-word order; whole-word
// subset containment; surname+first-name equality; single-token surname
// equality. The Open Question in spec.md §9 is resolved here: containment
// is whole-word only, never substring, to avoid short-name false
// positives.
func Matches(a, b string, aliases *AliasTable) bool {
	na, nb := Normalise(a), Normalise(b)
	if na == nb {
		return true
	}
	if aliases != nil && aliases.SameCanonical(na, nb) {
		return true
	}
	if reversedTwoWordMatch(na, nb) {
		return true
	}
	if wholeWordSubset(na, nb) {
		return true
	}
	if surnameFirstNameMatch(na, nb) {
		return true
	}
	if singleTokenSurnameMatch(na, nb) {
		return true
	}
	return false
}

func reversedTwoWordMatch(a, b string) bool {
	aw, bw := strings.Fields(a), strings.Fields(b)
	if len(aw) != 2 || len(bw) != 2 {
		return false
	}
	return aw[0] == bw[1] && aw[1] == bw[0]
}

// wholeWordSubset reports whether the shorter name's words all appear,
// as whole words, within the longer name's word set.
func wholeWordSubset(a, b string) bool {
	aw, bw := strings.Fields(a), strings.Fields(b)
	if len(aw) == 0 || len(bw) == 0 {
		return false
	}
	shorter, longer := aw, bw
	if len(bw) < len(aw) {
		shorter, longer = bw, aw
	}
	longerSet := make(map[string]bool, len(longer))
	for _, w := range longer {
		longerSet[w] = true
	}
	for _, w := range shorter {
		if !longerSet[w] {
			return false
		}
	}
	return true
}

// surnameFirstNameMatch requires both the first token and last token to
// match between the two names (handles middle-name/initial variance).
func surnameFirstNameMatch(a, b string) bool {
	aw, bw := strings.Fields(a), strings.Fields(b)
	if len(aw) < 2 || len(bw) < 2 {
		return false
	}
	return aw[0] == bw[0] && aw[len(aw)-1] == bw[len(bw)-1]
}

// singleTokenSurnameMatch allows a bare surname to match a full name
// sharing that surname (e.g. "Musk" vs "Elon Musk").
func singleTokenSurnameMatch(a, b string) bool {
	aw, bw := strings.Fields(a), strings.Fields(b)
	if len(aw) == 1 && len(bw) >= 1 {
		return aw[0] == bw[len(bw)-1]
	}
	if len(bw) == 1 && len(aw) >= 1 {
		return bw[0] == aw[len(aw)-1]
	}
	return false
}
