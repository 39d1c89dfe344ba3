package identity

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var embeddedAliases []byte

// aliasFile is the on-disk shape of the embedded alias table: canonical
// normalised name -> list of normalised aliases.
type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// AliasTable is a small, read-mostly static mapping of canonical names to
// their known aliases, used to make name matching robust to nicknames and
// alternate spellings (spec.md §4.3). Loaded once at startup and cached
// in memory, guarded by a RWMutex since lookups vastly outnumber reloads.
type AliasTable struct {
	mu sync.RWMutex
	// canonicalOf maps any normalised alias (including the canonical name
	// itself) to its canonical normalised name.
	canonicalOf map[string]string
}

// NewAliasTable builds an AliasTable from the embedded alias file.
func NewAliasTable() (*AliasTable, error) {
	var f aliasFile
	if err := yaml.Unmarshal(embeddedAliases, &f); err != nil {
		return nil, err
	}
	t := &AliasTable{canonicalOf: make(map[string]string)}
	for canonical, aliases := range f.Aliases {
		normCanonical := Normalise(canonical)
		t.canonicalOf[normCanonical] = normCanonical
		for _, a := range aliases {
			t.canonicalOf[Normalise(a)] = normCanonical
		}
	}
	return t, nil
}

// Canonicalize returns the canonical normalised name for a given
// normalised name, or the input unchanged if it has no alias entry.
func (t *AliasTable) Canonicalize(normalisedName string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.canonicalOf[normalisedName]; ok {
		return c
	}
	return normalisedName
}

// SameCanonical reports whether two normalised names share a canonical
// entry via the alias table.
func (t *AliasTable) SameCanonical(a, b string) bool {
	return t.Canonicalize(a) == t.Canonicalize(b)
}
