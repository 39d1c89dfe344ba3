// Package masking redacts secret-shaped substrings — oracle/planner API
// keys, bearer tokens, and database DSNs — from any string before it
// reaches a log line or a client-facing error message (spec.md §4.8.1).
package masking

// Service applies the fixed set of builtin redaction patterns plus any
// registered structural maskers. Created once at startup; stateless
// aside from its compiled patterns, so it's safe to share across every
// goroutine logging on behalf of a run.
type Service struct {
	patterns []*CompiledPattern
	maskers  []Masker
}

// NewService builds a Service with the builtin patterns and the DSN
// structural masker registered.
func NewService() *Service {
	return &Service{
		patterns: builtinPatterns,
		maskers:  []Masker{dsnMasker{}},
	}
}

// Mask applies every structural masker, then every regex pattern, to s.
// Defensive by construction: regex replacement and URL masking can't
// themselves fail, so there is no fail-open/fail-closed branch to take.
func (s *Service) Mask(value string) string {
	if value == "" {
		return value
	}

	masked := value
	for _, m := range s.maskers {
		if m.AppliesTo(masked) {
			masked = m.Mask(masked)
		}
	}
	for _, p := range s.patterns {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}
