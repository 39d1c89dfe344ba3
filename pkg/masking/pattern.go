package masking

import "regexp"

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatterns is the fixed set of secret-shaped substrings spec.md
// §4.8.1 requires redacting: oracle/planner API keys, bearer/JWT tokens,
// and cloud credentials that might otherwise leak into a log line or an
// `error` event's message field. Unlike the teacher's per-MCP-server
// registry of masking groups, this domain has one fixed audience (our
// own logs and API responses), so every pattern always applies — there
// is no per-caller pattern-group selection to resolve.
var builtinPatterns = mustCompile(map[string]patternDef{
	"api_key": {
		pattern:     `(?i)(?:api[_-]?key|apikey)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-]{16,})["']?`,
		replacement: `api_key=[MASKED_API_KEY]`,
	},
	"bearer_token": {
		pattern:     `(?i)bearer\s+[A-Za-z0-9_\-\.]{16,}`,
		replacement: `Bearer [MASKED_TOKEN]`,
	},
	"jwt": {
		pattern:     `\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`,
		replacement: `[MASKED_JWT]`,
	},
	"aws_access_key": {
		pattern:     `\bAKIA[A-Z0-9]{16}\b`,
		replacement: `[MASKED_AWS_KEY]`,
	},
	"generic_secret": {
		pattern:     `(?i)(?:secret|token|password|pwd)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-\.]{12,})["']?`,
		replacement: `[MASKED_SECRET]`,
	},
})

type patternDef struct {
	pattern     string
	replacement string
}

func mustCompile(defs map[string]patternDef) []*CompiledPattern {
	out := make([]*CompiledPattern, 0, len(defs))
	for name, d := range defs {
		out = append(out, &CompiledPattern{Name: name, Regex: regexp.MustCompile(d.pattern), Replacement: d.replacement})
	}
	return out
}
