package analysis

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
)

// scorePatterns holds one compiled pattern per factor, matching the factor's
// score token as a JSON-style field anywhere in a completion, e.g.
// `"liability_clarity_score": 72.5`. Model output is frequently wrapped in
// prose or markdown fences, so full-document JSON parsing is not reliable.
var scorePatterns = func() map[domain.Factor]*regexp.Regexp {
	factors := domain.AllFactors()
	patterns := make(map[domain.Factor]*regexp.Regexp, len(factors))
	for _, f := range factors {
		expr := fmt.Sprintf(`"%s"\s*:\s*(-?\d+(?:\.\d+)?)`, regexp.QuoteMeta(f.ScoreToken()))
		patterns[f] = regexp.MustCompile(expr)
	}
	return patterns
}()

// ExtractScore pulls the factor's score token out of a model completion.
// Returns false when the token is absent or unparseable; callers treat that
// as a zero score rather than a failure.
func ExtractScore(completion string, factor domain.Factor) (float64, bool) {
	pattern, ok := scorePatterns[factor]
	if !ok {
		return 0, false
	}
	m := pattern.FindStringSubmatch(completion)
	if m == nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return score, true
}
