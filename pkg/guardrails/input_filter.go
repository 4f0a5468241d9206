package guardrails

import (
	"fmt"
	"strings"
)

// InputDeniedError reports the deny-listed keyword found in a prompt
type InputDeniedError struct {
	Keyword string
}

func (e *InputDeniedError) Error() string {
	return fmt.Sprintf("the word '%s' is not allowed in the prompt", e.Keyword)
}

// ScanInput rejects prompt if it contains any deny-listed keyword. Matching
// is a case-insensitive substring search, so a keyword inside a larger word
// still matches. The first keyword in declaration order wins.
func ScanInput(prompt string, denyList []string) error {
	if keyword, ok := firstMatch(strings.ToLower(prompt), denyList); ok {
		return &InputDeniedError{Keyword: keyword}
	}
	return nil
}

// firstMatch returns the first term of denyList contained in folded, which
// must already be lower-cased. Empty terms never match.
func firstMatch(folded string, denyList []string) (string, bool) {
	for _, term := range denyList {
		if term == "" {
			continue
		}
		if strings.Contains(folded, strings.ToLower(term)) {
			return term, true
		}
	}
	return "", false
}
