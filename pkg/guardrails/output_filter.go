package guardrails

import "strings"

// FilterResult holds the outcome of line filtering
type FilterResult struct {
	// Kept lines in original order, verbatim
	Kept []string
	// Redacted lines in original order, verbatim
	Redacted []string
	// Matches[i] is the deny-list term that removed Redacted[i]
	Matches []string
}

// Text joins the kept lines with newlines
func (r FilterResult) Text() string {
	return strings.Join(r.Kept, "\n")
}

// FilterOutput drops every line of text that contains a deny-listed term,
// ignoring case. Unlike ScanInput a match never rejects the whole text.
func FilterOutput(text string, denyList []string) FilterResult {
	lines := strings.Split(text, "\n")
	result := FilterResult{Kept: make([]string, 0, len(lines))}

	for _, line := range lines {
		if term, ok := firstMatch(strings.ToLower(line), denyList); ok {
			result.Redacted = append(result.Redacted, line)
			result.Matches = append(result.Matches, term)
			continue
		}
		result.Kept = append(result.Kept, line)
	}

	return result
}
