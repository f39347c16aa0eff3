// Package relevance decides whether a candidate item matches the configured
// keyword list, checking the title first and falling back to a fetch of the
// item's full document body.
package relevance

import "strings"

// Matcher performs case-insensitive substring matching against a fixed
// keyword list. Substring matches inside longer words count; the keyword
// list is curated with that in mind.
type Matcher struct {
	keywords []string
}

// NewMatcher builds a Matcher from the configured keywords. Keywords are
// lower-cased once up front.
func NewMatcher(keywords []string) *Matcher {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Matcher{keywords: lowered}
}

// MatchText reports whether any keyword occurs in the lower-cased text.
// Empty text never matches.
func (m *Matcher) MatchText(text string) bool {
	if text == "" {
		return false
	}
	low := strings.ToLower(text)
	for _, kw := range m.keywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}
