// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"regexp"
	"strings"

	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// categoryPatterns decide whether a line of scraped page text is relevant to
// a category. Web search content arrives as loosely extracted prose; most of
// it is navigation chrome and unrelated listings.
var categoryPatterns = map[types.Category]*regexp.Regexp{
	types.CategoryConcerts: regexp.MustCompile(
		`(?i)\b(concert|live music|show|gig|tour|band|dj|setlist|venue|tickets?)\b`),
	types.CategoryEvents: regexp.MustCompile(
		`(?i)\b(event|festival|market|exhibit|fair|game|match|screening|comedy|theater|theatre)\b`),
	types.CategoryDining: regexp.MustCompile(
		`(?i)\b(restaurant|menu|chef|dish|brunch|dinner|tasting|cuisine|bar|cafe|eat)\b`),
	types.CategoryLocations: regexp.MustCompile(
		`(?i)\b(museum|park|gallery|landmark|attraction|trail|garden|tour|viewpoint|historic)\b`),
}

const snippetMaxLines = 3

// RelevantSnippet keeps the first few lines of content that actually mention
// the category, joined into one description. Returns "" when nothing in the
// content is on topic.
func RelevantSnippet(content string, cat types.Category) string {
	pattern, ok := categoryPatterns[cat]
	if !ok {
		return strings.TrimSpace(content)
	}

	var kept []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !pattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
		if len(kept) == snippetMaxLines {
			break
		}
	}
	return strings.Join(kept, " ")
}
