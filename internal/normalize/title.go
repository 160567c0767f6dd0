package normalize

import (
	"regexp"
	"strings"
)

var (
	htmlTags   = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)

	// Promotional prefixes the scrapers occasionally capture with the title.
	promoPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^extra\s+\d+%\s+off[:\s-]*`),
		regexp.MustCompile(`(?i)^sale[:\s-]+`),
		regexp.MustCompile(`(?i)^clearance[:\s-]+`),
		regexp.MustCompile(`(?i)^deal\s+of\s+the\s+day[:\s-]+`),
	}

	curlyBlock    = regexp.MustCompile(`\{[^}]*\}`)
	leadingCSSRef = regexp.MustCompile(`^#[\w-]+\s`)
)

// CleanTitle strips HTML tags and promotional prefixes from a raw listing
// title and collapses the whitespace. Returns "" when the remainder is CSS
// debris rather than a product name, which drops the listing upstream.
func CleanTitle(raw string) string {
	title := htmlTags.ReplaceAllString(raw, " ")
	title = whitespace.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)

	for changed := true; changed; {
		changed = false
		for _, pattern := range promoPrefixes {
			if stripped := pattern.ReplaceAllString(title, ""); stripped != title {
				title = strings.TrimSpace(stripped)
				changed = true
			}
		}
	}

	if looksLikeMarkupDebris(title) {
		return ""
	}
	return title
}

// looksLikeMarkupDebris flags titles that are leaked stylesheet or markup
// fragments. Some sources scrape inline <style> content into the title slot.
func looksLikeMarkupDebris(title string) bool {
	if len(title) < 3 {
		return true
	}
	lower := strings.ToLower(title)
	if strings.HasPrefix(lower, "@media") || strings.HasPrefix(lower, ":root") {
		return true
	}
	if curlyBlock.MatchString(title) {
		return true
	}
	if leadingCSSRef.MatchString(title) && strings.Contains(title, "{") {
		return true
	}
	// A title that is mostly punctuation is never a shoe.
	letters := 0
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			letters++
		}
	}
	return letters*2 < len(title)
}
