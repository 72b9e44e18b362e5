package content

import (
	"regexp"
	"strings"
)

// Each pattern is a section keyword, the lazily matched section body, and a
// terminator in group 1. The terminator (next "Header:" line or a blank line)
// is kept in the text; only the keyword and body are removed.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)introduction[\s\S]+?(\n[a-zA-Z ]{3,}:|\n\n)`),
	regexp.MustCompile(`(?i)definitions[\s\S]+?(\n[a-zA-Z ]{3,}:|\n\n)`),
	regexp.MustCompile(`(?i)changes (?:to|in) .*?policy[\s\S]+?(\n[a-zA-Z ]{3,}:|\n\n)`),
	regexp.MustCompile(`(?i)contact (?:us|information)[\s\S]+?(\n[a-zA-Z ]{3,}:|\n\n)`),
	regexp.MustCompile(`(?i)governing law[\s\S]+?(\n[a-zA-Z ]{3,}:|\n\n)`),
	regexp.MustCompile(`(?i)effective date[\s\S]+?(\n[a-zA-Z ]{3,}:|\n\n)`),
	regexp.MustCompile(`(?i)data (?:controller|processor)[\s\S]+?(\n[a-zA-Z ]{3,}:|\n\n)`),
}

func stripSections(text string) string {
	for _, re := range sectionPatterns {
		text = stripSection(re, text)
	}
	return text
}

// stripSection removes every non-overlapping match of re up to the start of
// its terminator group. Scanning resumes at the terminator, so a terminator
// can close one section and precede the next.
func stripSection(re *regexp.Regexp, text string) string {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}

	var b strings.Builder
	rest := text
	for loc != nil {
		b.WriteString(rest[:loc[0]])
		rest = rest[loc[2]:]
		loc = re.FindStringSubmatchIndex(rest)
	}
	b.WriteString(rest)
	return b.String()
}
