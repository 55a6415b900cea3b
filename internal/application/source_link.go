package application

import (
	"regexp"
	"strings"
)

// sourceMarker matches a "Источник:" or "Source:" label in any letter case.
// The label must start the text or follow whitespace or the link emoji, so
// words such as "Resource:" do not count.
var sourceMarker = regexp.MustCompile(`(?i)(^|[\s🔗])(источник|source):[ \t]*`)

// withSourceLink makes sure text references url. Text that already contains
// url is returned unchanged; a bare source label gets url inserted after its
// first occurrence; otherwise a source line is appended.
func withSourceLink(text, url string) string {
	if strings.Contains(text, url) {
		return text
	}

	loc := sourceMarker.FindStringSubmatchIndex(text)
	if loc == nil {
		return text + "\n\n🔗 Источник: " + url
	}

	label := text[loc[4]:loc[5]]
	rest := text[loc[1]:]
	sep := ""
	if rest != "" && !strings.HasPrefix(rest, "\n") && !strings.HasPrefix(rest, "\r") {
		sep = " "
	}
	return text[:loc[4]] + label + ": " + url + sep + rest
}
