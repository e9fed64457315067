package platform

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	scriptStyleTags = regexp.MustCompile(`(?is)<(script|style)[^>]*?>.*?</(script|style)>`)
	anyTag          = regexp.MustCompile(`(?s)<[^>]*>`)
	percentOctets   = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	whitespaceRun   = regexp.MustCompile(`[\r\n\t ]+`)
	htmlClassStrip  = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// SanitizeTextField cleans a user-supplied string the way the platform does
// for single-line text: invalid UTF-8 yields "", tags are stripped,
// percent-encoded octets removed, whitespace collapsed and trimmed.
func SanitizeTextField(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	if strings.Contains(s, "<") {
		s = scriptStyleTags.ReplaceAllString(s, "")
		s = anyTag.ReplaceAllString(s, "")
		s = strings.ReplaceAll(s, "<", "&lt;")
	}
	for {
		stripped := percentOctets.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SanitizeHTMLClass reduces s to characters valid in a CSS class name.
func SanitizeHTMLClass(s string) string {
	s = percentOctets.ReplaceAllString(s, "")
	return htmlClassStrip.ReplaceAllString(s, "")
}
