package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxCommentLength bounds reviewer comments and close reasons
const MaxCommentLength = 2000

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// SanitizeString removes control characters, keeping tabs and newlines
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeComment trims and sanitizes free text and cuts it to MaxCommentLength runes
func SanitizeComment(s string) string {
	s = strings.TrimSpace(SanitizeString(s))
	if utf8.RuneCountInString(s) <= MaxCommentLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxCommentLength])
}
