package service

import (
	"regexp"
	"strings"
)

var (
	jsSchemeRe = regexp.MustCompile(`(?i)javascript:`)
	onAttrRe   = regexp.MustCompile(`(?i)on\w+=`)
)

// sanitizeInput strips the characters and fragments most commonly used for
// markup injection before the value reaches storage or an email template.
func sanitizeInput(s string) string {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	s = jsSchemeRe.ReplaceAllString(s, "")
	s = onAttrRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
