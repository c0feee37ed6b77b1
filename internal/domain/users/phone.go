package users

import (
	"regexp"
	"strings"
)

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// NormalizePhone quita espacios/guiones/paréntesis y valida formato E.164.
func NormalizePhone(raw string) (string, bool) {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	p := r.Replace(strings.TrimSpace(raw))
	if !e164.MatchString(p) {
		return "", false
	}
	return p, true
}
