package text

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize converts text to NFKC so that ligatures, full width characters and
// compatibility forms match TERMite's dictionaries. Line endings become '\n'.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return norm.NFKC.String(s)
}
