// Package slug derives URL-safe identifiers from display names.
package slug

import "strings"

// Generate lower-cases name, turns spaces into hyphens and drops every rune
// outside [a-z0-9-]. The result may be empty for names made only of
// punctuation; callers decide how to treat that.
func Generate(name string) string {
	s := strings.ReplaceAll(strings.ToLower(name), " ", "-")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
