package alert

import "strings"

// Render substitutes {{name}} placeholders in tmpl with values from the map.
// Placeholders without a matching key are left as literal text, extra keys
// are ignored. Pure and never fails.
func Render(tmpl string, values map[string]string) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	rest := tmpl
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		close := strings.Index(rest[open+2:], "}}")
		if close < 0 {
			b.WriteString(rest)
			return b.String()
		}

		name := rest[open+2 : open+2+close]
		b.WriteString(rest[:open])
		if val, ok := values[name]; ok {
			b.WriteString(val)
		} else {
			// Safe-substitute: unknown placeholder passes through untouched.
			b.WriteString(rest[open : open+2+close+2])
		}
		rest = rest[open+2+close+2:]
	}
}
