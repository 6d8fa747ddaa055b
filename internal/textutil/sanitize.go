package textutil

import "strings"

// SanitizeToken lowercases a voice or backend identifier into a token safe
// to use as a cache directory name. Unsupported characters become
// underscores; an input with nothing usable yields "unknown".
func SanitizeToken(value string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, strings.TrimSpace(value))

	token := strings.Trim(mapped, "_-")
	if token == "" {
		return "unknown"
	}
	return token
}
