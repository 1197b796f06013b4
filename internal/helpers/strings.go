package helpers

import "strings"

// String returns the dereferenced value of the input pointer if it's not nil, otherwise, it returns an empty string.
func String(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Truncate shortens the given string to the specified length, appending "..." if truncation occurs.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// LowerKeys returns a copy of headers with lower-cased names.
// When two names only differ by case, the last one iterated wins.
func LowerKeys(headers map[string]string) map[string]string {
	lch := make(map[string]string, len(headers))
	for k, v := range headers {
		lch[strings.ToLower(k)] = v
	}
	return lch
}
