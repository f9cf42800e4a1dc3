// Package exec provides helpers for turning captured process output into
// text.
package exec

import "strings"

// Decode converts captured bytes to a string. Bytes are kept as-is; invalid
// UTF-8 is not replaced.
func Decode(b []byte) string {
	return string(b)
}

// AggregateOutput returns stdout followed by stderr in a new slice.
func AggregateOutput(stdout, stderr []byte) []byte {
	result := make([]byte, 0, len(stdout)+len(stderr))
	result = append(result, stdout...)
	result = append(result, stderr...)
	return result
}

// StripTrailingNewline removes a single trailing "\n", if present.
// "a\n\n" becomes "a\n".
func StripTrailingNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}
