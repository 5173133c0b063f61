/*
2019 © Postgres.ai
*/

// Package text provides helpers to shorten texts for logs and summaries.
package text

import (
	"strings"
	"unicode/utf8"
)

// CutText cuts a text if it exceeds the specified size in bytes and reports whether it was cut.
// The cut never splits a multibyte character.
func CutText(text string, size int, separator string) (string, bool) {
	if len(text) <= size {
		return text, false
	}

	size -= len(separator)
	if size < 0 {
		size = 0
	}

	for size > 0 && !utf8.RuneStart(text[size]) {
		size--
	}

	return text[:size] + separator, true
}

// Preview collapses whitespace of a query and cuts it to fit a single log line.
func Preview(query string, size int) string {
	preview, _ := CutText(strings.Join(strings.Fields(query), " "), size, "...")
	return preview
}
