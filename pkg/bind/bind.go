/*
2026 © Postgres.ai
*/

// Package bind detects and resolves Oracle-style `:name` bind markers.
package bind

import (
	"strings"
)

type segmentKind int

const (
	segmentCode segmentKind = iota
	segmentLiteral
	segmentIdentifier
	segmentLineComment
	segmentBlockComment
)

type segment struct {
	kind segmentKind
	text string
}

// split cuts the statement into code, quoted and comment segments.
// Unterminated literals and comments run to the end of the text.
func split(sql string) []segment {
	segments := make([]segment, 0)
	start := 0

	emit := func(kind segmentKind, from, to int) {
		if start < from {
			segments = append(segments, segment{kind: segmentCode, text: sql[start:from]})
		}

		segments = append(segments, segment{kind: kind, text: sql[from:to]})
		start = to
	}

	for i := 0; i < len(sql); {
		switch {
		case strings.HasPrefix(sql[i:], "--"):
			end := indexFrom(sql, i, "\n")
			emit(segmentLineComment, i, end)
			i = end

		case strings.HasPrefix(sql[i:], "/*"):
			end := indexFrom(sql, i+2, "*/")
			if end < len(sql) {
				end += len("*/")
			}

			emit(segmentBlockComment, i, end)
			i = end

		case isQuoteOperator(sql, i):
			end := quoteOperatorEnd(sql, i)
			emit(segmentLiteral, i, end)
			i = end

		case sql[i] == '\'':
			end := literalEnd(sql, i)
			emit(segmentLiteral, i, end)
			i = end

		case sql[i] == '"':
			end := indexFrom(sql, i+1, `"`)
			if end < len(sql) {
				end++
			}

			emit(segmentIdentifier, i, end)
			i = end

		default:
			i++
		}
	}

	if start < len(sql) {
		segments = append(segments, segment{kind: segmentCode, text: sql[start:]})
	}

	return segments
}

// indexFrom returns the position of sep at or after from, or len(s).
func indexFrom(s string, from int, sep string) int {
	if from > len(s) {
		return len(s)
	}

	idx := strings.Index(s[from:], sep)
	if idx < 0 {
		return len(s)
	}

	return from + idx
}

// literalEnd returns the position after the quote closing the literal opened at i.
// Doubled quotes are escapes.
func literalEnd(sql string, i int) int {
	for j := i + 1; j < len(sql); j++ {
		if sql[j] != '\'' {
			continue
		}

		if j+1 < len(sql) && sql[j+1] == '\'' {
			j++
			continue
		}

		return j + 1
	}

	return len(sql)
}

// isQuoteOperator reports whether an alternative quoting literal (q'[...]', nq'{...}')
// starts at i.
func isQuoteOperator(sql string, i int) bool {
	if sql[i] != 'q' && sql[i] != 'Q' {
		return false
	}

	if i+2 >= len(sql) || sql[i+1] != '\'' {
		return false
	}

	if i == 0 || !isIdentChar(sql[i-1]) {
		return true
	}

	prev := sql[i-1]

	return (prev == 'n' || prev == 'N') && (i == 1 || !isIdentChar(sql[i-2]))
}

func quoteOperatorEnd(sql string, i int) int {
	closing := sql[i+2]

	switch closing {
	case '[':
		closing = ']'
	case '(':
		closing = ')'
	case '{':
		closing = '}'
	case '<':
		closing = '>'
	}

	end := indexFrom(sql, i+3, string(closing)+"'")
	if end < len(sql) {
		end += 2
	}

	return end
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// markers calls fn for every `:name` in a code segment with its byte span.
func markers(code string, fn func(name string, from, to int)) {
	for i := 0; i < len(code); i++ {
		if code[i] != ':' {
			continue
		}

		j := i + 1
		for j < len(code) && isIdentChar(code[j]) {
			j++
		}

		if j > i+1 {
			fn(code[i+1:j], i, j)
			i = j - 1
		}
	}
}

// StripComments removes `--` line comments and `/* */` block comments.
// Comment markers inside quoted literals are kept as text.
func StripComments(sql string) string {
	var sb strings.Builder

	for _, s := range split(sql) {
		switch s.kind {
		case segmentLineComment:
		case segmentBlockComment:
			sb.WriteString(" ")
		default:
			sb.WriteString(s.text)
		}
	}

	return sb.String()
}

// Detect returns unique bind names in first-appearance order.
// Markers inside comments and quoted text are ignored.
func Detect(sql string) []string {
	names := make([]string, 0)
	seen := make(map[string]struct{})

	for _, s := range split(sql) {
		if s.kind != segmentCode {
			continue
		}

		markers(s.text, func(name string, _, _ int) {
			if _, ok := seen[name]; ok {
				return
			}

			seen[name] = struct{}{}
			names = append(names, name)
		})
	}

	return names
}

// Missing returns detected bind names that have no value.
func Missing(sql string, values map[string]string) []string {
	missing := make([]string, 0)

	for _, name := range Detect(sql) {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}

	return missing
}

// Resolve substitutes every `:name` that has a value with a quoted string literal.
// Unknown markers stay as written. Comments and quoted text are never rewritten.
func Resolve(sql string, values map[string]string) string {
	if len(values) == 0 {
		return sql
	}

	var sb strings.Builder

	for _, s := range split(sql) {
		if s.kind != segmentCode {
			sb.WriteString(s.text)
			continue
		}

		last := 0

		markers(s.text, func(name string, from, to int) {
			value, ok := values[name]
			if !ok {
				return
			}

			sb.WriteString(s.text[last:from])
			sb.WriteString(quote(value))
			last = to
		})

		sb.WriteString(s.text[last:])
	}

	return sb.String()
}

func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
