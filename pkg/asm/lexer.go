package asm

import "strings"

// rawLine is one non-empty, comment-stripped source line, numbered from 1.
type rawLine struct {
	number int
	text   string
}

// StartLexing splits text into non-empty, comment-stripped lines and
// streams them on a channel, so parsing can start on earlier lines while
// later ones are still being split.
func StartLexing(text string) <-chan rawLine {
	out := make(chan rawLine)
	go func() {
		defer close(out)
		lineno := 0
		for _, raw := range splitLines(text) {
			lineno++
			stripped := stripComment(raw)
			trimmed := strings.TrimSpace(stripped)
			if trimmed == "" {
				continue
			}
			out <- rawLine{number: lineno, text: trimmed}
		}
	}()
	return out
}

// splitLines splits on \n or \r, treating either as a line terminator
// without producing a spurious empty trailing line for \r\n pairs.
func splitLines(text string) []string {
	var lines []string
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' || c == '\r' {
			lines = append(lines, b.String())
			b.Reset()
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			continue
		}
		b.WriteByte(c)
	}
	if b.Len() > 0 {
		lines = append(lines, b.String())
	}
	return lines
}

// stripComment discards everything from the first ';' or '#' onward.
func stripComment(line string) string {
	if idx := strings.IndexAny(line, ";#"); idx >= 0 {
		return line[:idx]
	}
	return line
}

// isSeparator reports whether r is a token separator: whitespace or comma.
func isSeparator(r byte) bool {
	switch r {
	case ' ', '\t', ',':
		return true
	default:
		return false
	}
}

// splitToken extracts the first token from s (a run of non-separator
// bytes) and returns it along with the remainder, with any leading
// separators in the remainder already skipped.
func splitToken(s string) (token, rest string) {
	i := 0
	for i < len(s) && isSeparator(s[i]) {
		i++
	}
	s = s[i:]
	j := 0
	for j < len(s) && !isSeparator(s[j]) {
		j++
	}
	token = s[:j]
	rest = s[j:]
	k := 0
	for k < len(rest) && isSeparator(rest[k]) {
		k++
	}
	return token, rest[k:]
}

// tokenize splits s on runs of whitespace/commas into a slice of tokens.
func tokenize(s string) []string {
	var tokens []string
	for s != "" {
		var tok string
		tok, s = splitToken(s)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
