// Package normalize canonicalizes artist and title strings so that records from
// differently formatted sources can be compared.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CoreTitleMaxLen caps the length of a core title.
const CoreTitleMaxLen = 50

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// pipeline is applied in order on lowercased input.
var pipeline = []rewrite{
	{regexp.MustCompile(`^the\s+`), ""},
	{regexp.MustCompile(`\s+feat\.?\s+`), " & "},
	{regexp.MustCompile(`\s+featuring\s+`), " & "},
	{regexp.MustCompile(`\s+and\s+`), " & "},
	{regexp.MustCompile(`['\x{2019}]`), ""},
	{regexp.MustCompile(`[-\x{2013}\x{2014}]`), " "},
	{regexp.MustCompile(`\s+`), " "},
	{regexp.MustCompile(`\(deluxe[^)]*\)|\(expanded[^)]*\)|\(remastered[^)]*\)|\(rsd[^)]*\)| ep\b| \d+th anniversary[^)]*\)?`), ""},
	{regexp.MustCompile(`[^\w\s&-]`), " "},
	{regexp.MustCompile(`\s+`), " "},
}

// Normalize returns the canonical comparison form of s. The result contains only
// ASCII lowercase letters, digits, underscores, ampersands and single spaces.
//
// A single pass of the pipeline can expose new matches (a second leading "the",
// or a connector freed by punctuation removal), so passes repeat until the
// output stops changing. Every pass after the first strictly shortens its input,
// which bounds the loop and makes Normalize idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Map(unifySpace, norm.NFC.String(s))

	out := pass(s)
	for {
		next := pass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func pass(s string) string {
	s = strings.ToLower(s)
	for _, rw := range pipeline {
		s = rw.re.ReplaceAllString(s, rw.repl)
	}
	return strings.TrimSpace(s)
}

// unifySpace folds Unicode whitespace onto an ASCII space so the pipeline's \s
// classes see it.
func unifySpace(r rune) rune {
	if r != ' ' && unicode.IsSpace(r) {
		return ' '
	}
	return r
}

// CoreTitle returns the normalized title cut before its first " - " or " ("
// qualifier and capped at CoreTitleMaxLen characters.
func CoreTitle(title string) string {
	n := Normalize(title)
	cut := len(n)
	if i := strings.Index(n, " - "); i >= 0 && i < cut {
		cut = i
	}
	if i := strings.Index(n, " ("); i >= 0 && i < cut {
		cut = i
	}
	return Prefix(n[:cut], CoreTitleMaxLen)
}

// Prefix returns at most the first n runes of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Length returns the number of runes in s.
func Length(s string) int {
	return len([]rune(s))
}
