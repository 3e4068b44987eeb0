package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeToken trims and uppercases an identifier. Table names, domain
// names, group ids and enumeration values are all compared through it.
func NormalizeToken(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Slug folds s into an uppercase ASCII token: diacritics are stripped and
// every run of characters outside [A-Z0-9] becomes a single underscore.
func Slug(s string) string {
	decomposed := norm.NFD.String(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSep := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToUpper(r)
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// UniqueTokens normalizes values, drops empties and duplicates, and keeps
// first-seen order.
func UniqueTokens(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		t := NormalizeToken(v)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ContainsToken reports whether list holds v after normalization.
func ContainsToken(list []string, v string) bool {
	t := NormalizeToken(v)
	for _, item := range list {
		if NormalizeToken(item) == t {
			return true
		}
	}
	return false
}

// WithoutToken returns list minus every occurrence of v.
func WithoutToken(list []string, v string) []string {
	t := NormalizeToken(v)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if NormalizeToken(item) != t {
			out = append(out, item)
		}
	}
	return out
}
