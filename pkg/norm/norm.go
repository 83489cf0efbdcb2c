// Package norm folds raw record/query text into the lowercase, diacritic-free,
// whitespace-collapsed form the rest of the engine scores against.
package norm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// diacriticFold maps the Latin-1/Extended-A letters spec.md names to their
// unaccented base letter. Anything not in this table passes through
// unchanged, including non-ASCII characters the table doesn't know about.
var diacriticFold = map[rune]rune{
	'ã': 'a', 'à': 'a', 'á': 'a', 'ä': 'a', 'â': 'a', 'æ': 'a',
	'ẽ': 'e', 'è': 'e', 'é': 'e', 'ë': 'e', 'ê': 'e',
	'ì': 'i', 'í': 'i', 'ï': 'i', 'î': 'i',
	'õ': 'o', 'ò': 'o', 'ó': 'o', 'ö': 'o', 'ô': 'o', 'œ': 'o',
	'ù': 'u', 'ú': 'u', 'ü': 'u', 'û': 'u',
	'ñ': 'n',
	'ç': 'c',
}

// DefaultSeparators is the default set of characters collapsed to a single space.
// Config may override this set (token_sep); Fold always collapses runs of
// the given separator set, defaulting to this one when sep is empty.
var DefaultSeparators = " \t\n\r_-./"

// Fold lowercases s, NFC-composes it so a base letter followed by a
// combining mark folds the same way its precomposed form does, replaces the
// fixed diacritic table, and collapses runs of sep (or DefaultSeparators, if
// sep is empty) into a single space. Characters outside the table pass
// through unchanged, composed form or not. Empty input yields the empty
// string. Fold is total and deterministic: Fold(Fold(s)) == Fold(s).
func Fold(s string, sep string) string {
	if s == "" {
		return ""
	}
	if sep == "" {
		sep = DefaultSeparators
	}
	composed := norm.NFC.String(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(composed))
	lastWasSep := false
	for _, r := range composed {
		if folded, ok := diacriticFold[r]; ok {
			r = folded
		}
		if strings.ContainsRune(sep, r) {
			if lastWasSep {
				continue
			}
			b.WriteByte(' ')
			lastWasSep = true
			continue
		}
		lastWasSep = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// SepClassEscape escapes sep for safe use as the body of a regexp bracket
// expression ("[...]"). regexp.QuoteMeta is not sufficient here: it leaves
// "-" unescaped, which a bracket expression reads as a range operator and
// can turn an intended literal separator set into an invalid range (e.g.
// "_-." following QuoteMeta becomes "_-\.", read as the invalid range
// "_".."\.").
func SepClassEscape(sep string) string {
	var b strings.Builder
	b.Grow(len(sep))
	for _, r := range sep {
		switch r {
		case '\\', ']', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CommonPrefixLen returns the length, in runes, of the shared prefix of a
// and b. Used by the score kernels to short-circuit on an exact-prefix
// match before running the bit-parallel scan.
func CommonPrefixLen(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
