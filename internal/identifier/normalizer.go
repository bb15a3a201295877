// Package identifier converts arbitrary column and folder names into safe
// SQL identifiers. Normalization is pure and deterministic: the same input
// always yields the same identifier, and normalizing twice is a no-op.
package identifier

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the Postgres identifier length limit.
const MaxLength = 63

// Fallback is used when normalization produces an empty identifier.
const Fallback = "col"

// asciiFold decomposes Unicode text and strips combining marks, so that
// accented letters fold to their ASCII base (é -> e, ü -> u).
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize converts s into a SQL-safe identifier: ASCII letters, digits and
// underscores only, lowercased, at most MaxLength bytes. Runs of any other
// characters collapse to a single underscore. Identifiers starting with a
// digit get a leading underscore. An empty result becomes Fallback.
func Normalize(s string) string {
	return finish(normalizeCore(s))
}

// NormalizeTable derives a table name from a tuple of folder path parts:
// each part normalized, joined by underscore, with the leading-digit guard
// applied to the joined name rather than per part (so sales/2024 becomes
// sales_2024, not sales__2024).
func NormalizeTable(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if core := normalizeCore(p); core != "" {
			kept = append(kept, core)
		}
	}
	return finish(strings.Join(kept, "_"))
}

// normalizeCore folds, lowercases, and collapses; it applies neither the
// digit guard nor the length cap.
func normalizeCore(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		// Transform failures only occur on malformed UTF-8; fall back to
		// the raw bytes and let the ASCII filter below discard the rest.
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	lastUnderscore := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.Trim(b.String(), "_")
}

func finish(out string) string {
	if out == "" {
		return Fallback
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "_")
	}
	return out
}

// Dedupe normalizes each name and disambiguates duplicates in input order by
// suffixing _2, _3, and so on. The first occurrence keeps the bare name.
// The result has the same length and order as the input.
func Dedupe(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	counts := make(map[string]int, len(names))

	for i, name := range names {
		base := Normalize(name)
		candidate := base
		for taken[candidate] {
			counts[base]++
			candidate = withSuffix(base, counts[base]+1)
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

// withSuffix appends _n to base, trimming base so the result stays within
// MaxLength.
func withSuffix(base string, n int) string {
	suffix := fmt.Sprintf("_%d", n)
	if len(base)+len(suffix) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(suffix)], "_")
	}
	return base + suffix
}
