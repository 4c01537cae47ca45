package source

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds compatibility forms (full-width letters and digits,
// half-width katakana), trims, and collapses internal whitespace to a single
// space. Adapters apply it to every name and alias they report so the resolver
// can compare strings for equality.
func NormalizeName(value string) string {
	folded := norm.NFKC.String(value)
	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeAliases normalizes each alias and drops blanks and duplicates. The
// primary name stays in the list when a source reports it as an alias, so the
// resolver can query it directly.
func NormalizeAliases(aliases []string) []string {
	if len(aliases) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(aliases))
	out := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		alias = NormalizeName(alias)
		if alias == "" {
			continue
		}
		if _, ok := seen[alias]; ok {
			continue
		}
		seen[alias] = struct{}{}
		out = append(out, alias)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeEvidence applies name, alias, and birth normalization to a raw
// adapter result. A reported name leads the alias list so the resolver can
// query it. It returns nil when nothing usable remains.
func normalizeEvidence(name, birth string, aliases []string) *Evidence {
	name = NormalizeName(name)
	ev := &Evidence{
		Name:    name,
		Birth:   NormalizeBirth(birth),
		Aliases: NormalizeAliases(append([]string{name}, aliases...)),
	}
	if ev.Empty() {
		return nil
	}
	return ev
}
