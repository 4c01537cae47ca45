package identity

import (
	"fmt"
	"strings"

	"personid/internal/resolver"
)

// Report renders the record for people: the subject, accepted values with
// their ranked alternatives, the keywords visited and left over, and the
// canonical label.
func (r *Record) Report() string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%-10s %s\n", label+":", value)
	}

	line("subject", r.Subject)
	if r.Path != "" {
		line("path", r.Path)
	}
	line("status", string(r.Status))
	if r.Reason != "" {
		line("reason", r.Reason)
	}
	if r.Outcome == nil {
		return b.String()
	}

	out := r.Outcome
	line("name", orNone(out.Name))
	writeCandidates(&b, out.Names)
	line("birth", orNone(out.Birth))
	writeCandidates(&b, out.Births)
	line("visited", joinVisits(out.Visited))
	line("unvisited", joinVisits(out.Unvisited))
	if r.Canonical != "" {
		line("canonical", r.Canonical)
	}
	if target, ok := r.Applied(); ok {
		line("renamed", target)
	}
	return b.String()
}

func writeCandidates(b *strings.Builder, candidates []resolver.Candidate) {
	for i, c := range candidates {
		fmt.Fprintf(b, "  %d. %s [%s]\n", i+1, c.Value, strings.Join(c.Sources, ", "))
	}
}

func joinVisits(visits []resolver.Visit) string {
	if len(visits) == 0 {
		return "(none)"
	}
	parts := make([]string, len(visits))
	for i, v := range visits {
		parts[i] = v.Keyword
	}
	return strings.Join(parts, ", ")
}

func orNone(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}
