package resolver

// finish ranks both tallies and builds the outcome. Only the top candidate of
// each tally is accepted; the rest stay in the outcome for the report.
func (s *search) finish(policy Policy, names func(int) string) *Outcome {
	out := &Outcome{
		Seed:      s.seed,
		Names:     s.names.Ranked(policy.Consensus, names),
		Births:    s.births.Ranked(policy.Consensus, names),
		Visited:   s.frontier.Visited(),
		Unvisited: s.frontier.Unvisited(),
		Retired:   s.retiredRanks(),
		Rounds:    s.rounds,
		Status:    StatusFailure,
	}
	if len(out.Names) > 0 {
		out.Name = out.Names[0].Value
	}
	if len(out.Births) > 0 {
		out.Birth = out.Births[0].Value
	}
	if out.Name != "" && out.Birth != "" {
		out.Status = StatusSuccess
	}
	return out
}
