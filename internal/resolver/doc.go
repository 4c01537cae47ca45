// Package resolver turns one noisy keyword into a canonical name and birth
// date by searching across several unreliable sources.
//
// The search keeps a frontier of keywords still to query. Each round picks one
// keyword, asks every still-active source about it concurrently, and folds the
// answers back in rank order: names and birth dates become votes tagged with
// the reporting source's rank, aliases grow the frontier, and any source that
// said anything is retired for the rest of the search. The loop ends when the
// frontier is empty or every source has been retired, and the consensus step
// picks the candidate with the most corroborating sources, breaking ties
// towards the most trusted source.
//
// Both tie-breaks are Policy functions so they can be tuned without touching
// the search itself. All search state belongs to the goroutine running
// Resolve; only the dispatcher's wait for a round's lookups crosses goroutines.
package resolver
