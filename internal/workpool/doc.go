// Package workpool provides the two worker pools used by directory-wide
// resolution.
//
// ForEach is the outer pool: it runs one task per folder with a concurrency
// limit. Pool is the inner pool: a fixed set of workers shared by every
// resolution for its per-round source lookups. The two must stay separate. If
// one pool served both roles, outer tasks blocked on their own lookups could
// occupy every worker and no lookup would ever run.
package workpool
