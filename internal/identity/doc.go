// Package identity binds a subject (a free-text keyword or a folder name) to
// a resolved identity.
//
// A Binder runs a cheap plausibility check on the subject, hands the cleaned
// subject to the resolver as the seed keyword, and classifies the outcome as
// failure, success, or updated. An updated record bound to a folder can be
// applied, which renames the folder to "{birth} {name}" in place without ever
// overwriting an existing entry.
package identity
