// Package library applies identity resolution to a directory of person
// folders: it lists candidate sub-folders, resolves them concurrently on the
// outer pool, applies renames, guards the directory with a lock file, and can
// watch the directory for new folders.
package library
