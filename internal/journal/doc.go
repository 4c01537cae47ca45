// Package journal keeps an append-only SQLite history of applied folder
// renames. The resolver never reads it; it exists so a user can see what a
// scan changed and undo it by hand.
package journal
