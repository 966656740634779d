// Package session owns the study traversal: the order over loaded records,
// the position within the filtered visible list, and the per-session view
// toggles that are persisted between runs.
package session
