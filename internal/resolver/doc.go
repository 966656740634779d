// Package resolver decides which fill-in slot a card shows and renders its
// source and target text. Level 1 is deterministic; level 2 draws a slot per
// appearance and keeps it stable while the card stays on screen.
package resolver
