package study

import (
	"github.com/kingrea/shunkan/internal/countdown"
	"github.com/kingrea/shunkan/internal/phrase"
	"github.com/kingrea/shunkan/internal/resolver"
	"github.com/kingrea/shunkan/internal/session"
	"github.com/kingrea/shunkan/internal/srs"
)

// EmptyReason explains why no card is shown.
type EmptyReason int

const (
	NotEmpty EmptyReason = iota
	// ReviewsDone means the due filter is on and nothing is due.
	ReviewsDone
	// Filtered means filters hide every card.
	Filtered
)

// Message is the headline shown in place of a card.
func (r EmptyReason) Message() string {
	switch r {
	case ReviewsDone:
		return "Today's reviews are complete!"
	case Filtered:
		return "No cards to show."
	default:
		return ""
	}
}

// Hint suggests the toggle that brings cards back.
func (r EmptyReason) Hint() string {
	switch r {
	case ReviewsDone:
		return "Turn the due filter off to practise every card."
	case Filtered:
		return "Check the favorites and due filters."
	default:
		return ""
	}
}

// Card is the rendered view of the current study position.
type Card struct {
	Empty  bool
	Reason EmptyReason

	ID       phrase.ID
	Front    string
	Back     string
	Note     string
	HasSlots bool
	Revealed bool
	Favorite bool
	Entry    srs.Entry

	Position int
	Total    int
	Due      int

	Level         resolver.Level
	Direction     session.Direction
	FavoritesOnly bool
	DueOnly       bool
	TimerOn       bool

	// Countdown is the armed auto-reveal handle, zero when none.
	Countdown countdown.Handle
	Remaining int
}

// Stats summarises the loaded deck.
type Stats struct {
	Records   int
	Due       int
	Favorites int
	Visible   int
	Level     resolver.Level
	Direction session.Direction
	Filters   session.Filters
	TimerOn   bool
}

// ImportResult reports what an import changed.
type ImportResult struct {
	Records         int
	Kept            int
	Added           int
	Pruned          int
	FavoritesPruned int
}
