package tui

import "github.com/charmbracelet/bubbles/key"

// studyKeys are the bindings active on the card screen.
type studyKeys struct {
	Flip          key.Binding
	Next          key.Binding
	Prev          key.Binding
	Again         key.Binding
	Hard          key.Binding
	Good          key.Binding
	Easy          key.Binding
	Shuffle       key.Binding
	Favorite      key.Binding
	FavoritesOnly key.Binding
	DueOnly       key.Binding
	Timer         key.Binding
	Level         key.Binding
	Direction     key.Binding
	Menu          key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func newStudyKeys() studyKeys {
	return studyKeys{
		Flip:          key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "flip")),
		Next:          key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Prev:          key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		Again:         key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "again")),
		Hard:          key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "hard")),
		Good:          key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "good")),
		Easy:          key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "easy")),
		Shuffle:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		Favorite:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "star card")),
		FavoritesOnly: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "starred only")),
		DueOnly:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "due only")),
		Timer:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "auto-reveal")),
		Level:         key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "level 1/2")),
		Direction:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reverse")),
		Menu:          key.NewBinding(key.WithKeys("tab", "esc"), key.WithHelp("tab", "deck menu")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "keys")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k studyKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Flip, k.Good, k.Again, k.Next, k.Menu, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k studyKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Flip, k.Next, k.Prev, k.Shuffle},
		{k.Again, k.Hard, k.Good, k.Easy},
		{k.Favorite, k.FavoritesOnly, k.DueOnly, k.Timer},
		{k.Level, k.Direction, k.Menu, k.Help, k.Quit},
	}
}
