package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/shunkan/internal/session"
)

const (
	journalLines = 8
	cardMaxWidth = 72
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	headStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	frontStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))
	backStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7CE38B"))
	hiddenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	starStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F2C94C"))
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginTop(1)
)

// View renders the current state to a string.
func (a *App) View() string {
	sections := []string{headerStyle.Render("瞬 SHUNKAN")}
	switch a.state {
	case stateMenu, stateConfirmReset:
		sections = append(sections, a.menu.View())
	case statePathPrompt:
		sections = append(sections, boxStyle.Render(
			headStyle.Render(strings.ToUpper(string(a.pathAction))+" PATH")+"\n"+a.pathInput.View(),
		))
	default:
		sections = append(sections, a.renderBadgeLine(), a.renderCard(), a.help.View(a.keys))
		if panel := a.renderLogPanel(); panel != "" {
			sections = append(sections, panel)
		}
	}
	if a.err != nil {
		sections = append(sections, errorStyle.Render(a.statusMsg))
	} else {
		sections = append(sections, footerStyle.Render(a.statusMsg))
	}
	return strings.Join(sections, "\n")
}

func (a *App) cardWidth() int {
	if a.width <= 0 {
		return cardMaxWidth
	}
	return max(20, min(cardMaxWidth, a.width-4))
}

func (a *App) renderBadgeLine() string {
	c := a.card
	parts := []string{
		fmt.Sprintf("%d/%d", c.Position, c.Total),
		fmt.Sprintf("due %d", c.Due),
		fmt.Sprintf("L%d", c.Level),
		directionLabel(c.Direction),
	}
	if c.FavoritesOnly {
		parts = append(parts, "★ only")
	}
	if c.DueOnly {
		parts = append(parts, "due only")
	}
	if c.TimerOn {
		timer := "timer"
		if c.Countdown != 0 {
			timer += " " + strconv.Itoa(c.Remaining) + "s"
		}
		parts = append(parts, timer)
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}

func (a *App) renderCard() string {
	c := a.card
	width := a.cardWidth()
	if c.Empty {
		body := headStyle.Render(c.Reason.Message()) + "\n" + dimStyle.Render(c.Reason.Hint())
		return boxStyle.Width(width).Render(body)
	}

	lines := []string{frontStyle.Render(c.Front), ""}
	if c.Revealed {
		lines = append(lines, backStyle.Render(c.Back))
		if c.Note != "" {
			lines = append(lines, dimStyle.Render(c.Note))
		}
	} else {
		hint := "space to reveal"
		if c.Countdown != 0 {
			hint = fmt.Sprintf("reveals in %ds", c.Remaining)
		}
		lines = append(lines, hiddenStyle.Render(hint))
	}

	meta := []string{}
	if c.Favorite {
		meta = append(meta, starStyle.Render("★"))
	}
	if c.Entry.Interval > 0 {
		meta = append(meta, dimStyle.Render("interval "+formatInterval(c.Entry.Interval)))
	} else {
		meta = append(meta, dimStyle.Render("new"))
	}
	if c.HasSlots {
		meta = append(meta, dimStyle.Render("slots"))
	}
	lines = append(lines, "", strings.Join(meta, "  "))
	return boxStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(journalLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "journal"
	}
	head := headStyle.Render(fmt.Sprintf("JOURNAL · %s · %d", fileName, total))
	body := dimStyle.Render(strings.Join(lines, "\n"))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func directionLabel(d session.Direction) string {
	if d == session.TargetToSource {
		return "target → source"
	}
	return "source → target"
}

func formatInterval(days float64) string {
	if days < 1 {
		return strconv.Itoa(int(days*24+0.5)) + "h"
	}
	return strconv.FormatFloat(days, 'f', -1, 64) + "d"
}
