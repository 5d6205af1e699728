package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/marquee/internal/catalog"
)

type movieItem struct {
	catalog.Entry
}

func (i movieItem) Title() string {
	if year := i.Year(); year != "" {
		return fmt.Sprintf("%s (%s)", strings.ToUpper(i.Entry.Title), year)
	}
	return strings.ToUpper(i.Entry.Title)
}

func (i movieItem) FilterValue() string {
	return i.Entry.Title
}

func (i movieItem) Description() string {
	return strings.Join(i.GenreNames(), ", ")
}

type itemStyles struct {
	normal     lipgloss.Style
	selected   lipgloss.Style
	titleStyle lipgloss.Style
	dateStyle  lipgloss.Style
	genreStyle lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		dateStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
		genreStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("110")),
	}
}

// movieDelegate renders one catalog card: title, release date and genres.
type movieDelegate struct {
	styles itemStyles
}

func newDelegate() movieDelegate {
	return movieDelegate{styles: newItemStyles()}
}

func (d movieDelegate) Height() int                         { return 5 }
func (d movieDelegate) Spacing() int                        { return 1 }
func (d movieDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d movieDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	movie, ok := item.(movieItem)
	if !ok {
		return
	}

	width := m.Width() - 4
	titleLine := d.styles.titleStyle.Render(truncate(movie.Title(), width))
	dateLine := d.styles.dateStyle.Render("Release Date: " + movie.ReleaseDate)
	genreLine := d.styles.genreStyle.Render(truncate(movie.Description(), width))

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, dateLine, genreLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

func toItems(entries []catalog.Entry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = movieItem{Entry: e}
	}
	return items
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
