// Package tui provides the interactive terminal movie browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/marquee/internal/browse"
	"github.com/lepinkainen/marquee/internal/catalog"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithAltScreen()).Run()
}

// Results of the controller calls issued as commands.
type (
	pageMsg    struct{ err error }
	detailsMsg struct{ err error }
	trailerMsg struct{ err error }
)

type model struct {
	ctx        context.Context
	controller *browse.Controller

	list    list.Model
	input   textinput.Model
	spinner spinner.Model

	snap      browse.Snapshot
	filtering bool
	loading   bool
	status    string
}

func newModel(ctx context.Context, controller *browse.Controller) *model {
	l := list.New(nil, newDelegate(), defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	ti := textinput.New()
	ti.Placeholder = "title or genre"
	ti.CharLimit = 64
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	m := &model{
		ctx:        ctx,
		controller: controller,
		list:       l,
		input:      ti,
		spinner:    sp,
	}
	m.refresh()
	return m
}

func (m *model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.startCmd())
}

func (m *model) startCmd() tea.Cmd {
	return func() tea.Msg {
		return pageMsg{err: m.controller.Start(m.ctx)}
	}
}

func (m *model) loadMoreCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.controller.LoadMore(m.ctx)
		return pageMsg{err: err}
	}
}

func (m *model) detailsCmd(id int) tea.Cmd {
	return func() tea.Msg {
		_, err := m.controller.OpenDetails(m.ctx, id)
		return detailsMsg{err: err}
	}
}

func (m *model) trailerCmd(id int) tea.Cmd {
	return func() tea.Msg {
		_, err := m.controller.PlayTrailer(m.ctx, id)
		return trailerMsg{err: err}
	}
}

// refresh copies the controller state into the model, keeping the cursor
// on the same movie when it is still visible.
func (m *model) refresh() {
	var keep int
	if selected, ok := m.list.SelectedItem().(movieItem); ok {
		keep = selected.ID
	}

	m.snap = m.controller.Snapshot()
	m.list.SetItems(toItems(m.snap.Entries))
	for i, e := range m.snap.Entries {
		if e.ID == keep {
			m.list.Select(i)
			break
		}
	}
}

func (m *model) settle(err error) {
	m.loading = false
	m.status = ""
	switch {
	case errors.Is(err, browse.ErrNoMorePages):
		m.status = "No more movies."
	case errors.Is(err, browse.ErrIllegalTransition):
		m.status = "Not available here."
	}
	m.refresh()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pageMsg:
		m.settle(msg.err)
		return m, nil
	case detailsMsg:
		m.settle(msg.err)
		return m, nil
	case trailerMsg:
		m.settle(msg.err)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-8, 5)
		m.list.SetSize(width, height)
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilterInput(msg)
		}
		if cmd, handled := m.handleKey(msg.String()); handled {
			return m, cmd
		}
	}

	if m.snap.View.Kind != browse.Grid {
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) updateFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.input.Blur()
		m.controller.ApplyFilter(m.input.Value())
		m.refresh()
		m.list.Select(0)
		return m, nil
	case "esc":
		m.filtering = false
		m.input.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// busy starts a fetch with the spinner running.
func (m *model) busy(cmd tea.Cmd) tea.Cmd {
	m.loading = true
	m.status = ""
	return tea.Batch(m.spinner.Tick, cmd)
}

func (m *model) handleKey(key string) (tea.Cmd, bool) {
	switch key {
	case "ctrl+c", "q":
		return tea.Quit, true
	}
	if m.loading {
		return nil, true
	}

	view := m.snap.View
	switch key {
	case "esc", "b", "backspace":
		if err := m.controller.Back(); err != nil {
			return nil, true
		}
		m.refresh()
		return nil, true

	case "/":
		m.filtering = true
		m.input.SetValue(view.Filter)
		m.input.Focus()
		return textinput.Blink, true

	case "r":
		if view.Kind == browse.Error && !m.snap.Loaded {
			return m.busy(m.startCmd()), true
		}
		m.controller.ApplyFilter(catalog.ResetFilter)
		m.refresh()
		return nil, true
	}

	switch view.Kind {
	case browse.Grid:
		switch key {
		case "enter":
			if selected, ok := m.list.SelectedItem().(movieItem); ok {
				return m.busy(m.detailsCmd(selected.ID)), true
			}
			return nil, true
		case "m":
			if !m.snap.HasMore {
				m.status = "No more movies."
				return nil, true
			}
			return m.busy(m.loadMoreCmd()), true
		case "g":
			m.controller.ApplyFilter(nextGenre(view.Filter))
			m.refresh()
			m.list.Select(0)
			return nil, true
		}

	case browse.Detail:
		if key == "p" || key == "enter" {
			return m.busy(m.trailerCmd(view.MovieID)), true
		}
		return nil, true
	}
	return nil, false
}

// nextGenre returns the genre after current in display order, wrapping
// around; any non-genre filter starts from the first genre.
func nextGenre(current string) string {
	genres := catalog.GenreNamesSorted()
	for i, g := range genres {
		if strings.EqualFold(g, current) {
			return genres[(i+1)%len(genres)]
		}
	}
	return genres[0]
}

func (m *model) View() string {
	var body string
	switch m.snap.View.Kind {
	case browse.Detail:
		body = m.detailView()
	case browse.Player:
		body = m.playerView()
	case browse.Error:
		body = errorStyle.Render(m.snap.View.Message)
	default:
		body = m.gridView()
	}

	parts := []string{headerStyle.Render(m.header()), body}
	if m.filtering {
		parts = append(parts, inputStyle.Render("Filter: "+m.input.View()))
	}
	switch {
	case m.loading:
		parts = append(parts, statusStyle.Render(m.spinner.View()+" Loading..."))
	case m.status != "":
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, helpStyle.Render(m.help()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *model) header() string {
	h := fmt.Sprintf("Now Playing | %d movies | page %d", m.snap.Total, m.snap.Page)
	if m.snap.TotalPages > 0 {
		h += fmt.Sprintf("/%d", m.snap.TotalPages)
	}
	if f := m.snap.View.Filter; f != "" {
		h += fmt.Sprintf(" | filter: %s (%d)", f, len(m.snap.Entries))
	}
	return h
}

func (m *model) gridView() string {
	if len(m.snap.Entries) == 0 {
		if m.snap.Loaded {
			return "No movies match this filter."
		}
		return ""
	}
	return m.list.View()
}

func (m *model) detailView() string {
	d := m.snap.Detail
	if d == nil {
		return ""
	}
	lines := []string{
		titleStyle.Render(d.Title),
		"Release Date: " + d.ReleaseDate,
		fmt.Sprintf("Duration: %d minutes", d.Runtime),
		"Genre: " + strings.Join(d.Genres, ", "),
		"",
		"Summary: " + d.Overview,
	}
	return detailStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *model) playerView() string {
	t := m.snap.Trailer
	if t == nil {
		return ""
	}
	lines := []string{
		titleStyle.Render("Trailer on " + t.Provider),
		t.WatchURL(),
		metaStyle.Render(t.EmbedURL()),
	}
	return detailStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *model) help() string {
	switch m.snap.View.Kind {
	case browse.Detail:
		return "p play trailer | esc back | / filter | q quit"
	case browse.Player:
		return "esc back to details | / filter | q quit"
	case browse.Error:
		if !m.snap.Loaded {
			return "r retry | q quit"
		}
		return "esc back | r reset filter | q quit"
	}
	return "Up/Down navigate | Enter details | m more | / filter | g genre | r reset | q quit"
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Width(defaultListWidth)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("161")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("178"))

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Run shows the terminal browser over controller until the user quits.
func Run(ctx context.Context, controller *browse.Controller) error {
	if _, err := runProgram(newModel(ctx, controller)); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
