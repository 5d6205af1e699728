package tui

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/marquee/internal/browse"
	"github.com/lepinkainen/marquee/internal/catalog"
	marqueeErrors "github.com/lepinkainen/marquee/internal/errors"
)

type fakeSource struct {
	pages   map[int]catalog.Page
	details map[int]catalog.Detail
	videos  map[int][]catalog.Video
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages: map[int]catalog.Page{
			1: {Number: 1, TotalPages: 2, Entries: []catalog.Entry{
				{ID: 1, Title: "Alpha", ReleaseDate: "2024-05-01", GenreIDs: []int{28}},
				{ID: 2, Title: "Beta", ReleaseDate: "2024-06-01", GenreIDs: []int{35}},
			}},
			2: {Number: 2, TotalPages: 2, Entries: []catalog.Entry{
				{ID: 3, Title: "Gamma", ReleaseDate: "2024-07-01", GenreIDs: []int{28}},
			}},
		},
		details: map[int]catalog.Detail{
			1: {Entry: catalog.Entry{ID: 1, Title: "Alpha", ReleaseDate: "2024-05-01"}, Runtime: 101, Overview: "Things explode.", Genres: []string{"Action"}},
			2: {Entry: catalog.Entry{ID: 2, Title: "Beta"}, Runtime: 90},
		},
		videos: map[int][]catalog.Video{
			1: {{Site: "YouTube", Key: "abc"}},
		},
	}
}

func (f *fakeSource) ListPage(_ context.Context, page int) (catalog.Page, error) {
	p, ok := f.pages[page]
	if !ok {
		return catalog.Page{}, marqueeErrors.NewFetchError("listing", http.StatusInternalServerError, nil)
	}
	return p, nil
}

func (f *fakeSource) Details(_ context.Context, id int) (catalog.Detail, error) {
	d, ok := f.details[id]
	if !ok {
		return catalog.Detail{}, errors.New("boom")
	}
	return d, nil
}

func (f *fakeSource) Videos(_ context.Context, id int) ([]catalog.Video, error) {
	return f.videos[id], nil
}

// run executes cmd and feeds the controller results back into m. Spinner
// ticks are dropped so nothing waits on a timer.
func run(t *testing.T, m *model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(t, m, c)
		}
	case pageMsg, detailsMsg, trailerMsg:
		_, next := m.Update(msg)
		run(t, m, next)
	}
}

func press(t *testing.T, m *model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		typing := m.filtering
		_, cmd := m.Update(msg)
		if !typing {
			run(t, m, cmd)
		}
	}
}

func started(t *testing.T, src browse.Source) *model {
	t.Helper()
	m := newModel(context.Background(), browse.NewController(src))
	run(t, m, m.Init())
	return m
}

func TestBrowserStartsOnGrid(t *testing.T) {
	m := started(t, newFakeSource())

	assert.False(t, m.loading)
	assert.Equal(t, browse.Grid, m.snap.View.Kind)
	assert.Len(t, m.list.Items(), 2)

	view := m.View()
	assert.Contains(t, view, "ALPHA (2024)")
	assert.Contains(t, view, "Release Date: 2024-06-01")
	assert.Contains(t, view, "Now Playing | 2 movies | page 1/2")
}

func TestBrowserLoadMore(t *testing.T) {
	m := started(t, newFakeSource())

	press(t, m, "m")
	assert.Len(t, m.list.Items(), 3)
	assert.False(t, m.snap.HasMore)

	press(t, m, "m")
	assert.Contains(t, m.View(), "No more movies.")
}

func TestBrowserFilter(t *testing.T) {
	m := started(t, newFakeSource())

	press(t, m, "/", "b", "e", "t", "enter")
	assert.False(t, m.filtering)
	assert.Equal(t, "bet", m.snap.View.Filter)
	require.Len(t, m.list.Items(), 1)
	assert.Contains(t, m.View(), "filter: bet (1)")

	press(t, m, "r")
	assert.Empty(t, m.snap.View.Filter)
	assert.Len(t, m.list.Items(), 2)
}

func TestBrowserFilterCancel(t *testing.T) {
	m := started(t, newFakeSource())

	press(t, m, "/", "x", "esc")
	assert.False(t, m.filtering)
	assert.Empty(t, m.snap.View.Filter)
	assert.Len(t, m.list.Items(), 2)
}

func TestBrowserGenreShortcut(t *testing.T) {
	m := started(t, newFakeSource())
	press(t, m, "m")

	press(t, m, "g")
	assert.Equal(t, "Action", m.snap.View.Filter)
	assert.Len(t, m.list.Items(), 2, "Alpha and Gamma")

	press(t, m, "g")
	assert.Equal(t, "Adventure", m.snap.View.Filter)
	assert.Empty(t, m.list.Items())
	assert.Contains(t, m.View(), "No movies match this filter.")
}

func TestNextGenreWraps(t *testing.T) {
	genres := catalog.GenreNamesSorted()
	assert.Equal(t, genres[0], nextGenre(""))
	assert.Equal(t, genres[1], nextGenre(strings.ToLower(genres[0])))
	assert.Equal(t, genres[0], nextGenre(genres[len(genres)-1]))
}

func TestBrowserDetailsAndTrailer(t *testing.T) {
	m := started(t, newFakeSource())

	press(t, m, "enter")
	require.Equal(t, browse.Detail, m.snap.View.Kind)
	view := m.View()
	assert.Contains(t, view, "Duration: 101 minutes")
	assert.Contains(t, view, "Genre: Action")
	assert.Contains(t, view, "Summary: Things explode.")

	press(t, m, "p")
	require.Equal(t, browse.Player, m.snap.View.Kind)
	assert.Contains(t, m.View(), "https://www.youtube.com/watch?v=abc")

	press(t, m, "esc")
	assert.Equal(t, browse.Detail, m.snap.View.Kind)

	press(t, m, "esc")
	assert.Equal(t, browse.Grid, m.snap.View.Kind)
	assert.Equal(t, 1, m.list.SelectedItem().(movieItem).ID, "cursor kept")
}

func TestBrowserTrailerMissing(t *testing.T) {
	m := started(t, newFakeSource())

	press(t, m, "down", "enter", "p")
	require.Equal(t, browse.Error, m.snap.View.Kind)
	assert.Contains(t, m.View(), "No video found for this movie.")
	assert.Contains(t, m.View(), "r reset filter")
	assert.NotContains(t, m.View(), "r retry")

	press(t, m, "b")
	assert.Equal(t, browse.Grid, m.snap.View.Kind)
}

func TestBrowserStartFailureRetry(t *testing.T) {
	src := newFakeSource()
	page := src.pages[1]
	delete(src.pages, 1)
	m := started(t, src)

	require.Equal(t, browse.Error, m.snap.View.Kind)
	assert.Contains(t, m.View(), browse.MsgFetchMovies)
	assert.Contains(t, m.View(), "r retry")

	src.pages[1] = page
	press(t, m, "r")
	assert.Equal(t, browse.Grid, m.snap.View.Kind)
	assert.Len(t, m.list.Items(), 2)
}

func TestBrowserIgnoresKeysWhileLoading(t *testing.T) {
	m := started(t, newFakeSource())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	_, second := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	assert.Nil(t, second)

	run(t, m, cmd)
	assert.False(t, m.loading)
	assert.Equal(t, browse.Detail, m.snap.View.Kind)
}

func TestRunUsesProgram(t *testing.T) {
	orig := runProgram
	t.Cleanup(func() { runProgram = orig })

	var got tea.Model
	runProgram = func(m tea.Model) (tea.Model, error) {
		got = m
		return m, nil
	}
	require.NoError(t, Run(context.Background(), browse.NewController(newFakeSource())))
	assert.IsType(t, &model{}, got)

	runProgram = func(m tea.Model) (tea.Model, error) { return nil, errors.New("no tty") }
	assert.ErrorContains(t, Run(context.Background(), browse.NewController(newFakeSource())), "no tty")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a long...", truncate("a  long title", 9))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
