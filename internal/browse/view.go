package browse

import (
	"errors"
	"fmt"

	"github.com/lepinkainen/marquee/internal/catalog"
)

// ErrIllegalTransition is returned when an event is not allowed in the current view.
var ErrIllegalTransition = errors.New("illegal view transition")

// Kind identifies which view is active.
type Kind int

const (
	// Grid shows the accumulated catalog, optionally filtered.
	Grid Kind = iota
	// Detail shows one movie's extended record.
	Detail
	// Player shows one movie's trailer.
	Player
	// Error replaces the content with a message.
	Error
)

func (k Kind) String() string {
	switch k {
	case Grid:
		return "grid"
	case Detail:
		return "detail"
	case Player:
		return "player"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// View is the single active view. MovieID is set for Detail and Player,
// Filter for a filtered Grid and Message for Error.
type View struct {
	Kind    Kind
	MovieID int
	Filter  string
	Message string
}

func (v View) String() string {
	switch v.Kind {
	case Detail, Player:
		return fmt.Sprintf("%s(%d)", v.Kind, v.MovieID)
	case Error:
		return fmt.Sprintf("error(%q)", v.Message)
	case Grid:
		if v.Filter != "" {
			return fmt.Sprintf("grid(%q)", v.Filter)
		}
	}
	return v.Kind.String()
}

// EventKind identifies what happened.
type EventKind int

const (
	// PageLoaded means a listing page was appended.
	PageLoaded EventKind = iota
	// DetailsLoaded means a movie's details arrived.
	DetailsLoaded
	// TrailerReady means a playable trailer was selected.
	TrailerReady
	// FilterApplied means the user picked a filter.
	FilterApplied
	// Back is the user's back action.
	Back
	// Failed means an operation failed with a user-facing message.
	Failed
)

// Event drives Transition.
type Event struct {
	Kind    EventKind
	MovieID int
	Text    string
}

// Transition computes the view that follows v on ev. It is pure; illegal
// combinations return ErrIllegalTransition and v unchanged.
func Transition(v View, ev Event) (View, error) {
	switch ev.Kind {
	case PageLoaded:
		return View{Kind: Grid}, nil

	case DetailsLoaded:
		return View{Kind: Detail, MovieID: ev.MovieID}, nil

	case TrailerReady:
		if v.Kind != Detail || v.MovieID != ev.MovieID {
			return v, fmt.Errorf("%w: trailer for %d from %s", ErrIllegalTransition, ev.MovieID, v)
		}
		return View{Kind: Player, MovieID: ev.MovieID}, nil

	case FilterApplied:
		if catalog.IsReset(ev.Text) {
			return View{Kind: Grid}, nil
		}
		return View{Kind: Grid, Filter: ev.Text}, nil

	case Back:
		switch v.Kind {
		case Detail, Error:
			return View{Kind: Grid}, nil
		case Player:
			return View{Kind: Detail, MovieID: v.MovieID}, nil
		}
		return v, fmt.Errorf("%w: back from %s", ErrIllegalTransition, v)

	case Failed:
		return View{Kind: Error, Message: ev.Text}, nil
	}

	return v, fmt.Errorf("%w: unknown event %d", ErrIllegalTransition, ev.Kind)
}
