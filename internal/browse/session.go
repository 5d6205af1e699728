package browse

import (
	"errors"
	"sync"

	"github.com/lepinkainen/marquee/internal/catalog"
)

// ErrStale is returned when a response arrives after a newer request of
// the same kind was issued, or after the user navigated elsewhere.
var ErrStale = errors.New("stale response discarded")

type opClass int

const (
	opPage opClass = iota
	opDetails
	opPlay
	opCount
)

func (o opClass) String() string {
	switch o {
	case opPage:
		return "page"
	case opDetails:
		return "details"
	default:
		return "play"
	}
}

// ticket is handed out when a request is issued and checked when it completes.
type ticket struct {
	op    opClass
	token uint64
	nav   uint64
}

// Session is the state of one browsing session. The zero value is an empty
// Grid waiting for its first page.
type Session struct {
	mu sync.Mutex

	catalog    catalog.Collection
	cursor     int
	pages      int
	totalPages int

	view    View
	detail  *catalog.Detail
	trailer *catalog.VideoRef

	tokens [opCount]uint64
	// nav counts view changes; completions may only move the view if
	// nothing else moved it since they were issued.
	nav uint64
}

func (s *Session) issue(op opClass) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[op]++
	return ticket{op: op, token: s.tokens[op], nav: s.nav}
}

// settle runs apply under the lock when t is still the latest of its class.
// current tells apply whether the view is where it was at issue time.
func (s *Session) settle(t ticket, apply func(current bool) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[t.op] != t.token {
		return ErrStale
	}
	return apply(s.nav == t.nav)
}

// moveLocked applies ev to the view. Callers hold s.mu.
func (s *Session) moveLocked(ev Event) error {
	next, err := Transition(s.view, ev)
	if err != nil {
		return err
	}
	if next != s.view {
		s.view = next
		s.nav++
	}

	if next.Kind != Detail && next.Kind != Player {
		s.detail = nil
	}
	if next.Kind != Player {
		s.trailer = nil
	}
	return nil
}

func (s *Session) move(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(ev)
}

// nextPage returns the page "load more" should request, and false once the
// listing reported its last page.
func (s *Session) nextPage() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pages == 0 {
		return 1, true
	}
	if s.totalPages > 0 && s.cursor >= s.totalPages {
		return 0, false
	}
	return s.cursor + 1, true
}

func (s *Session) viewNow() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}
