// Package dashboard holds the explicit display state of the ticker dashboard
// and assembles everything one redraw needs into a View.
package dashboard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/komsit37/chronos/pkg/chronos/timerange"
)

// State is what the user has selected. It is the only input to a redraw.
type State struct {
	Symbol string          `json:"symbol"`
	Range  timerange.Range `json:"range"`
}

func (s State) String() string { return s.Symbol + " " + s.Range.Label }

// Store owns the current State and notifies observers on every transition.
// Observers run synchronously, in subscription order, outside the lock.
type Store struct {
	mu        sync.Mutex
	state     State
	observers map[int]func(State)
	order     []int
	nextID    int
}

// NewStore starts with symbol and the default range.
func NewStore(symbol string) (*Store, error) {
	s := &Store{observers: map[int]func(State){}}
	sym, err := normSymbol(symbol)
	if err != nil {
		return nil, err
	}
	s.state = State{Symbol: sym, Range: timerange.Default()}
	return s, nil
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Select switches to the range with the given label. An unknown label leaves
// the state untouched.
func (s *Store) Select(label string) error {
	r, err := timerange.Parse(label)
	if err != nil {
		return err
	}
	s.update(func(st *State) { st.Range = r })
	return nil
}

// Cycle advances to the next range, wrapping after the last one.
func (s *Store) Cycle() State {
	return s.update(func(st *State) { st.Range = timerange.Next(st.Range) })
}

// SetSymbol changes the ticker and keeps the selected range.
func (s *Store) SetSymbol(symbol string) error {
	sym, err := normSymbol(symbol)
	if err != nil {
		return err
	}
	s.update(func(st *State) { st.Symbol = sym })
	return nil
}

// Refresh notifies observers without changing anything.
func (s *Store) Refresh() State {
	return s.update(func(*State) {})
}

func (s *Store) update(fn func(*State)) State {
	s.mu.Lock()
	fn(&s.state)
	st := s.state
	fns := make([]func(State), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.observers[id])
	}
	s.mu.Unlock()
	for _, f := range fns {
		f(st)
	}
	return st
}

func normSymbol(symbol string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return "", fmt.Errorf("ticker symbol is required")
	}
	return sym, nil
}
