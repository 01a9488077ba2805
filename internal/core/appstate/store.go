// Package appstate holds the cosmetic bits of UI state that ride along with
// peer snapshots and shared links: the active editor tab and the panel split.
package appstate

import "sync"

// Hints is the serializable UI state.
type Hints struct {
	ActiveTab  string `json:"activeTab,omitempty"`
	PanelWidth int    `json:"panelWidth,omitempty"`
}

// Store is an observable container for Hints, mirroring the request store's
// subscription contract.
type Store struct {
	mu    sync.Mutex
	hints Hints
	subs  map[int]func(Hints)
	next  int
}

// NewStore returns an empty hints store.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(Hints))}
}

// Get returns the current hints.
func (s *Store) Get() Hints {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hints
}

// Subscribe registers a listener and returns its unsubscribe function.
func (s *Store) Subscribe(fn func(Hints)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SetActiveTab records which editor tab is focused.
func (s *Store) SetActiveTab(tab string) {
	s.set(func(h *Hints) bool {
		if h.ActiveTab == tab {
			return false
		}
		h.ActiveTab = tab
		return true
	})
}

// SetPanelWidth records the request/response split position.
func (s *Store) SetPanelWidth(width int) {
	s.set(func(h *Hints) bool {
		if h.PanelWidth == width {
			return false
		}
		h.PanelWidth = width
		return true
	})
}

// Set replaces both hints at once, as when a shared link is loaded.
func (s *Store) Set(hints Hints) {
	s.set(func(h *Hints) bool {
		if *h == hints {
			return false
		}
		*h = hints
		return true
	})
}

func (s *Store) set(apply func(*Hints) bool) {
	s.mu.Lock()
	if !apply(&s.hints) {
		s.mu.Unlock()
		return
	}
	hints := s.hints
	subs := make([]func(Hints), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(hints)
	}
}
