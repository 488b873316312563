package patient

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/platform/apierr"
)

// HistoryLimit caps the recently viewed list.
const HistoryLimit = 5

// ErrSuperseded is returned for a result computed for an active patient that
// has since been replaced or cleared.
var ErrSuperseded = fmt.Errorf("%w: active patient changed", apierr.ErrConflict)

// Selection is one session's active patient and its recently viewed list.
// History never contains the active patient.
type Selection struct {
	Active     *Summary  `json:"active"`
	History    []Summary `json:"history"`
	Generation uint64    `json:"generation"`
}

func (s Selection) clone() Selection {
	out := Selection{Generation: s.Generation, History: append([]Summary{}, s.History...)}
	if s.Active != nil {
		a := *s.Active
		out.Active = &a
	}
	return out
}

// ActiveStore holds the active-patient selection of every session, keyed by
// session id. The generation counter moves whenever the active patient
// changes identity so callers can detect stale results.
type ActiveStore struct {
	mu       sync.RWMutex
	sessions map[string]*Selection
}

func NewActiveStore() *ActiveStore {
	return &ActiveStore{sessions: make(map[string]*Selection)}
}

func (s *ActiveStore) session(id string) *Selection {
	sel, ok := s.sessions[id]
	if !ok {
		sel = &Selection{History: []Summary{}}
		s.sessions[id] = sel
	}
	return sel
}

// Get returns a copy of the session's selection.
func (s *ActiveStore) Get(session string) Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sel, ok := s.sessions[session]; ok {
		return sel.clone()
	}
	return Selection{History: []Summary{}}
}

// Set makes p the active patient. The previous active patient moves to the
// front of the history, entries are de-duplicated by id and the list is
// capped at HistoryLimit.
func (s *ActiveStore) Set(session string, p Summary) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.session(session)

	history := sel.History
	if sel.Active != nil && sel.Active.ID != p.ID {
		history = append([]Summary{*sel.Active}, history...)
	}
	seen := map[uuid.UUID]bool{p.ID: true}
	out := make([]Summary, 0, HistoryLimit)
	for _, h := range history {
		if seen[h.ID] || len(out) == HistoryLimit {
			continue
		}
		seen[h.ID] = true
		out = append(out, h)
	}

	if sel.Active == nil || sel.Active.ID != p.ID {
		sel.Generation++
	}
	sel.Active = &p
	sel.History = out
	return sel.clone()
}

// Clear unsets the active patient and keeps the history.
func (s *ActiveStore) Clear(session string) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.session(session)
	if sel.Active != nil {
		sel.Generation++
	}
	sel.Active = nil
	return sel.clone()
}

// Remove drops the whole selection of a session, used on logout.
func (s *ActiveStore) Remove(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
}

// Refresh replaces every copy of p held as an active patient or history
// entry, in every session.
func (s *ActiveStore) Refresh(p Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sel := range s.sessions {
		if sel.Active != nil && sel.Active.ID == p.ID {
			a := p
			sel.Active = &a
		}
		for i := range sel.History {
			if sel.History[i].ID == p.ID {
				sel.History[i] = p
			}
		}
	}
}

// Forget removes a deleted patient from every session.
func (s *ActiveStore) Forget(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sel := range s.sessions {
		if sel.Active != nil && sel.Active.ID == id {
			sel.Active = nil
			sel.Generation++
		}
		kept := sel.History[:0]
		for _, h := range sel.History {
			if h.ID != id {
				kept = append(kept, h)
			}
		}
		sel.History = kept
	}
}

// Generation returns the session's current generation.
func (s *ActiveStore) Generation(session string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sel, ok := s.sessions[session]; ok {
		return sel.Generation
	}
	return 0
}

// Guard returns ErrSuperseded when the session's active patient changed
// after gen was read.
func (s *ActiveStore) Guard(session string, gen uint64) error {
	if s.Generation(session) != gen {
		return ErrSuperseded
	}
	return nil
}

// Scope returns the session's active patient together with a check that
// fails with ErrSuperseded once that selection has changed. ok is false
// when no patient is active.
func (s *ActiveStore) Scope(session string) (id uuid.UUID, guard func() error, ok bool) {
	sel := s.Get(session)
	if sel.Active == nil {
		return uuid.Nil, nil, false
	}
	gen := sel.Generation
	return sel.Active.ID, func() error { return s.Guard(session, gen) }, true
}
