// Package dashboard holds the presentation state for the storm dashboard
// and the controller that loads storm snapshots by date.
package dashboard

import (
	"slices"
	"sync"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
)

// State is the read-only view presentation renders from.
type State struct {
	ActiveDate *domain.DateKey `json:"active_date"`
	// SnapshotDate is the date the current Storms were fetched for. It lags
	// ActiveDate while a new date is loading.
	SnapshotDate *domain.DateKey `json:"snapshot_date"`
	Storms       []domain.Storm  `json:"storms"`
	FocusedStorm *domain.Storm   `json:"focused_storm"`
	Loading      bool            `json:"loading"`
	Error        *string         `json:"error"`
}

func emptyState() State {
	return State{Storms: []domain.Storm{}}
}

// Store is the single source of dashboard state. Storms, Error, and Loading
// are only ever replaced together.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore creates a store holding the empty startup state.
func NewStore() *Store {
	return &Store{state: emptyState()}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) update(fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	return s.state.clone()
}

func (st State) clone() State {
	out := st
	out.ActiveDate = clonePtr(st.ActiveDate)
	out.SnapshotDate = clonePtr(st.SnapshotDate)
	out.FocusedStorm = clonePtr(st.FocusedStorm)
	out.Error = clonePtr(st.Error)
	out.Storms = slices.Clone(st.Storms)
	if out.Storms == nil {
		out.Storms = []domain.Storm{}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
