package filter

import (
	"cyberguard/domain/core"
	"cyberguard/domain/filter"
)

// Session owns the filter state of one interactive session. It is used from
// a single interaction thread and is not safe for concurrent use.
type Session struct {
	id     core.SessionID
	bounds filter.Range
	state  filter.State
}

// NewSession starts a session with the year range at the full observed span
// and no page filters.
func NewSession(bounds filter.Range) *Session {
	s := &Session{id: core.NewSessionID(), bounds: bounds.Normalize()}
	s.state = s.initial(0)
	return s
}

func (s *Session) initial(version uint64) filter.State {
	return filter.State{
		Version:   version,
		SessionID: s.id,
		Global:    filter.GlobalState{YearRange: s.bounds},
		Pages:     map[filter.PageID]filter.PageState{},
	}
}

// ID returns the session identifier
func (s *Session) ID() core.SessionID { return s.id }

// Bounds returns the observed year span the session clamps to
func (s *Session) Bounds() filter.Range { return s.bounds }

// State returns a copy of the current state
func (s *Session) State() filter.State { return s.state.Clone() }

// Replace installs next as the current state. The global range is
// normalized and clamped to the session bounds, the session ID is kept and
// the version advances by one.
func (s *Session) Replace(next filter.State) filter.State {
	next = next.Clone()
	next.SessionID = s.id
	next.Version = s.state.Version + 1
	next.Global.YearRange = next.Global.YearRange.Clamp(s.bounds)
	if next.Pages == nil {
		next.Pages = map[filter.PageID]filter.PageState{}
	}
	s.state = next
	return s.state.Clone()
}

// Update derives the next state from the current one and installs it
func (s *Session) Update(fn func(filter.State) filter.State) filter.State {
	return s.Replace(fn(s.State()))
}

// Clear resets the global and every page scope in one step
func (s *Session) Clear() filter.State {
	s.state = s.initial(s.state.Version + 1)
	return s.state.Clone()
}
