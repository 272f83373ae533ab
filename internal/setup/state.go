package setup

import (
	"github.com/goliatone/go-jumpgate/internal/installation"
	"github.com/goliatone/go-jumpgate/internal/matching"
)

// Row is one eligible content type in the matcher.
type Row struct {
	ContentType matching.ContentType `json:"contentType"`
	EntryID     string               `json:"entryId"`
	Assigned    bool                 `json:"assigned"`
	Suggested   bool                 `json:"suggested"`
	Hint        string               `json:"hint,omitempty"`
}

// Matcher describes the matcher section. Hidden is set when a consumer has
// not verified the connection; Loading while the entry list is in flight.
type Matcher struct {
	Hidden     bool                 `json:"hidden"`
	Loading    bool                 `json:"loading"`
	Empty      bool                 `json:"empty"`
	Heading    string               `json:"heading,omitempty"`
	Body       string               `json:"body,omitempty"`
	Rows       []Row                `json:"rows"`
	Candidates []matching.Candidate `json:"candidates"`
}

// State is a read-only snapshot of the screen.
type State struct {
	Parameters        installation.Parameters `json:"parameters"`
	ContentTypeExists bool                    `json:"contentTypeExists"`
	ContentTypeNote   string                  `json:"contentTypeNote,omitempty"`
	Matcher           Matcher                 `json:"matcher"`
}

// State returns the current snapshot.
func (s *Screen) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return State{}, ErrNotLoaded
	}

	params := s.params.Clone()
	params.PatternMatches = s.store.Snapshot()
	out := State{
		Parameters:        params,
		ContentTypeExists: s.contentTypeExists,
	}
	if params.SpaceType.HostsDocumentation() {
		out.ContentTypeNote = MessageTypeWillCreate
		if s.contentTypeExists {
			out.ContentTypeNote = MessageTypePresent
		}
	}

	m := Matcher{Rows: []Row{}, Candidates: []matching.Candidate{}}
	switch {
	case !params.SpaceType.Consumes():
		m.Hidden = true
	case params.SpaceType == installation.RoleConsumer && !params.SourceConnectionValidated:
		m.Hidden = true
	case !s.entriesLoaded:
		m.Loading = true
	}
	if !m.Hidden && !m.Loading {
		for _, e := range s.entries {
			m.Candidates = append(m.Candidates, matching.Candidate{ID: e.ID, DisplayName: e.DisplayName})
		}
		if len(m.Candidates) == 0 {
			m.Empty = true
			m.Heading = MessageEmptyHeading
			m.Body = MessageEmptyBody
		}
		for _, ct := range matching.Eligible(s.contentTypes, s.deps.SourceConfig.ContentTypeID) {
			entryID, ok := s.store.Get(ct.ID)
			row := Row{
				ContentType: ct,
				EntryID:     entryID,
				Assigned:    ok && entryID != matching.NoAssignment,
				Suggested:   s.suggested.Has(ct.ID),
			}
			if row.Suggested {
				row.Hint = MessageSuggested
			}
			m.Rows = append(m.Rows, row)
		}
	}
	out.Matcher = m
	return out, nil
}

// Suggested reports whether the current match of contentTypeID was picked
// automatically.
func (s *Screen) Suggested(contentTypeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggested.Has(contentTypeID)
}
