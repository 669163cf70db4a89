package rca

import (
	"context"
	"sync"
	"time"
)

// Status is the incident's investigation lifecycle, distinct from
// AuroraStatus: it tracks where the incident sits in the
// triage->investigate->analyze workflow.
type Status string

const (
	StatusPending       Status = "pending"
	StatusInvestigating Status = "investigating"
	StatusAnalyzed      Status = "analyzed"
)

// AuroraStatus tracks the background RCA task's own run state.
// Invariant: monotonic (pending -> running -> complete) except on
// explicit cancellation; error is a terminal state reachable from any
// non-terminal state.
type AuroraStatus string

const (
	AuroraPending  AuroraStatus = "pending"
	AuroraRunning  AuroraStatus = "running"
	AuroraComplete AuroraStatus = "complete"
	AuroraError    AuroraStatus = "error"
)

// Incident is the persistent record referenced by RCA background
// tasks.
type Incident struct {
	ID         string
	Source     string
	Title      string
	Severity   Severity
	Service    string
	StartedAt  time.Time
	AnalyzedAt time.Time

	Status       Status
	AuroraStatus AuroraStatus
	Summary      string

	ChatSessionID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SuggestionType distinguishes a proposed code/config fix from a
// proposed command to run.
type SuggestionType string

const (
	SuggestionFix     SuggestionType = "fix"
	SuggestionCommand SuggestionType = "command"
)

// Suggestion is a structured follow-up action extracted from a
// post-RCA summary and attached to its incident.
type Suggestion struct {
	ID          string
	IncidentID  string
	Title       string
	Description string
	Type        SuggestionType
	Risk        string

	Repository       string // optional, set for SuggestionFix
	FilePath         string // optional, set for SuggestionFix
	SuggestedContent string // optional, set for SuggestionFix
	Command          string // optional, set for SuggestionCommand

	// PullRequestURL is set once a fix suggestion has been applied and
	// opened as a pull request through the GitHub connector.
	PullRequestURL string
}

// IncidentStore persists incidents, citations, and suggestions. The
// relational engine backing a concrete implementation is an external
// collaborator (spec Non-goal); this package only depends on the
// interface.
type IncidentStore interface {
	Create(ctx context.Context, incident *Incident) error
	Update(ctx context.Context, incident *Incident) error
	Get(ctx context.Context, id string) (*Incident, error)
	List(ctx context.Context, limit, offset int) ([]*Incident, error)

	SaveCitations(ctx context.Context, incidentID string, citations []Citation) error
	SaveSuggestions(ctx context.Context, incidentID string, suggestions []Suggestion) error
}

// MemoryIncidentStore keeps incidents in memory, following the same
// mutex-protected map shape as the teacher's job store.
type MemoryIncidentStore struct {
	mu          sync.RWMutex
	incidents   map[string]*Incident
	keys        []string
	citations   map[string][]Citation
	suggestions map[string][]Suggestion
}

// NewMemoryIncidentStore returns a new in-memory incident store.
func NewMemoryIncidentStore() *MemoryIncidentStore {
	return &MemoryIncidentStore{
		incidents:   make(map[string]*Incident),
		citations:   make(map[string][]Citation),
		suggestions: make(map[string][]Suggestion),
	}
}

func (s *MemoryIncidentStore) Create(ctx context.Context, incident *Incident) error {
	if incident == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.incidents[incident.ID]; !exists {
		s.keys = append(s.keys, incident.ID)
	}
	clone := *incident
	s.incidents[incident.ID] = &clone
	return nil
}

func (s *MemoryIncidentStore) Update(ctx context.Context, incident *Incident) error {
	if incident == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *incident
	s.incidents[incident.ID] = &clone
	return nil
}

func (s *MemoryIncidentStore) Get(ctx context.Context, id string) (*Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	incident, ok := s.incidents[id]
	if !ok {
		return nil, nil
	}
	clone := *incident
	return &clone, nil
}

func (s *MemoryIncidentStore) List(ctx context.Context, limit, offset int) ([]*Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > len(s.keys) {
		limit = len(s.keys)
	}
	if offset >= len(s.keys) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.keys) {
		end = len(s.keys)
	}
	result := make([]*Incident, 0, end-offset)
	for _, id := range s.keys[offset:end] {
		if incident, ok := s.incidents[id]; ok {
			clone := *incident
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *MemoryIncidentStore) SaveCitations(ctx context.Context, incidentID string, citations []Citation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.citations[incidentID] = append([]Citation(nil), citations...)
	return nil
}

func (s *MemoryIncidentStore) SaveSuggestions(ctx context.Context, incidentID string, suggestions []Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions[incidentID] = append([]Suggestion(nil), suggestions...)
	return nil
}

// Citations returns the citations saved for incidentID, for tests and
// inspection.
func (s *MemoryIncidentStore) Citations(incidentID string) []Citation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Citation(nil), s.citations[incidentID]...)
}

// Suggestions returns the suggestions saved for incidentID, for tests
// and inspection.
func (s *MemoryIncidentStore) Suggestions(incidentID string) []Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Suggestion(nil), s.suggestions[incidentID]...)
}
