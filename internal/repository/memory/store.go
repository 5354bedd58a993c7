// Package memory is an in-process implementation of the repositories,
// used for local runs and as the backend double in tests. Deleting a
// project cascades to its achievements and monthly summaries.
package memory

import (
	"context"
	"sync"
	"time"

	"seotrack/internal/model"
)

type summaryKey struct {
	projectID string
	year      int
	month     int
}

// Store holds every table behind one lock so cascades are atomic.
type Store struct {
	mu           sync.RWMutex
	users        map[string]model.User
	projects     map[string]model.Project
	achievements map[string]model.AchievementRecord
	summaries    map[summaryKey]model.MonthlySummary
	// insertion counter; breaks created_at ties so ordering is deterministic
	seq   int64
	order map[string]int64
	now   func() time.Time
}

func New() *Store {
	return &Store{
		users:        make(map[string]model.User),
		projects:     make(map[string]model.Project),
		achievements: make(map[string]model.AchievementRecord),
		summaries:    make(map[summaryKey]model.MonthlySummary),
		order:        make(map[string]int64),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() *UserRepository               { return &UserRepository{s: s} }
func (s *Store) Projects() *ProjectRepository         { return &ProjectRepository{s: s} }
func (s *Store) Achievements() *AchievementRepository { return &AchievementRepository{s: s} }
func (s *Store) Summaries() *SummaryRepository        { return &SummaryRepository{s: s} }

// stamp records insertion order for id. Caller holds the write lock.
func (s *Store) stamp(id string) {
	s.seq++
	s.order[id] = s.seq
}

// newer reports whether a sorts before b: created_at desc, later
// insertions first on ties. Caller holds a lock.
func (s *Store) newer(aID string, aCreated time.Time, bID string, bCreated time.Time) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return s.order[aID] > s.order[bID]
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneAchievement(a model.AchievementRecord) model.AchievementRecord {
	a.Description = cloneString(a.Description)
	a.Link = cloneString(a.Link)
	return a
}

// Ping always succeeds; it satisfies the readiness check.
func (s *Store) Ping(context.Context) error { return nil }
