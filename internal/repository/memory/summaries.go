package memory

import (
	"context"
	"sort"

	"seotrack/internal/model"
	"seotrack/internal/repository"
)

type SummaryRepository struct {
	s *Store
}

// Upsert keeps exactly one summary per (project, year, month).
func (r *SummaryRepository) Upsert(_ context.Context, sum *model.MonthlySummary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[sum.ProjectID]; !ok {
		return repository.ErrNotFound
	}

	key := summaryKey{projectID: sum.ProjectID, year: sum.Year, month: sum.Month}
	now := r.s.now()
	if existing, ok := r.s.summaries[key]; ok {
		sum.CreatedAt = existing.CreatedAt
	} else {
		sum.CreatedAt = now
	}
	sum.UpdatedAt = now
	r.s.summaries[key] = *sum
	return nil
}

func (r *SummaryRepository) Get(_ context.Context, projectID string, year, month int) (*model.MonthlySummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sum, ok := r.s.summaries[summaryKey{projectID: projectID, year: year, month: month}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sum, nil
}

func (r *SummaryRepository) ListByProject(_ context.Context, projectID string) ([]model.MonthlySummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.MonthlySummary{}
	for key, sum := range r.s.summaries {
		if key.projectID == projectID {
			out = append(out, sum)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}
