package memory

import (
	"context"
	"sort"

	"seotrack/internal/model"
	"seotrack/internal/repository"
)

type AchievementRepository struct {
	s *Store
}

// Create stores rec. The owning project must exist, mirroring the foreign
// key of the SQL schema.
func (r *AchievementRepository) Create(_ context.Context, rec *model.AchievementRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[rec.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.achievements[rec.ID]; ok {
		return repository.ErrDuplicate
	}

	now := r.s.now()
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.s.achievements[rec.ID] = cloneAchievement(*rec)
	r.s.stamp(rec.ID)
	return nil
}

func (r *AchievementRepository) Get(_ context.Context, id string) (*model.AchievementRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.achievements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a = cloneAchievement(a)
	return &a, nil
}

func (r *AchievementRepository) ListByProject(_ context.Context, projectID string) ([]model.AchievementRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(func(a model.AchievementRecord) bool {
		return a.ProjectID == projectID
	}), nil
}

func (r *AchievementRepository) ListByUser(_ context.Context, userID string) ([]model.AchievementRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(func(a model.AchievementRecord) bool {
		p, ok := r.s.projects[a.ProjectID]
		return ok && p.UserID == userID
	}), nil
}

func (r *AchievementRepository) CountByUser(_ context.Context, userID string) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, a := range r.s.achievements {
		if p, ok := r.s.projects[a.ProjectID]; ok && p.UserID == userID {
			counts[a.ProjectID]++
		}
	}
	return counts, nil
}

// collect returns matching records newest first. Caller holds a lock.
func (r *AchievementRepository) collect(keep func(model.AchievementRecord) bool) []model.AchievementRecord {
	records := []model.AchievementRecord{}
	for _, a := range r.s.achievements {
		if keep(a) {
			records = append(records, cloneAchievement(a))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return r.s.newer(records[i].ID, records[i].CreatedAt, records[j].ID, records[j].CreatedAt)
	})
	return records
}

func (r *AchievementRepository) Update(_ context.Context, id string, u model.AchievementUpdate) (*model.AchievementRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.achievements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.Title != nil {
		a.Title = *u.Title
	}
	if u.Description != nil {
		a.Description = cloneString(u.Description)
	}
	if u.Date != nil {
		a.Date = *u.Date
	}
	if u.Category != nil {
		a.Category = *u.Category
	}
	if u.IsCompleted != nil {
		a.IsCompleted = *u.IsCompleted
	}
	if u.IsAppliedToWebsite != nil {
		a.IsAppliedToWebsite = *u.IsAppliedToWebsite
	}
	if u.Link != nil {
		a.Link = cloneString(u.Link)
	}
	a.UpdatedAt = r.s.now()
	r.s.achievements[id] = a

	out := cloneAchievement(a)
	return &out, nil
}

func (r *AchievementRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.achievements[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.achievements, id)
	delete(r.s.order, id)
	return nil
}
