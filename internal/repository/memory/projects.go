package memory

import (
	"context"
	"sort"

	"seotrack/internal/model"
	"seotrack/internal/repository"
)

type ProjectRepository struct {
	s *Store
}

func (r *ProjectRepository) Create(_ context.Context, p *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[p.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.s.projects {
		if existing.ProjectCode == p.ProjectCode {
			return repository.ErrDuplicate
		}
	}

	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.projects[p.ID] = *p
	r.s.stamp(p.ID)
	return nil
}

func (r *ProjectRepository) Get(_ context.Context, id string) (*model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *ProjectRepository) GetByCode(_ context.Context, code string) (*model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.projects {
		if p.ProjectCode == code {
			found := p
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ProjectRepository) ListByUser(_ context.Context, userID string) ([]model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	projects := []model.Project{}
	for _, p := range r.s.projects {
		if p.UserID == userID {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return r.s.newer(projects[i].ID, projects[i].CreatedAt, projects[j].ID, projects[j].CreatedAt)
	})
	return projects, nil
}

func (r *ProjectRepository) Update(_ context.Context, id string, u model.ProjectUpdate) (*model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.ClientName != nil {
		p.ClientName = *u.ClientName
	}
	if u.URL != nil {
		p.URL = *u.URL
	}
	p.UpdatedAt = r.s.now()
	r.s.projects[id] = p
	return &p, nil
}

// Delete removes the project together with its achievements and summaries.
func (r *ProjectRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.projects, id)
	delete(r.s.order, id)

	for aid, a := range r.s.achievements {
		if a.ProjectID == id {
			delete(r.s.achievements, aid)
			delete(r.s.order, aid)
		}
	}
	for key := range r.s.summaries {
		if key.projectID == id {
			delete(r.s.summaries, key)
		}
	}
	return nil
}
