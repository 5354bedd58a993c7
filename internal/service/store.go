package service

import (
	"context"

	"seotrack/internal/model"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// ProjectStore persists projects. Delete cascades to the project's
// achievements and monthly summaries.
type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) error
	Get(ctx context.Context, id string) (*model.Project, error)
	GetByCode(ctx context.Context, code string) (*model.Project, error)
	ListByUser(ctx context.Context, userID string) ([]model.Project, error)
	Update(ctx context.Context, id string, u model.ProjectUpdate) (*model.Project, error)
	Delete(ctx context.Context, id string) error
}

// AchievementStore persists achievements. Lists are newest first by
// creation time.
type AchievementStore interface {
	Create(ctx context.Context, rec *model.AchievementRecord) error
	Get(ctx context.Context, id string) (*model.AchievementRecord, error)
	ListByProject(ctx context.Context, projectID string) ([]model.AchievementRecord, error)
	ListByUser(ctx context.Context, userID string) ([]model.AchievementRecord, error)
	// CountByUser counts achievements per project id for userID's
	// projects. Projects without achievements may be absent.
	CountByUser(ctx context.Context, userID string) (map[string]int, error)
	Update(ctx context.Context, id string, u model.AchievementUpdate) (*model.AchievementRecord, error)
	Delete(ctx context.Context, id string) error
}

// SummaryStore persists monthly summaries, one per (project, year, month).
type SummaryStore interface {
	Upsert(ctx context.Context, s *model.MonthlySummary) error
	Get(ctx context.Context, projectID string, year, month int) (*model.MonthlySummary, error)
	ListByProject(ctx context.Context, projectID string) ([]model.MonthlySummary, error)
}
