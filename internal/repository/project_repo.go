package repository

import (
	"context"
	"fmt"
	"time"

	"seotrack/contracts/mq"
	"seotrack/internal/model"
	"seotrack/pkg/outbox"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const projectColumns = `id::text, user_id::text, name, COALESCE(description, ''), status,
               COALESCE(client_name, ''), COALESCE(url, ''), project_code, created_at, updated_at`

type ProjectRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

// Create inserts p and a project.created event. p.ID and p.ProjectCode
// must already be set; a code collision returns ErrDuplicate.
func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.String("user_id", p.UserID),
		zap.String("name", p.Name),
	)

	query := `
        INSERT INTO projects (id, user_id, name, description, status, client_name, url, project_code)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at
    `
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			p.ID,
			p.UserID,
			p.Name,
			p.Description,
			p.Status,
			p.ClientName,
			p.URL,
			p.ProjectCode,
		).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
			return mapError(err)
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, mq.AggregateProject, p.ID, mq.ProjectCreated, projectPayload(p))
	})
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err), zap.String("user_id", p.UserID))
		return fmt.Errorf("insert project: %w", err)
	}

	r.logger.Info("Project inserted successfully",
		zap.String("id", p.ID),
		zap.String("project_code", p.ProjectCode),
	)
	return nil
}

// Get returns project by id.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*model.Project, error) {
	return r.findOne(ctx, "id = $1", id)
}

// GetByCode returns the project with the given public code.
func (r *ProjectRepository) GetByCode(ctx context.Context, code string) (*model.Project, error) {
	return r.findOne(ctx, "project_code = $1", code)
}

func (r *ProjectRepository) findOne(ctx context.Context, where, arg string) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE ` + where
	p, err := scanProject(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// ListByUser returns the user's projects, newest first.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	query := `
        SELECT ` + projectColumns + `
        FROM projects
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query projects", zap.Error(err), zap.String("user_id", userID))
		return nil, mapError(err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Update applies the non-nil fields of u and returns the stored project.
func (r *ProjectRepository) Update(ctx context.Context, id string, u model.ProjectUpdate) (*model.Project, error) {
	query := `
        UPDATE projects SET
            name        = COALESCE($2, name),
            description = COALESCE($3, description),
            status      = COALESCE($4, status),
            client_name = COALESCE($5, client_name),
            url         = COALESCE($6, url),
            updated_at  = NOW()
        WHERE id = $1
        RETURNING ` + projectColumns

	var p *model.Project
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		p, err = scanProject(tx.QueryRow(ctx, query, id, u.Name, u.Description, u.Status, u.ClientName, u.URL))
		if err != nil {
			return mapError(err)
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, mq.AggregateProject, p.ID, mq.ProjectUpdated, projectPayload(p))
	})
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// Delete removes the project. Achievements and monthly summaries go with
// it through ON DELETE CASCADE.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	query := `
        DELETE FROM projects
        WHERE id = $1
        RETURNING ` + projectColumns

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		p, err := scanProject(tx.QueryRow(ctx, query, id))
		if err != nil {
			return mapError(err)
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, mq.AggregateProject, p.ID, mq.ProjectDeleted, projectPayload(p))
	})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	r.logger.Info("Project deleted", zap.String("id", id))
	return nil
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.ClientName,
		&p.URL,
		&p.ProjectCode,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func projectPayload(p *model.Project) mq.ProjectPayload {
	return mq.ProjectPayload{
		ProjectID:   p.ID,
		UserID:      p.UserID,
		ProjectCode: p.ProjectCode,
		Name:        p.Name,
		Status:      p.Status,
		OccurredAt:  time.Now().UTC(),
	}
}
