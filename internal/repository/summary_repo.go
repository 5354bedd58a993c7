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

type SummaryRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewSummaryRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *SummaryRepository {
	return &SummaryRepository{db: db, outbox: outboxRepo, logger: logger}
}

// Upsert inserts or replaces the summary for (project, year, month).
func (r *SummaryRepository) Upsert(ctx context.Context, s *model.MonthlySummary) error {
	query := `
        INSERT INTO monthly_summaries (project_id, year, month, summary)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (project_id, year, month)
        DO UPDATE SET summary = EXCLUDED.summary, updated_at = NOW()
        RETURNING created_at, updated_at
    `
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, s.ProjectID, s.Year, s.Month, s.Summary).
			Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
			return mapError(err)
		}
		payload := mq.SummarySavedPayload{
			ProjectID:  s.ProjectID,
			Year:       s.Year,
			Month:      s.Month,
			OccurredAt: time.Now().UTC(),
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, mq.AggregateSummary, s.ProjectID, mq.SummarySaved, payload)
	})
	if err != nil {
		r.logger.Error("Failed to upsert monthly summary",
			zap.Error(err),
			zap.String("project_id", s.ProjectID),
			zap.Int("year", s.Year),
			zap.Int("month", s.Month),
		)
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

// Get returns the summary for (project, year, month).
func (r *SummaryRepository) Get(ctx context.Context, projectID string, year, month int) (*model.MonthlySummary, error) {
	query := `
        SELECT project_id::text, year, month, summary, created_at, updated_at
        FROM monthly_summaries
        WHERE project_id = $1 AND year = $2 AND month = $3
    `
	var s model.MonthlySummary
	err := r.db.QueryRow(ctx, query, projectID, year, month).Scan(
		&s.ProjectID, &s.Year, &s.Month, &s.Summary, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// ListByProject returns every summary of the project, latest month first.
func (r *SummaryRepository) ListByProject(ctx context.Context, projectID string) ([]model.MonthlySummary, error) {
	query := `
        SELECT project_id::text, year, month, summary, created_at, updated_at
        FROM monthly_summaries
        WHERE project_id = $1
        ORDER BY year DESC, month DESC
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	summaries := []model.MonthlySummary{}
	for rows.Next() {
		var s model.MonthlySummary
		if err := rows.Scan(&s.ProjectID, &s.Year, &s.Month, &s.Summary, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
