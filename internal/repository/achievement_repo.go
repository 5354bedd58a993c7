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

// achievement_date is a DATE column; it leaves the database as text so no
// session time zone can shift the calendar day.
const achievementColumns = `a.id::text, a.project_id::text, a.title, a.description,
               to_char(a.achievement_date, 'YYYY-MM-DD'), a.category, a.is_completed,
               a.is_applied_to_website, a.link, a.created_at, a.updated_at`

type AchievementRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewAchievementRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *AchievementRepository {
	return &AchievementRepository{db: db, outbox: outboxRepo, logger: logger}
}

// Create inserts rec and an achievement.created event. rec.ID and rec.Date
// must already be set.
func (r *AchievementRepository) Create(ctx context.Context, rec *model.AchievementRecord) error {
	r.logger.Debug("Inserting achievement",
		zap.String("project_id", rec.ProjectID),
		zap.String("title", rec.Title),
		zap.String("date", rec.Date),
	)

	query := `
        INSERT INTO achievements (id, project_id, title, description, achievement_date, category,
                                  is_completed, is_applied_to_website, link)
        VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9)
        RETURNING created_at, updated_at
    `
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			rec.ID,
			rec.ProjectID,
			rec.Title,
			rec.Description,
			rec.Date,
			rec.Category,
			rec.IsCompleted,
			rec.IsAppliedToWebsite,
			rec.Link,
		).Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return mapError(err)
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, mq.AggregateAchievement, rec.ID, mq.AchievementCreated, achievementPayload(rec))
	})
	if err != nil {
		r.logger.Error("Failed to insert achievement",
			zap.Error(err),
			zap.String("project_id", rec.ProjectID),
		)
		return fmt.Errorf("insert achievement: %w", err)
	}

	r.logger.Info("Achievement inserted successfully",
		zap.String("id", rec.ID),
		zap.String("project_id", rec.ProjectID),
	)
	return nil
}

// Get returns achievement by id.
func (r *AchievementRepository) Get(ctx context.Context, id string) (*model.AchievementRecord, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements a WHERE a.id = $1`
	rec, err := scanAchievement(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return rec, nil
}

// ListByProject returns the project's achievements, newest first.
func (r *AchievementRepository) ListByProject(ctx context.Context, projectID string) ([]model.AchievementRecord, error) {
	query := `
        SELECT ` + achievementColumns + `
        FROM achievements a
        WHERE a.project_id = $1
        ORDER BY a.created_at DESC
    `
	return r.list(ctx, query, projectID)
}

// ListByUser returns the achievements of every project owned by userID,
// newest first.
func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]model.AchievementRecord, error) {
	query := `
        SELECT ` + achievementColumns + `
        FROM achievements a
        JOIN projects p ON p.id = a.project_id
        WHERE p.user_id = $1
        ORDER BY a.created_at DESC
    `
	return r.list(ctx, query, userID)
}

// CountByUser returns achievement counts keyed by project id for the
// projects owned by userID.
func (r *AchievementRepository) CountByUser(ctx context.Context, userID string) (map[string]int, error) {
	query := `
        SELECT a.project_id::text, COUNT(*)
        FROM achievements a
        JOIN projects p ON p.id = a.project_id
        WHERE p.user_id = $1
        GROUP BY a.project_id
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to count achievements", zap.Error(err), zap.String("user_id", userID))
		return nil, mapError(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var projectID string
		var n int
		if err := rows.Scan(&projectID, &n); err != nil {
			return nil, fmt.Errorf("scan achievement count: %w", err)
		}
		counts[projectID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievement counts: %w", err)
	}
	return counts, nil
}

func (r *AchievementRepository) list(ctx context.Context, query, arg string) ([]model.AchievementRecord, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to query achievements", zap.Error(err))
		return nil, mapError(err)
	}
	defer rows.Close()

	records := []model.AchievementRecord{}
	for rows.Next() {
		rec, err := scanAchievement(rows)
		if err != nil {
			r.logger.Error("Failed to scan achievement row", zap.Error(err))
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Update applies the non-nil fields of u. A non-nil u.Date must already be
// in YYYY-MM-DD form.
func (r *AchievementRepository) Update(ctx context.Context, id string, u model.AchievementUpdate) (*model.AchievementRecord, error) {
	query := `
        UPDATE achievements a SET
            title                 = COALESCE($2, a.title),
            description           = COALESCE($3, a.description),
            achievement_date      = COALESCE($4::date, a.achievement_date),
            category              = COALESCE($5, a.category),
            is_completed          = COALESCE($6, a.is_completed),
            is_applied_to_website = COALESCE($7, a.is_applied_to_website),
            link                  = COALESCE($8, a.link),
            updated_at            = NOW()
        WHERE a.id = $1
        RETURNING ` + achievementColumns

	var rec *model.AchievementRecord
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		rec, err = scanAchievement(tx.QueryRow(ctx, query,
			id,
			u.Title,
			u.Description,
			u.Date,
			u.Category,
			u.IsCompleted,
			u.IsAppliedToWebsite,
			u.Link,
		))
		if err != nil {
			return mapError(err)
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, mq.AggregateAchievement, rec.ID, mq.AchievementUpdated, achievementPayload(rec))
	})
	if err != nil {
		return nil, fmt.Errorf("update achievement: %w", err)
	}
	return rec, nil
}

// Delete removes the achievement.
func (r *AchievementRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM achievements a WHERE a.id = $1 RETURNING ` + achievementColumns

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		rec, err := scanAchievement(tx.QueryRow(ctx, query, id))
		if err != nil {
			return mapError(err)
		}
		return outbox.InsertEventInTx(ctx, tx, r.outbox, mq.AggregateAchievement, rec.ID, mq.AchievementDeleted, achievementPayload(rec))
	})
	if err != nil {
		return fmt.Errorf("delete achievement: %w", err)
	}
	return nil
}

func scanAchievement(row pgx.Row) (*model.AchievementRecord, error) {
	var rec model.AchievementRecord
	err := row.Scan(
		&rec.ID,
		&rec.ProjectID,
		&rec.Title,
		&rec.Description,
		&rec.Date,
		&rec.Category,
		&rec.IsCompleted,
		&rec.IsAppliedToWebsite,
		&rec.Link,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func achievementPayload(rec *model.AchievementRecord) mq.AchievementPayload {
	return mq.AchievementPayload{
		AchievementID:      rec.ID,
		ProjectID:          rec.ProjectID,
		Title:              rec.Title,
		Date:               rec.Date,
		IsCompleted:        rec.IsCompleted,
		IsAppliedToWebsite: rec.IsAppliedToWebsite,
		OccurredAt:         time.Now().UTC(),
	}
}
