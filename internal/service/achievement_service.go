package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"seotrack/internal/cache"
	"seotrack/internal/model"
	"seotrack/internal/report"
	"seotrack/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AchievementList is one page of a management listing.
type AchievementList struct {
	Filter       report.Filter             `json:"filter"`
	Stats        report.Stats              `json:"stats"`
	Page         report.Page               `json:"page"`
	Achievements []model.AchievementRecord `json:"achievements"`
}

type AchievementService struct {
	projects     ProjectStore
	achievements AchievementStore
	cache        cache.ReportCache
	logger       *zap.Logger
	now          func() time.Time
}

func NewAchievementService(projects ProjectStore, achievements AchievementStore, reportCache cache.ReportCache, logger *zap.Logger) *AchievementService {
	if reportCache == nil {
		reportCache = cache.Nop{}
	}
	return &AchievementService{
		projects:     projects,
		achievements: achievements,
		cache:        reportCache,
		logger:       logger,
		now:          time.Now,
	}
}

// Create validates in and stores it under projectID. The date defaults to
// today (UTC) and the category to model.DefaultCategory.
func (s *AchievementService) Create(ctx context.Context, userID, projectID string, in model.AchievementInput) (*model.AchievementRecord, error) {
	p, err := ownedProject(ctx, s.projects, userID, projectID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, invalid("description", "is required")
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	if !model.ValidCategory(category) {
		return nil, invalid("category", "unknown category %q", category)
	}

	date := report.FormatDate(s.now())
	if strings.TrimSpace(in.Date) != "" {
		d, err := report.ParseDate(in.Date)
		if err != nil {
			return nil, invalid("date", "must be YYYY-MM-DD")
		}
		date = report.FormatDate(d)
	}

	link, err := optionalLink(in.Link)
	if err != nil {
		return nil, err
	}

	description := in.Description
	rec := &model.AchievementRecord{
		ID:                 uuid.NewString(),
		ProjectID:          p.ID,
		Title:              title,
		Description:        &description,
		Date:               date,
		Category:           category,
		IsCompleted:        in.IsCompleted,
		IsAppliedToWebsite: in.IsAppliedToWebsite,
		Link:               link,
	}
	if err := s.achievements.Create(ctx, rec); err != nil {
		return nil, storeError(err, ErrProjectNotFound)
	}

	s.cache.Invalidate(ctx, p.ProjectCode)
	metrics.IncrementAchievementWrite("create")
	s.logger.Info("achievement created",
		zap.String("achievement_id", rec.ID),
		zap.String("project_id", p.ID),
	)
	return rec, nil
}

// Update applies a partial update to an achievement of one of userID's
// projects and returns the stored record.
func (s *AchievementService) Update(ctx context.Context, userID, id string, u model.AchievementUpdate) (*model.AchievementRecord, error) {
	if u.Empty() {
		return nil, invalid("body", "no fields to update")
	}
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return nil, invalid("title", "must not be empty")
		}
		u.Title = &title
	}
	if u.Category != nil && !model.ValidCategory(*u.Category) {
		return nil, invalid("category", "unknown category %q", *u.Category)
	}
	if u.Date != nil {
		d, err := report.ParseDate(*u.Date)
		if err != nil {
			return nil, invalid("date", "must be YYYY-MM-DD")
		}
		date := report.FormatDate(d)
		u.Date = &date
	}
	if u.Link != nil {
		link, err := optionalLink(*u.Link)
		if err != nil {
			return nil, err
		}
		if link == nil {
			empty := ""
			link = &empty
		}
		u.Link = link
	}

	rec, err := s.achievements.Update(ctx, id, u)
	if err != nil {
		return nil, storeError(err, ErrAchievementNotFound)
	}

	s.cache.Invalidate(ctx, p.ProjectCode)
	metrics.IncrementAchievementWrite("update")
	return rec, nil
}

func (s *AchievementService) Delete(ctx context.Context, userID, id string) error {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.achievements.Delete(ctx, id); err != nil {
		return storeError(err, ErrAchievementNotFound)
	}

	s.cache.Invalidate(ctx, p.ProjectCode)
	metrics.IncrementAchievementWrite("delete")
	s.logger.Info("achievement deleted", zap.String("achievement_id", id), zap.String("project_id", p.ID))
	return nil
}

// ListProject is the management listing of one project: newest created
// first, filtered, with stats over the filtered set and one page.
func (s *AchievementService) ListProject(ctx context.Context, userID, projectID string, f report.Filter, page int) (*AchievementList, error) {
	if _, err := ownedProject(ctx, s.projects, userID, projectID); err != nil {
		return nil, err
	}
	records, err := s.achievements.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return buildList(records, f, page)
}

// ListUser is the dashboard listing across all of userID's projects.
func (s *AchievementService) ListUser(ctx context.Context, userID string, f report.Filter, page int) (*AchievementList, error) {
	records, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildList(records, f, page)
}

// owned returns the project of achievement id if userID owns it.
func (s *AchievementService) owned(ctx context.Context, userID, id string) (*model.Project, error) {
	rec, err := s.achievements.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrAchievementNotFound)
	}
	p, err := ownedProject(ctx, s.projects, userID, rec.ProjectID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrAchievementNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func buildList(records []model.AchievementRecord, f report.Filter, page int) (*AchievementList, error) {
	list, err := report.NormalizeAll(records)
	if err != nil {
		return nil, err
	}
	filtered := report.Apply(list, f)
	items, pg := report.Paginate(filtered, page, report.DefaultPageSize)
	return &AchievementList{
		Filter:       f,
		Stats:        report.Aggregate(filtered),
		Page:         pg,
		Achievements: report.Records(items),
	}, nil
}

func optionalLink(raw string) (*string, error) {
	link := strings.TrimSpace(raw)
	if link == "" {
		return nil, nil
	}
	if !validURL(link) {
		return nil, invalid("link", "must be an absolute http(s) URL")
	}
	return &link, nil
}
