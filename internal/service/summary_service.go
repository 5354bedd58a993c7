package service

import (
	"context"
	"strings"

	"seotrack/internal/cache"
	"seotrack/internal/model"

	"go.uber.org/zap"
)

type SummaryService struct {
	projects  ProjectStore
	summaries SummaryStore
	cache     cache.ReportCache
	logger    *zap.Logger
}

func NewSummaryService(projects ProjectStore, summaries SummaryStore, reportCache cache.ReportCache, logger *zap.Logger) *SummaryService {
	if reportCache == nil {
		reportCache = cache.Nop{}
	}
	return &SummaryService{
		projects:  projects,
		summaries: summaries,
		cache:     reportCache,
		logger:    logger,
	}
}

// Save creates or replaces the summary of one project month.
func (s *SummaryService) Save(ctx context.Context, userID, projectID string, year, month int, text string) (*model.MonthlySummary, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalid("summary", "is required")
	}
	p, err := ownedProject(ctx, s.projects, userID, projectID)
	if err != nil {
		return nil, err
	}

	sum := &model.MonthlySummary{
		ProjectID: p.ID,
		Year:      year,
		Month:     month,
		Summary:   text,
	}
	if err := s.summaries.Upsert(ctx, sum); err != nil {
		return nil, storeError(err, ErrProjectNotFound)
	}

	s.cache.Invalidate(ctx, p.ProjectCode)
	s.logger.Info("monthly summary saved",
		zap.String("project_id", p.ID),
		zap.Int("year", year),
		zap.Int("month", month),
	)
	return sum, nil
}

func (s *SummaryService) Get(ctx context.Context, userID, projectID string, year, month int) (*model.MonthlySummary, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	if _, err := ownedProject(ctx, s.projects, userID, projectID); err != nil {
		return nil, err
	}
	sum, err := s.summaries.Get(ctx, projectID, year, month)
	if err != nil {
		return nil, storeError(err, ErrSummaryNotFound)
	}
	return sum, nil
}

func validateYearMonth(year, month int) error {
	if year < 1 || year > 9999 {
		return invalid("year", "must be between 1 and 9999")
	}
	if month < 1 || month > 12 {
		return invalid("month", "must be between 1 and 12")
	}
	return nil
}
