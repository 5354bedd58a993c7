package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"seotrack/internal/cache"
	"seotrack/internal/model"
	"seotrack/internal/render"
	"seotrack/internal/report"
	"seotrack/internal/repository"
	"seotrack/pkg/metrics"

	"go.uber.org/zap"
)

// Report is one rendered page of a project report. Stats covers the
// filtered set, Overall every achievement of the project.
type Report struct {
	Project        model.PublicProject       `json:"project"`
	Filter         report.Filter             `json:"filter"`
	Stats          report.Stats              `json:"stats"`
	Overall        report.Stats              `json:"overall"`
	AvailableYears []int                     `json:"available_years"`
	Page           report.Page               `json:"page"`
	Achievements   []model.PublicAchievement `json:"achievements"`
}

// MonthReport is the month view of a project with its summary.
type MonthReport struct {
	Project      model.PublicProject       `json:"project"`
	Year         int                       `json:"year"`
	Month        int                       `json:"month"`
	MonthName    string                    `json:"month_name"`
	Stats        report.Stats              `json:"stats"`
	Summary      string                    `json:"summary"`
	SummaryHTML  string                    `json:"summary_html"`
	Achievements []model.PublicAchievement `json:"achievements"`
}

type ReportService struct {
	projects     ProjectStore
	achievements AchievementStore
	summaries    SummaryStore
	cache        cache.ReportCache
	logger       *zap.Logger
	now          func() time.Time
}

func NewReportService(projects ProjectStore, achievements AchievementStore, summaries SummaryStore, reportCache cache.ReportCache, logger *zap.Logger) *ReportService {
	if reportCache == nil {
		reportCache = cache.Nop{}
	}
	return &ReportService{
		projects:     projects,
		achievements: achievements,
		summaries:    summaries,
		cache:        reportCache,
		logger:       logger,
		now:          time.Now,
	}
}

// Public renders the client report for a project code. Unknown codes
// return ErrProjectNotFound.
func (s *ReportService) Public(ctx context.Context, code string, f report.Filter, page int) (*Report, error) {
	code = NormalizeCode(code)
	if page < 1 {
		page = 1
	}

	var cached Report
	if s.fromCache(ctx, code, reportVariant(f, page), &cached) {
		metrics.IncrementReportView("public", "report")
		return &cached, nil
	}

	p, err := s.byCode(ctx, code)
	if err != nil {
		return nil, err
	}
	r, err := s.build(ctx, p, f, page)
	if err != nil {
		return nil, err
	}

	// 按实际渲染的页缓存，越界页号不会产生新条目
	s.toCache(ctx, code, reportVariant(f, r.Page.CurrentPage), r)
	metrics.IncrementReportView("public", "report")
	return r, nil
}

// Private renders the same report for the project owner.
func (s *ReportService) Private(ctx context.Context, userID, projectID string, f report.Filter, page int) (*Report, error) {
	p, err := ownedProject(ctx, s.projects, userID, projectID)
	if err != nil {
		return nil, err
	}
	r, err := s.build(ctx, p, f, page)
	if err != nil {
		return nil, err
	}
	metrics.IncrementReportView("private", "report")
	return r, nil
}

// PublicMonth renders one calendar month of a project by code.
func (s *ReportService) PublicMonth(ctx context.Context, code string, year, month int) (*MonthReport, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	code = NormalizeCode(code)
	variant := fmt.Sprintf("month|%d|%d", year, month)

	var cached MonthReport
	if s.fromCache(ctx, code, variant, &cached) {
		metrics.IncrementReportView("public", "monthly")
		return &cached, nil
	}

	p, err := s.byCode(ctx, code)
	if err != nil {
		return nil, err
	}
	r, err := s.buildMonth(ctx, p, year, month)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, code, variant, r)
	metrics.IncrementReportView("public", "monthly")
	return r, nil
}

func (s *ReportService) PrivateMonth(ctx context.Context, userID, projectID string, year, month int) (*MonthReport, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	p, err := ownedProject(ctx, s.projects, userID, projectID)
	if err != nil {
		return nil, err
	}
	r, err := s.buildMonth(ctx, p, year, month)
	if err != nil {
		return nil, err
	}
	metrics.IncrementReportView("private", "monthly")
	return r, nil
}

// PublicExport collects the workbook content for a project code.
func (s *ReportService) PublicExport(ctx context.Context, code string, f report.Filter) (*render.Workbook, error) {
	p, err := s.byCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	wb, err := s.workbook(ctx, p, f)
	if err != nil {
		return nil, err
	}
	metrics.IncrementReportView("public", "export")
	return wb, nil
}

func (s *ReportService) PrivateExport(ctx context.Context, userID, projectID string, f report.Filter) (*render.Workbook, error) {
	p, err := ownedProject(ctx, s.projects, userID, projectID)
	if err != nil {
		return nil, err
	}
	wb, err := s.workbook(ctx, p, f)
	if err != nil {
		return nil, err
	}
	metrics.IncrementReportView("private", "export")
	return wb, nil
}

func (s *ReportService) byCode(ctx context.Context, code string) (*model.Project, error) {
	if code == "" {
		return nil, ErrProjectNotFound
	}
	p, err := s.projects.GetByCode(ctx, code)
	if err != nil {
		return nil, storeError(err, ErrProjectNotFound)
	}
	return p, nil
}

// load fetches and normalizes the project's achievements, newest date
// first.
func (s *ReportService) load(ctx context.Context, projectID string) ([]model.Achievement, error) {
	records, err := s.achievements.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	list, err := report.NormalizeAll(records)
	if err != nil {
		return nil, err
	}
	return report.SortByDateDesc(list), nil
}

func (s *ReportService) build(ctx context.Context, p *model.Project, f report.Filter, page int) (*Report, error) {
	all, err := s.load(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	filtered := report.Apply(all, f)
	items, pg := report.Paginate(filtered, page, report.DefaultPageSize)

	return &Report{
		Project:        PublicProject(p),
		Filter:         f,
		Stats:          report.Aggregate(filtered),
		Overall:        report.Aggregate(all),
		AvailableYears: report.AvailableYears(all),
		Page:           pg,
		Achievements:   PublicAchievements(items),
	}, nil
}

func (s *ReportService) buildMonth(ctx context.Context, p *model.Project, year, month int) (*MonthReport, error) {
	all, err := s.load(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	group := report.GroupMonth(all, year, month)

	var text string
	sum, err := s.summaries.Get(ctx, p.ID, year, month)
	switch {
	case err == nil:
		text = sum.Summary
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	return &MonthReport{
		Project:      PublicProject(p),
		Year:         group.Year,
		Month:        group.Month,
		MonthName:    group.MonthName,
		Stats:        group.Stats,
		Summary:      text,
		SummaryHTML:  render.Markdown(text),
		Achievements: PublicAchievements(group.Achievements),
	}, nil
}

func (s *ReportService) workbook(ctx context.Context, p *model.Project, f report.Filter) (*render.Workbook, error) {
	all, err := s.load(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	summaries, err := s.summaries.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	filtered := report.Apply(all, f)
	return &render.Workbook{
		ProjectName:  p.Name,
		ProjectCode:  p.ProjectCode,
		ClientName:   p.ClientName,
		FilterLabel:  FilterLabel(f),
		Stats:        report.Aggregate(filtered),
		Achievements: filtered,
		Summaries:    summaries,
		GeneratedAt:  s.now().UTC(),
	}, nil
}

func (s *ReportService) fromCache(ctx context.Context, code, variant string, dst any) bool {
	data, ok := s.cache.Get(ctx, code, variant)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("discarding undecodable cache entry", zap.String("code", code), zap.Error(err))
		return false
	}
	return true
}

func (s *ReportService) toCache(ctx context.Context, code, variant string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("report not cacheable", zap.String("code", code), zap.Error(err))
		return
	}
	s.cache.Set(ctx, code, variant, data)
}

func reportVariant(f report.Filter, page int) string {
	data, _ := json.Marshal(f.Canonical())
	return fmt.Sprintf("report|%s|%d", data, page)
}

// FilterLabel describes f for humans, e.g. "2024 / March / completed".
func FilterLabel(f report.Filter) string {
	if f.IsZero() {
		return "All achievements"
	}
	var parts []string
	if f.Year != 0 {
		parts = append(parts, fmt.Sprint(f.Year))
	}
	if f.Month != 0 {
		parts = append(parts, report.MonthName(f.Month))
	}
	if f.TitleContains != "" {
		parts = append(parts, fmt.Sprintf("title contains %q", f.TitleContains))
	}
	if f.Completion != "" && f.Completion != report.CompletionAny {
		parts = append(parts, string(f.Completion))
	}
	if f.Live != "" && f.Live != report.LiveAny {
		parts = append(parts, string(f.Live))
	}
	return strings.Join(parts, " / ")
}

// PublicProject strips owner and internal identifiers.
func PublicProject(p *model.Project) model.PublicProject {
	return model.PublicProject{
		Name:            p.Name,
		Description:     p.Description,
		DescriptionHTML: render.Markdown(p.Description),
		Status:          p.Status,
		ClientName:      p.ClientName,
		URL:             p.URL,
		ProjectCode:     p.ProjectCode,
		CreatedAt:       p.CreatedAt,
	}
}

// PublicAchievements maps achievements to their client-facing form.
func PublicAchievements(list []model.Achievement) []model.PublicAchievement {
	out := make([]model.PublicAchievement, len(list))
	for i, a := range list {
		out[i] = model.PublicAchievement{
			ID:                 a.ID,
			Title:              a.Title,
			Description:        a.Description,
			DescriptionHTML:    render.Markdown(a.Description),
			Date:               report.FormatDate(a.Date),
			Category:           a.Category,
			IsCompleted:        a.Completed,
			IsAppliedToWebsite: a.Applied,
			Link:               a.Link,
		}
	}
	return out
}
