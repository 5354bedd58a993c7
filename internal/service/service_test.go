package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"seotrack/internal/cache"
	"seotrack/internal/model"
	"seotrack/internal/report"
	"seotrack/internal/repository/memory"
	"seotrack/pkg/rbac"

	"go.uber.org/zap"
)

type testEnv struct {
	auth         *AuthService
	projects     *ProjectService
	achievements *AchievementService
	summaries    *SummaryService
	reports      *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	logger := zap.NewNop()
	c := cache.NewLocal(time.Minute)

	env := &testEnv{
		auth:         NewAuthService(store.Users(), "test-secret", time.Hour, []string{"Admin@Example.com"}, logger),
		projects:     NewProjectService(store.Projects(), store.Achievements(), c, logger),
		achievements: NewAchievementService(store.Projects(), store.Achievements(), c, logger),
		summaries:    NewSummaryService(store.Projects(), store.Summaries(), c, logger),
		reports:      NewReportService(store.Projects(), store.Achievements(), store.Summaries(), c, logger),
	}
	env.achievements.now = func() time.Time { return time.Date(2024, time.June, 15, 22, 0, 0, 0, time.UTC) }
	return env
}

func (e *testEnv) project(t *testing.T, userID string) *model.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), userID, model.ProjectInput{Name: "Acme Site", ClientName: "Acme"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func (e *testEnv) achievement(t *testing.T, userID, projectID, date string, completed, applied bool) *model.AchievementRecord {
	t.Helper()
	rec, err := e.achievements.Create(context.Background(), userID, projectID, model.AchievementInput{
		Title:              "Work on " + date,
		Description:        "Details for " + date,
		Date:               date,
		IsCompleted:        completed,
		IsAppliedToWebsite: applied,
	})
	if err != nil {
		t.Fatalf("create achievement: %v", err)
	}
	return rec
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.auth.Register(ctx, " Someone@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "someone@example.com" || u.Role != rbac.RoleUser {
		t.Errorf("unexpected user %+v", u)
	}

	if _, err := env.auth.Register(ctx, "someone@example.com", "another password"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := env.auth.Register(ctx, "short@example.com", "123"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.auth.Register(ctx, "not-an-email", "long enough"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	token, logged, err := env.auth.Login(ctx, "SOMEONE@example.com", "correct horse")
	if err != nil || token == "" || logged.ID != u.ID {
		t.Fatalf("login failed: %v", err)
	}
	if _, _, err := env.auth.Login(ctx, "someone@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := env.auth.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	admin, err := env.auth.Register(ctx, "admin@example.com", "admin password")
	if err != nil || admin.Role != rbac.RoleAdmin {
		t.Errorf("configured admin email should get the admin role: %+v %v", admin, err)
	}
}

func TestGenerateProjectCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateProjectCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != codeLength {
			t.Fatalf("code %q has wrong length", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Errorf("codes repeat too often: %d unique of 200", len(seen))
	}
}

func TestProjectCreateRetriesOnCodeCollision(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	first := env.project(t, "u1")

	codes := []string{first.ProjectCode, first.ProjectCode, "FRESH234"}
	env.projects.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	p, err := env.projects.Create(ctx, "u1", model.ProjectInput{Name: "Second"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ProjectCode != "FRESH234" {
		t.Errorf("expected retry to reach the fresh code, got %s", p.ProjectCode)
	}
}

func TestProjectValidationAndOwnership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	bad := []model.ProjectInput{
		{Name: "   "},
		{Name: "x", Status: "archived"},
		{Name: "x", URL: "ftp://example.com"},
	}
	for _, in := range bad {
		if _, err := env.projects.Create(ctx, "u1", in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", in, err)
		}
	}

	p := env.project(t, "u1")
	if p.Status != model.ProjectActive {
		t.Errorf("default status should be active, got %s", p.Status)
	}
	if _, err := env.projects.Get(ctx, "u2", p.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("foreign project should look missing, got %v", err)
	}
	if err := env.projects.Delete(ctx, "u2", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign delete should be not found, got %v", err)
	}

	paused := model.ProjectPaused
	updated, err := env.projects.Update(ctx, "u1", p.ID, model.ProjectUpdate{Status: &paused})
	if err != nil || updated.Status != paused || updated.Name != p.Name {
		t.Errorf("partial update failed: %+v %v", updated, err)
	}
	if _, err := env.projects.Update(ctx, "u1", p.ID, model.ProjectUpdate{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty update should be rejected, got %v", err)
	}
}

func TestAchievementCreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.project(t, "u1")

	tests := []struct {
		name  string
		in    model.AchievementInput
		field string
	}{
		{"missing title", model.AchievementInput{Description: "d"}, "title"},
		{"missing description", model.AchievementInput{Title: "t", Description: "  "}, "description"},
		{"unknown category", model.AchievementInput{Title: "t", Description: "d", Category: "Social"}, "category"},
		{"bad date", model.AchievementInput{Title: "t", Description: "d", Date: "2024-02-30"}, "date"},
		{"relative link", model.AchievementInput{Title: "t", Description: "d", Link: "/blog/post"}, "link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.achievements.Create(ctx, "u1", p.ID, tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}

	rec, err := env.achievements.Create(ctx, "u1", p.ID, model.AchievementInput{Title: " Fix robots.txt ", Description: "Unblocked /blog"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Date != "2024-06-15" || rec.Category != model.DefaultCategory || rec.Title != "Fix robots.txt" || rec.Link != nil {
		t.Errorf("defaults not applied: %+v", rec)
	}

	if _, err := env.achievements.Create(ctx, "u2", p.ID, model.AchievementInput{Title: "t", Description: "d"}); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("creating under a foreign project should fail, got %v", err)
	}
}

func TestAchievementUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.project(t, "u1")
	rec := env.achievement(t, "u1", p.ID, "2024-01-05", false, false)

	done, empty := true, ""
	updated, err := env.achievements.Update(ctx, "u1", rec.ID, model.AchievementUpdate{IsCompleted: &done, Description: &empty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsCompleted || *updated.Description != "" || updated.Title != rec.Title {
		t.Errorf("unexpected record %+v", updated)
	}

	if _, err := env.achievements.Update(ctx, "u2", rec.ID, model.AchievementUpdate{IsCompleted: &done}); !errors.Is(err, ErrAchievementNotFound) {
		t.Errorf("foreign update should be not found, got %v", err)
	}
	if err := env.achievements.Delete(ctx, "u1", rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.achievements.Delete(ctx, "u1", rec.ID); !errors.Is(err, ErrAchievementNotFound) {
		t.Errorf("second delete should be not found, got %v", err)
	}
}

func TestPublicReportJanuaryScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.project(t, "u1")
	env.achievement(t, "u1", p.ID, "2024-01-05", true, false)
	env.achievement(t, "u1", p.ID, "2024-01-20", false, true)
	env.achievement(t, "u1", p.ID, "2024-02-01", true, true)

	r, err := env.reports.Public(ctx, strings.ToLower(p.ProjectCode), report.Filter{Year: 2024, Month: 1}, 1)
	if err != nil {
		t.Fatalf("public report: %v", err)
	}

	want := report.Stats{Total: 2, Completed: 1, Applied: 1, Pending: 1, CompletionRate: 50, AppliedRate: 50, PendingRate: 50}
	if r.Stats != want {
		t.Errorf("stats %+v, want %+v", r.Stats, want)
	}
	if r.Overall.Total != 3 {
		t.Errorf("overall should cover every achievement, got %+v", r.Overall)
	}
	if len(r.Achievements) != 2 || r.Achievements[0].Date != "2024-01-20" || r.Achievements[1].Date != "2024-01-05" {
		t.Errorf("expected January achievements newest date first, got %+v", r.Achievements)
	}
	if len(r.AvailableYears) != 1 || r.AvailableYears[0] != 2024 {
		t.Errorf("unexpected years %v", r.AvailableYears)
	}

	data, _ := json.Marshal(r)
	for _, leak := range []string{"user_id", "project_id", p.UserID, p.ID} {
		if strings.Contains(string(data), leak) {
			t.Errorf("public report leaks %q", leak)
		}
	}
}

func TestPublicReportUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	for _, code := range []string{"", "NOPE2345"} {
		if _, err := env.reports.Public(context.Background(), code, report.Filter{}, 1); !errors.Is(err, ErrProjectNotFound) {
			t.Errorf("code %q: expected ErrProjectNotFound, got %v", code, err)
		}
	}
}

func TestDeletingProjectRemovesItsAchievements(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.project(t, "u1")
	keep := env.project(t, "u1")
	env.achievement(t, "u1", p.ID, "2024-01-05", true, false)
	env.achievement(t, "u1", p.ID, "2024-01-06", false, false)
	env.achievement(t, "u1", keep.ID, "2024-01-07", false, false)

	if _, err := env.reports.Public(ctx, p.ProjectCode, report.Filter{}, 1); err != nil {
		t.Fatalf("report before delete: %v", err)
	}
	if err := env.projects.Delete(ctx, "u1", p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	list, err := env.achievements.ListUser(ctx, "u1", report.Filter{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if list.Stats.Total != 1 || list.Achievements[0].ProjectID != keep.ID {
		t.Errorf("achievements of the deleted project still listed: %+v", list)
	}
	if _, err := env.reports.Public(ctx, p.ProjectCode, report.Filter{}, 1); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("deleted project's report should be gone, got %v", err)
	}
}

func TestPublicReportCacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.project(t, "u1")
	env.achievement(t, "u1", p.ID, "2024-01-05", false, false)

	before, err := env.reports.Public(ctx, p.ProjectCode, report.Filter{}, 1)
	if err != nil || before.Stats.Total != 1 {
		t.Fatalf("first report: %+v %v", before, err)
	}

	env.achievement(t, "u1", p.ID, "2024-01-06", true, false)

	after, err := env.reports.Public(ctx, p.ProjectCode, report.Filter{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if after.Stats.Total != 2 || after.Stats.Completed != 1 {
		t.Errorf("stale report served after write: %+v", after.Stats)
	}
}

type recordingCache struct {
	cache.Nop
	stored []string
}

func (c *recordingCache) Set(_ context.Context, _, variant string, _ []byte) {
	c.stored = append(c.stored, variant)
}

func TestPublicReportCachedUnderRenderedPage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rc := &recordingCache{}
	projects := NewProjectService(store.Projects(), store.Achievements(), rc, zap.NewNop())
	achievements := NewAchievementService(store.Projects(), store.Achievements(), rc, zap.NewNop())
	reports := NewReportService(store.Projects(), store.Achievements(), store.Summaries(), rc, zap.NewNop())

	p, err := projects.Create(ctx, "u1", model.ProjectInput{Name: "Acme Site", ClientName: "Acme"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := achievements.Create(ctx, "u1", p.ID, model.AchievementInput{Title: "Audit", Description: "d", Date: "2024-01-05"}); err != nil {
		t.Fatal(err)
	}

	for _, page := range []int{1, 7, 999} {
		r, err := reports.Public(ctx, p.ProjectCode, report.Filter{}, page)
		if err != nil {
			t.Fatal(err)
		}
		if r.Page.CurrentPage != 1 {
			t.Errorf("page %d rendered as %d", page, r.Page.CurrentPage)
		}
	}
	wildcard, _ := report.ParseFilter("all", "all", "", "all", "all")
	if _, err := reports.Public(ctx, p.ProjectCode, wildcard, 1); err != nil {
		t.Fatal(err)
	}

	if len(rc.stored) != 4 {
		t.Fatalf("expected 4 cache writes, got %d", len(rc.stored))
	}
	for _, v := range rc.stored {
		if v != rc.stored[0] {
			t.Errorf("equivalent requests stored under different variants: %q", rc.stored)
			break
		}
	}
}

func TestMonthReportAndSummaryUpsert(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.project(t, "u1")
	env.achievement(t, "u1", p.ID, "2024-02-29", true, true)
	env.achievement(t, "u1", p.ID, "2024-03-01", false, false)

	if _, err := env.summaries.Save(ctx, "u1", p.ID, 2024, 2, "draft"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.summaries.Save(ctx, "u1", p.ID, 2024, 2, "**Leap** month"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.summaries.Save(ctx, "u1", p.ID, 2024, 13, "x"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("month 13 should be rejected, got %v", err)
	}
	if _, err := env.summaries.Save(ctx, "u1", p.ID, 2024, 2, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank summary should be rejected, got %v", err)
	}

	m, err := env.reports.PublicMonth(ctx, p.ProjectCode, 2024, 2)
	if err != nil {
		t.Fatalf("month report: %v", err)
	}
	if m.MonthName != "February" || m.Stats.Total != 1 || m.Achievements[0].Date != "2024-02-29" {
		t.Errorf("unexpected month report %+v", m)
	}
	if m.Summary != "**Leap** month" || !strings.Contains(m.SummaryHTML, "<strong>Leap</strong>") {
		t.Errorf("summary not rendered: %q / %q", m.Summary, m.SummaryHTML)
	}

	march, err := env.reports.PrivateMonth(ctx, "u1", p.ID, 2024, 3)
	if err != nil {
		t.Fatal(err)
	}
	if march.Summary != "" || march.Stats.Total != 1 {
		t.Errorf("unexpected March report %+v", march)
	}

	if _, err := env.summaries.Get(ctx, "u1", p.ID, 2024, 3); !errors.Is(err, ErrSummaryNotFound) {
		t.Errorf("expected ErrSummaryNotFound, got %v", err)
	}
}

func TestExportWorkbookUsesFilter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.project(t, "u1")
	env.achievement(t, "u1", p.ID, "2024-01-05", true, false)
	env.achievement(t, "u1", p.ID, "2023-12-20", false, false)

	wb, err := env.reports.PublicExport(ctx, p.ProjectCode, report.Filter{Year: 2024})
	if err != nil {
		t.Fatal(err)
	}
	if len(wb.Achievements) != 1 || wb.Stats.Total != 1 || wb.FilterLabel != "2024" {
		t.Errorf("unexpected workbook %+v", wb)
	}
}

func TestFilterLabel(t *testing.T) {
	tests := []struct {
		f    report.Filter
		want string
	}{
		{report.Filter{}, "All achievements"},
		{report.Filter{Year: 2024, Month: 3}, "2024 / March"},
		{report.Filter{Completion: report.CompletionPending, Live: report.LiveLive}, "pending / live"},
	}
	for _, tt := range tests {
		if got := FilterLabel(tt.f); got != tt.want {
			t.Errorf("FilterLabel(%+v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}
