package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seotrack/internal/cache"
	"seotrack/internal/handler"
	"seotrack/internal/repository/memory"
	"seotrack/internal/service"
	"seotrack/pkg/outbox"
	"seotrack/pkg/trace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

type fakeReplayer struct {
	replayed []int64
}

func (f *fakeReplayer) ReplayEvent(_ context.Context, id int64) error {
	if id == 404 {
		return outbox.ErrEventNotFound
	}
	f.replayed = append(f.replayed, id)
	return nil
}

func (f *fakeReplayer) ReplayFailedEvents(context.Context, int) (int, error) {
	return 3, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	engine *gin.Engine
}

func newTestServer(t *testing.T, pinger Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	if pinger == nil {
		pinger = store
	}
	logger := zap.NewNop()
	c := cache.NewLocal(time.Minute)

	authService := service.NewAuthService(store.Users(), testSecret, time.Hour, []string{"admin@example.com"}, logger)
	projectService := service.NewProjectService(store.Projects(), store.Achievements(), c, logger)
	achievementService := service.NewAchievementService(store.Projects(), store.Achievements(), c, logger)
	summaryService := service.NewSummaryService(store.Projects(), store.Summaries(), c, logger)
	reportService := service.NewReportService(store.Projects(), store.Achievements(), store.Summaries(), c, logger)

	engine := NewRouter(Handlers{
		Auth:         handler.NewAuthHandler(authService, logger),
		Projects:     handler.NewProjectHandler(projectService, logger),
		Achievements: handler.NewAchievementHandler(achievementService, logger),
		Summaries:    handler.NewSummaryHandler(summaryService, logger),
		Reports:      handler.NewReportHandler(reportService, logger),
		Admin:        handler.NewAdminHandler(&fakeReplayer{}, logger),
	}, Options{
		JWTSecret: testSecret,
		Store:     pinger,
		Deduper:   cache.NewLocalDeduper(time.Minute),
		Logger:    logger,
	})
	return &testServer{engine: engine}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "password123"}
	if w := s.do(t, http.MethodPost, "/register", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	w := s.do(t, http.MethodPost, "/login", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	return resp.Token
}

type projectResp struct {
	ID          string `json:"id"`
	ProjectCode string `json:"project_code"`
}

func (s *testServer) createProject(t *testing.T, token string) projectResp {
	t.Helper()
	w := s.do(t, http.MethodPost, "/projects", token, map[string]string{"name": "Acme", "client_name": "Acme Ltd"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: %d %s", w.Code, w.Body.String())
	}
	var p projectResp
	decode(t, w, &p)
	return p
}

func (s *testServer) createAchievement(t *testing.T, token, projectID, date string, completed, applied bool) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/projects/"+projectID+"/achievements", token, map[string]any{
		"title":                 "Work " + date,
		"description":           "Did things on " + date,
		"date":                  date,
		"is_completed":          completed,
		"is_applied_to_website": applied,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create achievement: %d %s", w.Code, w.Body.String())
	}
}

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/health", "/readyz"} {
		if w := s.do(t, http.MethodGet, path, "", nil); w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
	if w := s.do(t, http.MethodHead, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Errorf("HEAD /healthz: expected 200, got %d", w.Code)
	}

	down := newTestServer(t, failingPinger{})
	if w := down.do(t, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when the store is down, got %d", w.Code)
	}
}

func TestTraceIDIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/healthz", "", nil, trace.HeaderName, "trace-123")
	if got := w.Header().Get(trace.HeaderName); got != "trace-123" {
		t.Errorf("expected trace id echoed, got %q", got)
	}
	w = s.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Header().Get(trace.HeaderName) == "" {
		t.Error("expected a generated trace id")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)
	if w := s.do(t, http.MethodGet, "/projects", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/projects", "not-a-jwt", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with a bad token, got %d", w.Code)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	s := newTestServer(t, nil)
	s.login(t, "dup@example.com")
	w := s.do(t, http.MethodPost, "/register", "", map[string]string{"email": "dup@example.com", "password": "password123"})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestPublicReportScenario(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "owner@example.com")
	p := s.createProject(t, token)
	s.createAchievement(t, token, p.ID, "2024-01-05", true, false)
	s.createAchievement(t, token, p.ID, "2024-01-20", false, true)
	s.createAchievement(t, token, p.ID, "2024-02-01", true, true)

	w := s.do(t, http.MethodGet, "/public/reports/"+p.ProjectCode+"?year=2024&month=1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("public report: %d %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); strings.Contains(body, "user_id") || strings.Contains(body, "project_id") {
		t.Errorf("public report leaks owner fields: %s", body)
	}

	var r service.Report
	decode(t, w, &r)
	if r.Stats.Total != 2 || r.Stats.Completed != 1 || r.Stats.Applied != 1 || r.Stats.Pending != 1 || r.Stats.CompletionRate != 50 {
		t.Errorf("unexpected stats %+v", r.Stats)
	}
	if r.Page.CurrentPage != 1 || r.Page.TotalPages != 1 {
		t.Errorf("unexpected page %+v", r.Page)
	}

	if w := s.do(t, http.MethodGet, "/public/reports/"+p.ProjectCode+"?month=13", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for month 13, got %d", w.Code)
	}
}

func TestUnknownCodeIsNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/public/reports/ZZZZ9999", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "project not found" {
		t.Errorf("unexpected error body %v", body)
	}
}

func TestDeletedProjectDisappears(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "owner@example.com")
	p := s.createProject(t, token)
	s.createAchievement(t, token, p.ID, "2024-01-05", true, false)

	if w := s.do(t, http.MethodDelete, "/projects/"+p.ID, token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/achievements", token, nil)
	var list service.AchievementList
	decode(t, w, &list)
	if list.Stats.Total != 0 || len(list.Achievements) != 0 {
		t.Errorf("achievements survived project delete: %+v", list)
	}
	if w := s.do(t, http.MethodGet, "/public/reports/"+p.ProjectCode, "", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestForeignProjectLooksMissing(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.login(t, "owner@example.com")
	other := s.login(t, "other@example.com")
	p := s.createProject(t, owner)

	for _, path := range []string{"/projects/" + p.ID, "/projects/" + p.ID + "/achievements", "/projects/" + p.ID + "/report"} {
		if w := s.do(t, http.MethodGet, path, other, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 for a foreign project, got %d", path, w.Code)
		}
	}
}

func TestProjectListCountsAchievements(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "owner@example.com")
	busy := s.createProject(t, token)
	idle := s.createProject(t, token)
	s.createAchievement(t, token, busy.ID, "2024-01-05", true, false)
	s.createAchievement(t, token, busy.ID, "2024-01-06", false, false)

	other := s.login(t, "other@example.com")
	foreign := s.createProject(t, other)
	s.createAchievement(t, other, foreign.ID, "2024-01-07", false, false)

	w := s.do(t, http.MethodGet, "/projects", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list projects: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Projects []struct {
			ID               string `json:"id"`
			Name             string `json:"name"`
			AchievementCount int    `json:"achievement_count"`
		} `json:"projects"`
	}
	decode(t, w, &resp)

	want := map[string]int{busy.ID: 2, idle.ID: 0}
	if len(resp.Projects) != len(want) {
		t.Fatalf("expected %d projects, got %+v", len(want), resp.Projects)
	}
	for _, p := range resp.Projects {
		if p.Name == "" {
			t.Errorf("project fields not inlined: %+v", p)
		}
		if n, ok := want[p.ID]; !ok || p.AchievementCount != n {
			t.Errorf("project %s: count %d, want %d", p.ID, p.AchievementCount, n)
		}
	}
}

func TestIdempotentCreate(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "owner@example.com")
	p := s.createProject(t, token)
	body := map[string]any{"title": "Sitemap", "description": "Submitted sitemap"}
	path := "/projects/" + p.ID + "/achievements"

	if w := s.do(t, http.MethodPost, path, token, body, "Idempotency-Key", "k1"); w.Code != http.StatusCreated {
		t.Fatalf("first create: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, path, token, body, "Idempotency-Key", "k1"); w.Code != http.StatusConflict {
		t.Errorf("replayed key: expected 409, got %d", w.Code)
	}

	w := s.do(t, http.MethodGet, path, token, nil)
	var list service.AchievementList
	decode(t, w, &list)
	if list.Stats.Total != 1 {
		t.Errorf("expected exactly one achievement, got %d", list.Stats.Total)
	}
}

func TestFailedCreateFreesIdempotencyKey(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "owner@example.com")
	p := s.createProject(t, token)
	path := "/projects/" + p.ID + "/achievements"

	invalid := map[string]any{"title": "Sitemap", "description": ""}
	if w := s.do(t, http.MethodPost, path, token, invalid, "Idempotency-Key", "retry-1"); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid create: expected 400, got %d %s", w.Code, w.Body.String())
	}

	valid := map[string]any{"title": "Sitemap", "description": "Submitted sitemap"}
	if w := s.do(t, http.MethodPost, path, token, valid, "Idempotency-Key", "retry-1"); w.Code != http.StatusCreated {
		t.Fatalf("retry after fixing input: expected 201, got %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, path, token, valid, "Idempotency-Key", "retry-1"); w.Code != http.StatusConflict {
		t.Errorf("key of a successful create must stay taken, got %d", w.Code)
	}

	// a create against a missing project fails the same way
	missing := "/projects/00000000-0000-0000-0000-000000000000/achievements"
	if w := s.do(t, http.MethodPost, missing, token, valid, "Idempotency-Key", "retry-2"); w.Code != http.StatusNotFound {
		t.Fatalf("missing project: expected 404, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, path, token, valid, "Idempotency-Key", "retry-2"); w.Code != http.StatusCreated {
		t.Errorf("key of a failed create should be reusable, got %d", w.Code)
	}
}

func TestSummaryAndMonthView(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "owner@example.com")
	p := s.createProject(t, token)
	s.createAchievement(t, token, p.ID, "2024-02-29", true, true)

	w := s.do(t, http.MethodPut, "/projects/"+p.ID+"/summaries/2024/2", token, map[string]string{"summary": "Leap work"})
	if w.Code != http.StatusOK {
		t.Fatalf("put summary: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPut, "/projects/"+p.ID+"/summaries/2024/0", token, map[string]string{"summary": "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("month 0: expected 400, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/public/reports/"+p.ProjectCode+"/months/2024/2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("month view: %d %s", w.Code, w.Body.String())
	}
	var m service.MonthReport
	decode(t, w, &m)
	if m.Summary != "Leap work" || m.Stats.Total != 1 || m.MonthName != "February" {
		t.Errorf("unexpected month view %+v", m)
	}

	if w := s.do(t, http.MethodGet, "/projects/"+p.ID+"/report/monthly?year=2024", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("monthly without month: expected 400, got %d", w.Code)
	}
}

func TestExportServesWorkbook(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "owner@example.com")
	p := s.createProject(t, token)
	s.createAchievement(t, token, p.ID, "2024-01-05", true, false)

	w := s.do(t, http.MethodGet, "/public/reports/"+p.ProjectCode+"/export", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/vnd.openxmlformats") {
		t.Errorf("unexpected content type %q", ct)
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip archive")
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.login(t, "user@example.com")
	admin := s.login(t, "admin@example.com")

	if w := s.do(t, http.MethodPost, "/admin/outbox/replay-failed", user, nil); w.Code != http.StatusForbidden {
		t.Errorf("user: expected 403, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/admin/outbox/replay-failed", admin, nil); w.Code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, "/admin/outbox/replay?id=404", admin, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown event: expected 404, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/admin/outbox/replay?id=abc", admin, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
}
