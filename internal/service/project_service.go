package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"seotrack/internal/cache"
	"seotrack/internal/model"
	"seotrack/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// no 0/O or 1/I so codes survive being read aloud or retyped
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength      = 8
	codeMaxAttempts = 5
)

type ProjectService struct {
	projects     ProjectStore
	achievements AchievementStore
	cache        cache.ReportCache
	logger       *zap.Logger
	newCode      func() (string, error)
}

func NewProjectService(projects ProjectStore, achievements AchievementStore, reportCache cache.ReportCache, logger *zap.Logger) *ProjectService {
	if reportCache == nil {
		reportCache = cache.Nop{}
	}
	return &ProjectService{
		projects:     projects,
		achievements: achievements,
		cache:        reportCache,
		logger:       logger,
		newCode:      GenerateProjectCode,
	}
}

// GenerateProjectCode returns a random shareable code.
func GenerateProjectCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate project code: %w", err)
	}
	// len(codeAlphabet) divides 256, so the modulo is unbiased
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCode canonicalises a user-supplied project code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create validates in and stores a new project owned by userID with a
// freshly generated code, retrying on code collisions.
func (s *ProjectService) Create(ctx context.Context, userID string, in model.ProjectInput) (*model.Project, error) {
	p := &model.Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Status:      strings.TrimSpace(in.Status),
		ClientName:  strings.TrimSpace(in.ClientName),
		URL:         strings.TrimSpace(in.URL),
	}
	if p.Status == "" {
		p.Status = model.ProjectActive
	}
	if err := validateProject(p.Name, p.Status, p.URL); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		p.ProjectCode = code

		err = s.projects.Create(ctx, p)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt >= codeMaxAttempts {
			return nil, err
		}
		s.logger.Warn("project code collision, retrying", zap.Int("attempt", attempt))
	}

	s.logger.Info("project created",
		zap.String("project_id", p.ID),
		zap.String("user_id", userID),
		zap.String("project_code", p.ProjectCode),
	)
	return p, nil
}

// Get returns the project if it exists and belongs to userID. Foreign
// projects are reported as not found.
func (s *ProjectService) Get(ctx context.Context, userID, id string) (*model.Project, error) {
	return ownedProject(ctx, s.projects, userID, id)
}

// List returns userID's projects with their achievement counts.
func (s *ProjectService) List(ctx context.Context, userID string) ([]model.ProjectListItem, error) {
	projects, err := s.projects.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.achievements.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]model.ProjectListItem, len(projects))
	for i, p := range projects {
		items[i] = model.ProjectListItem{Project: p, AchievementCount: counts[p.ID]}
	}
	return items, nil
}

func (s *ProjectService) Update(ctx context.Context, userID, id string, u model.ProjectUpdate) (*model.Project, error) {
	if u.Empty() {
		return nil, invalid("body", "no fields to update")
	}
	if _, err := ownedProject(ctx, s.projects, userID, id); err != nil {
		return nil, err
	}

	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, invalid("name", "is required")
		}
		u.Name = &name
	}
	if u.Status != nil && !model.ValidProjectStatus(*u.Status) {
		return nil, invalid("status", "must be one of active, completed, paused")
	}
	if u.URL != nil {
		link := strings.TrimSpace(*u.URL)
		if link != "" && !validURL(link) {
			return nil, invalid("url", "must be an absolute http(s) URL")
		}
		u.URL = &link
	}

	p, err := s.projects.Update(ctx, id, u)
	if err != nil {
		return nil, storeError(err, ErrProjectNotFound)
	}
	s.cache.Invalidate(ctx, p.ProjectCode)
	return p, nil
}

// Delete removes the project with its achievements and monthly summaries.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	p, err := ownedProject(ctx, s.projects, userID, id)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return storeError(err, ErrProjectNotFound)
	}
	s.cache.Invalidate(ctx, p.ProjectCode)

	s.logger.Info("project deleted", zap.String("project_id", id), zap.String("user_id", userID))
	return nil
}

func validateProject(name, status, link string) error {
	if name == "" {
		return invalid("name", "is required")
	}
	if !model.ValidProjectStatus(status) {
		return invalid("status", "must be one of active, completed, paused")
	}
	if link != "" && !validURL(link) {
		return invalid("url", "must be an absolute http(s) URL")
	}
	return nil
}

// ownedProject loads a project and checks that userID owns it.
func ownedProject(ctx context.Context, projects ProjectStore, userID, id string) (*model.Project, error) {
	p, err := projects.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrProjectNotFound)
	}
	if p.UserID != userID {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

// storeError maps repository.ErrNotFound onto notFound and passes every
// other error through.
func storeError(err, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
