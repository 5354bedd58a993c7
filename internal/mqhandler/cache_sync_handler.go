// Package mqhandler reacts to domain events relayed from the outbox.
package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"seotrack/contracts/mq"
	"seotrack/internal/cache"
	"seotrack/internal/model"
	"seotrack/internal/repository"

	"go.uber.org/zap"
)

// BindingKeys are the topics CacheSyncHandler listens to.
var BindingKeys = []string{"project.*", "achievement.*", mq.SummarySaved}

// ProjectLookup resolves a project id to its share code.
type ProjectLookup interface {
	Get(ctx context.Context, id string) (*model.Project, error)
}

// CacheSyncHandler drops cached public reports after writes made by other
// replicas, which only reach this process as events.
type CacheSyncHandler struct {
	projects ProjectLookup
	cache    cache.ReportCache
	logger   *zap.Logger
}

func NewCacheSyncHandler(projects ProjectLookup, reportCache cache.ReportCache, logger *zap.Logger) *CacheSyncHandler {
	return &CacheSyncHandler{
		projects: projects,
		cache:    reportCache,
		logger:   logger,
	}
}

// Handle invalidates the report cache of the project an event touches.
// Malformed payloads are logged and dropped; only lookup failures are
// returned so the message is retried.
func (h *CacheSyncHandler) Handle(ctx context.Context, routingKey string, raw json.RawMessage) error {
	code, err := h.projectCode(ctx, routingKey, raw)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			h.logger.Error("dropping malformed event", zap.String("routing_key", routingKey), zap.Error(err))
			return nil
		}
		return err
	}
	if code == "" {
		return nil
	}

	h.cache.Invalidate(ctx, code)
	h.logger.Debug("report cache invalidated",
		zap.String("routing_key", routingKey),
		zap.String("project_code", code),
	)
	return nil
}

func (h *CacheSyncHandler) projectCode(ctx context.Context, routingKey string, raw json.RawMessage) (string, error) {
	var projectID string

	switch {
	case strings.HasPrefix(routingKey, "project."):
		var p mq.ProjectPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", err
		}
		// project events carry the code, which also covers deletes
		return p.ProjectCode, nil
	case strings.HasPrefix(routingKey, "achievement."):
		var p mq.AchievementPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", err
		}
		projectID = p.ProjectID
	case routingKey == mq.SummarySaved:
		var p mq.SummarySavedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", err
		}
		projectID = p.ProjectID
	default:
		return "", nil
	}

	if projectID == "" {
		return "", nil
	}
	project, err := h.projects.Get(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		// 项目已删除，project.deleted 会负责失效
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve project %s: %w", projectID, err)
	}
	return project.ProjectCode, nil
}
