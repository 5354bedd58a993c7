package handler

import (
	"errors"
	"net/http"
	"strconv"

	"seotrack/internal/report"
	"seotrack/internal/service"
	"seotrack/pkg/logger"
	"seotrack/pkg/outbox"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys set on the gin context by the auth middleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// respondError maps service errors to a status and a JSON error body.
// Only unexpected errors are logged.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound), errors.Is(err, outbox.ErrEventNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrEmailTaken):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	}

	if status == http.StatusInternalServerError {
		logger.WithTrace(c.Request.Context(), log).Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// currentUser returns the authenticated user id; handlers behind the auth
// middleware can rely on it being present.
func currentUser(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// parseFilter reads the year, month, title, completion and live query
// parameters.
func parseFilter(c *gin.Context) (report.Filter, error) {
	f, err := report.ParseFilter(
		c.Query("year"),
		c.Query("month"),
		c.Query("title"),
		c.Query("completion"),
		c.Query("live"),
	)
	if err != nil {
		return report.Filter{}, &service.ValidationError{Field: "filter", Message: err.Error()}
	}
	return f, nil
}

// parsePage reads ?page=; missing means 1. Out-of-range pages are clamped
// later by the paginator.
func parsePage(c *gin.Context) (int, error) {
	raw := c.Query("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.ValidationError{Field: "page", Message: "must be an integer"}
	}
	return page, nil
}

func parseYearMonth(c *gin.Context) (int, int, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return 0, 0, &service.ValidationError{Field: "year", Message: "must be an integer"}
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		return 0, 0, &service.ValidationError{Field: "month", Message: "must be an integer"}
	}
	return year, month, nil
}
