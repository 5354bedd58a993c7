package handler

import (
	"net/http"

	"seotrack/internal/model"
	"seotrack/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AchievementHandler struct {
	achievements *service.AchievementService
	logger       *zap.Logger
}

func NewAchievementHandler(achievements *service.AchievementService, logger *zap.Logger) *AchievementHandler {
	return &AchievementHandler{achievements: achievements, logger: logger}
}

// ListByProject handles GET /projects/:id/achievements
func (h *AchievementHandler) ListByProject(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	page, err := parsePage(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	list, err := h.achievements.ListProject(c.Request.Context(), currentUser(c), c.Param("id"), f, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListMine handles GET /achievements, the dashboard across every project
// of the caller.
func (h *AchievementHandler) ListMine(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	page, err := parsePage(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	list, err := h.achievements.ListUser(c.Request.Context(), currentUser(c), f, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create handles POST /projects/:id/achievements
func (h *AchievementHandler) Create(c *gin.Context) {
	var in model.AchievementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	rec, err := h.achievements.Create(c.Request.Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Update handles PATCH /achievements/:id
func (h *AchievementHandler) Update(c *gin.Context) {
	var u model.AchievementUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	rec, err := h.achievements.Update(c.Request.Context(), currentUser(c), c.Param("id"), u)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /achievements/:id
func (h *AchievementHandler) Delete(c *gin.Context) {
	if err := h.achievements.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
