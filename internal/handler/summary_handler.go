package handler

import (
	"net/http"

	"seotrack/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SummaryHandler struct {
	summaries *service.SummaryService
	logger    *zap.Logger
}

func NewSummaryHandler(summaries *service.SummaryService, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, logger: logger}
}

// Get handles GET /projects/:id/summaries/:year/:month
func (h *SummaryHandler) Get(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sum, err := h.summaries.Get(c.Request.Context(), currentUser(c), c.Param("id"), year, month)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Put handles PUT /projects/:id/summaries/:year/:month
func (h *SummaryHandler) Put(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var req struct {
		Summary string `json:"summary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sum, err := h.summaries.Save(c.Request.Context(), currentUser(c), c.Param("id"), year, month, req.Summary)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
