package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"seotrack/internal/render"
	"seotrack/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reports *service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(reports *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// Public handles GET /public/reports/:code
func (h *ReportHandler) Public(c *gin.Context) {
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

	r, err := h.reports.Public(c.Request.Context(), c.Param("code"), f, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// PublicMonth handles GET /public/reports/:code/months/:year/:month
func (h *ReportHandler) PublicMonth(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	r, err := h.reports.PublicMonth(c.Request.Context(), c.Param("code"), year, month)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// PublicExport handles GET /public/reports/:code/export
func (h *ReportHandler) PublicExport(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	wb, err := h.reports.PublicExport(c.Request.Context(), c.Param("code"), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.writeWorkbook(c, wb)
}

// Private handles GET /projects/:id/report
func (h *ReportHandler) Private(c *gin.Context) {
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

	r, err := h.reports.Private(c.Request.Context(), currentUser(c), c.Param("id"), f, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// PrivateMonth handles GET /projects/:id/report/monthly?year=&month=
func (h *ReportHandler) PrivateMonth(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if f.Year == 0 || f.Month == 0 {
		badRequest(c, "year and month are required")
		return
	}

	r, err := h.reports.PrivateMonth(c.Request.Context(), currentUser(c), c.Param("id"), f.Year, f.Month)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// PrivateExport handles GET /projects/:id/report/export
func (h *ReportHandler) PrivateExport(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	wb, err := h.reports.PrivateExport(c.Request.Context(), currentUser(c), c.Param("id"), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.writeWorkbook(c, wb)
}

// writeWorkbook renders into memory first so a failure still yields a
// clean 500.
func (h *ReportHandler) writeWorkbook(c *gin.Context, wb *render.Workbook) {
	var buf bytes.Buffer
	if err := render.WriteXLSX(&buf, *wb); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.xlsx"`, wb.ProjectCode))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
