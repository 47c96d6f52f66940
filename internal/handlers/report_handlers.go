package handlers

import (
	"fmt"
	"net/http"
	"time"

	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report and document services.
type ReportHandler struct {
	reportService   services.ReportService
	documentService services.DocumentService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService, ds services.DocumentService) *ReportHandler {
	return &ReportHandler{reportService: rs, documentService: ds}
}

// parseDateRange reads from/to query params (YYYY-MM-DD). A missing range
// defaults to the last 30 days; the to date is extended to end of day so a
// single-day range covers the whole day.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid from date. Use YYYY-MM-DD.", err.Error()))
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid to date. Use YYYY-MM-DD.", err.Error()))
			return time.Time{}, time.Time{}, false
		}
		to = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if to.Before(from) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date range.", "'to' must not be before 'from'"))
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// GetSalesReport returns the aggregated sales report for a date range.
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetSalesReport(from, to)
	if err != nil {
		utils.LogError(err, "GetSalesReport: Error from reportService.GetSalesReport")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build sales report.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportSalesReportPDF streams the sales report as a PDF document.
func (h *ReportHandler) ExportSalesReportPDF(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetSalesReport(from, to)
	if err != nil {
		utils.LogError(err, "ExportSalesReportPDF: Error from reportService.GetSalesReport")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build sales report.", "Internal error"))
		return
	}

	pdfBytes, err := h.documentService.RenderReportPDF(report)
	if err != nil {
		utils.LogError(err, "ExportSalesReportPDF: Error rendering report PDF")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to render report PDF.", "Internal error"))
		return
	}

	filename := fmt.Sprintf("sales-report-%s-%s.pdf", from.Format("2006-01-02"), to.Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// ExportSalesReportCSV streams the sales report as CSV.
func (h *ReportHandler) ExportSalesReportCSV(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetSalesReport(from, to)
	if err != nil {
		utils.LogError(err, "ExportSalesReportCSV: Error from reportService.GetSalesReport")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build sales report.", "Internal error"))
		return
	}

	csvBytes, err := h.documentService.RenderReportCSV(report)
	if err != nil {
		utils.LogError(err, "ExportSalesReportCSV: Error rendering report CSV")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to render report CSV.", "Internal error"))
		return
	}

	filename := fmt.Sprintf("sales-report-%s-%s.csv", from.Format("2006-01-02"), to.Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", csvBytes)
}

// GetDashboardSummary returns the landing-page metrics.
func (h *ReportHandler) GetDashboardSummary(c *gin.Context) {
	summary, err := h.reportService.GetDashboardSummary()
	if err != nil {
		utils.LogError(err, "GetDashboardSummary: Error from reportService.GetDashboardSummary")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build dashboard summary.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, summary)
}
