package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/edu-platform/edu-mgmt-api/internal/service"
	"github.com/edu-platform/edu-mgmt-api/pkg/response"
)

// ReportHandler streams rendered grade reports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// GradeReport godoc
// @Summary Download a course grade report
// @Description Renders the course's grade sheet as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Course ID"
// @Param format query string false "Report format (csv or pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/report [get]
func (h *ReportHandler) GradeReport(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))

	report, err := h.reports.GradeReport(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	c.Data(200, report.ContentType, report.Content)
}
