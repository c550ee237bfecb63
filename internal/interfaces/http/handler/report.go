package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apprevenue "github.com/revreport/backend/internal/application/revenue"
	"github.com/revreport/backend/internal/infrastructure/logger"
	"github.com/revreport/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ReportGenerator produces the per-product revenue report.
type ReportGenerator interface {
	Generate(ctx context.Context, q apprevenue.ReportQuery) *apprevenue.ReportDTO
}

// ReportExporter flattens a report into CSV.
type ReportExporter interface {
	Export(report *apprevenue.ReportDTO, w io.Writer) error
}

// ReportHandler handles revenue report API endpoints
type ReportHandler struct {
	reports  ReportGenerator
	exporter ReportExporter
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports ReportGenerator, exporter ReportExporter) *ReportHandler {
	return &ReportHandler{reports: reports, exporter: exporter}
}

// RegisterRoutes registers report routes on the API group
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/revenue", h.GetRevenueReport)
		reports.GET("/revenue/export", h.ExportRevenueReport)
	}
}

// GetRevenueReport returns the per-product revenue report for the requested
// period. The report never fails outward; upstream feed failures degrade to
// an empty-but-valid report.
func (h *ReportHandler) GetRevenueReport(c *gin.Context) {
	var query apprevenue.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_QUERY", err.Error()))
		return
	}

	report := h.reports.Generate(c.Request.Context(), query)
	c.JSON(http.StatusOK, dto.NewSuccessResponse(report))
}

// ExportRevenueReport streams the report as a CSV attachment, one row per
// payer aggregate.
func (h *ReportHandler) ExportRevenueReport(c *gin.Context) {
	var query apprevenue.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_QUERY", err.Error()))
		return
	}

	report := h.reports.Generate(c.Request.Context(), query)

	filename := fmt.Sprintf("revenue_%s_%s.csv", report.Filters.DateFrom, report.Filters.DateTo)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := h.exporter.Export(report, c.Writer); err != nil {
		// Headers are already written; log and abort the stream.
		logger.GetGinLogger(c).Error("csv export failed",
			zap.String("from", report.Filters.DateFrom),
			zap.String("to", report.Filters.DateTo),
			zap.Error(err),
		)
		c.Abort()
	}
}
