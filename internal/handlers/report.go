package handlers

import (
	"net/http"

	"agora/internal/models"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req services.ReportInput
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.reports.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context(), models.ReportStatus(c.Query("report_status")))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Review 处理举报：?status=&resolution=&action=delete|dismiss
func (h *ReportHandler) Review(c *gin.Context) {
	review := services.ReportReview{
		Status:     models.ReportStatus(c.Query("status")),
		Resolution: c.Query("resolution"),
		Action:     c.Query("action"),
	}
	report, err := h.reports.Review(c.Request.Context(), currentUser(c), c.Param("id"), review)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
