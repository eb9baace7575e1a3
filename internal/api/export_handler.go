package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/schedule"
	"alcyxob/training-calendar/internal/service"
)

// ExportHandler serves weekly schedule exports.
type ExportHandler struct {
	exportService service.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportWeek godoc
// @Summary Export a week's trainings as ICS
// @Description Builds an ICS snapshot of the week, stores it and returns a presigned download URL.
// @Tags Export
// @Produce json
// @Security BearerAuth
// @Param start query string false "Any date inside the week (YYYY-MM-DD, default today)"
// @Success 200 {object} service.WeekExport
// @Failure 400 {object} gin.H "Invalid date"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /calendar/export/week [get]
func (h *ExportHandler) ExportWeek(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("start"); raw != "" {
		parsed, err := schedule.ParseDate(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid start date, expected YYYY-MM-DD.")
			return
		}
		date = parsed
	}

	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return
	}

	export, err := h.exportService.ExportWeek(c.Request.Context(), date, userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to export week.")
		return
	}

	c.JSON(http.StatusOK, export)
}
