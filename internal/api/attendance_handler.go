package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/service"
)

// AttendanceHandler serves attendance mutations on real trainings.
type AttendanceHandler struct {
	attendanceService service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// --- Request/Response Structs ---

type CancelStudentRequest struct {
	Reason     string     `json:"reason"`
	NotifiedAt *time.Time `json:"notifiedAt"` // Defaults to now
}

// --- Handler Methods ---

// MarkAbsent godoc
// @Summary Mark a student absent on a training
// @Description Transitions the student's attendance record to ABSENT.
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.RealTraining "Training with updated attendance"
// @Failure 400 {object} gin.H "Invalid ID format"
// @Failure 403 {object} gin.H "Training is past or cancelled"
// @Failure 404 {object} gin.H "Training or attendance record not found"
// @Failure 409 {object} gin.H "Attendance status does not allow it"
// @Router /calendar/trainings/{id}/students/{studentId}/absent [post]
func (h *AttendanceHandler) MarkAbsent(c *gin.Context) {
	trainingID, studentID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	training, err := h.attendanceService.MarkStudentAbsent(c.Request.Context(), trainingID, studentID)
	if err != nil {
		h.abortWithAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, training)
}

// CancelStudent godoc
// @Summary Cancel a student's attendance
// @Description Classifies the cancellation as safe or penalty based on notification time.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.CancellationResult
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Training is past or cancelled"
// @Failure 404 {object} gin.H "Training or attendance record not found"
// @Failure 409 {object} gin.H "Already cancelled"
// @Router /calendar/trainings/{id}/students/{studentId}/cancel [post]
func (h *AttendanceHandler) CancelStudent(c *gin.Context) {
	trainingID, studentID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req CancelStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	notifiedAt := time.Time{}
	if req.NotifiedAt != nil {
		notifiedAt = *req.NotifiedAt
	}

	result, err := h.attendanceService.CancelStudent(c.Request.Context(), trainingID, studentID, req.Reason, notifiedAt)
	if err != nil {
		h.abortWithAttendanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// --- Helpers ---

func (h *AttendanceHandler) pathIDs(c *gin.Context) (trainingID, studentID primitive.ObjectID, ok bool) {
	trainingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid training ID format.")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	studentID, err = primitive.ObjectIDFromHex(c.Param("studentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid student ID format.")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return trainingID, studentID, true
}

func (h *AttendanceHandler) abortWithAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTrainingNotFound),
		errors.Is(err, service.ErrAttendanceNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTrainingImmutable):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAttendanceTransition),
		errors.Is(err, service.ErrAlreadyCancelled):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
