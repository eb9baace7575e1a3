package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/domain"
	"alcyxob/training-calendar/internal/schedule"
	"alcyxob/training-calendar/internal/service"
)

// CalendarHandler serves the week view and event management endpoints.
type CalendarHandler struct {
	calendarService service.CalendarService
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(calendarService service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// --- Request/Response Structs ---

// EventResponse is the calendar cell representation of one event.
type EventResponse struct {
	ID           string                 `json:"id"`
	Kind         string                 `json:"kind"` // "template" or "training"
	Date         string                 `json:"date"` // Placement in the displayed week
	DayNumber    int                    `json:"dayNumber,omitempty"`
	StartTime    string                 `json:"startTime"` // HH:MM
	TrainingType domain.TrainingTypeRef `json:"trainingType"`
	TrainerID    string                 `json:"trainerId"`
	Status       domain.TrainingStatus  `json:"status,omitempty"`
	StudentCount int                    `json:"studentCount"`
	Capacity     schedule.Capacity      `json:"capacity"`
	CanModify    bool                   `json:"canModify"`
}

// WeekResponse maps slot keys ("{date}-{HH:MM}") to the events occupying them.
type WeekResponse struct {
	WeekStart string                     `json:"weekStart"`
	Slots     map[string][]EventResponse `json:"slots"`
}

type CreateTrainingTypeRequest struct {
	Name            string `json:"name" binding:"required"`
	Color           string `json:"color"`
	MaxParticipants int    `json:"maxParticipants" binding:"min=0"`
}

type CreateTemplateRequest struct {
	DayNumber      int    `json:"dayNumber" binding:"required,min=1,max=7"`
	StartTime      string `json:"startTime" binding:"required"` // HH:MM or HH:MM:SS
	TrainingTypeID string `json:"trainingTypeId" binding:"required"`
	TrainerID      string `json:"trainerId" binding:"required"`
}

type CreateTrainingRequest struct {
	TrainingDate   string `json:"trainingDate" binding:"required"` // YYYY-MM-DD
	StartTime      string `json:"startTime" binding:"required"`
	TrainingTypeID string `json:"trainingTypeId" binding:"required"`
	TrainerID      string `json:"trainerId" binding:"required"`
	TemplateID     string `json:"templateId"`
}

type AddStudentRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	StartDate string `json:"startDate"` // Templates only; defaults to today
}

type CreatedResponse struct {
	ID string `json:"id"`
}

// --- Handler Methods ---

// GetWeek godoc
// @Summary Get the weekly calendar grid
// @Description Returns all events of the week containing ?start, bucketed by slot.
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param start query string false "Any date inside the week (YYYY-MM-DD, default today)"
// @Success 200 {object} WeekResponse
// @Failure 400 {object} gin.H "Invalid date"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /calendar/week [get]
func (h *CalendarHandler) GetWeek(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("start"); raw != "" {
		parsed, err := schedule.ParseDate(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid start date, expected YYYY-MM-DD.")
			return
		}
		date = parsed
	}
	weekStart := schedule.WeekStart(date)

	events, err := h.calendarService.WeekEvents(c.Request.Context(), weekStart)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load week events.")
		return
	}

	slotMap := schedule.BuildSlotMap(events, weekStart)
	now := time.Now().UTC()

	resp := WeekResponse{
		WeekStart: weekStart.Format(domain.DateLayout),
		Slots:     make(map[string][]EventResponse, len(slotMap)),
	}
	for key, slotEvents := range slotMap {
		cell := make([]EventResponse, 0, len(slotEvents))
		for _, e := range slotEvents {
			cell = append(cell, mapEventToResponse(e, weekStart, now))
		}
		resp.Slots[key] = cell
	}

	c.JSON(http.StatusOK, resp)
}

// ListTrainingTypes godoc
// @Summary List training types
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.TrainingType
// @Router /calendar/training-types [get]
func (h *CalendarHandler) ListTrainingTypes(c *gin.Context) {
	types, err := h.calendarService.GetTrainingTypes(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load training types.")
		return
	}
	if types == nil {
		types = []domain.TrainingType{}
	}
	c.JSON(http.StatusOK, types)
}

// CreateTrainingType godoc
// @Summary Create a training type
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} CreatedResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /calendar/training-types [post]
func (h *CalendarHandler) CreateTrainingType(c *gin.Context) {
	var req CreateTrainingTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	id, err := h.calendarService.CreateTrainingType(c.Request.Context(), &domain.TrainingType{
		Name:            req.Name,
		Color:           req.Color,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create training type.")
		return
	}

	c.JSON(http.StatusCreated, CreatedResponse{ID: id.Hex()})
}

// CreateTemplate godoc
// @Summary Create a recurring template slot
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} CreatedResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Trainer or training type not found"
// @Router /calendar/templates [post]
func (h *CalendarHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	typeID, err := primitive.ObjectIDFromHex(req.TrainingTypeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid training type ID format.")
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainer ID format.")
		return
	}

	id, err := h.calendarService.CreateTemplate(c.Request.Context(), &domain.TrainingTemplate{
		DayNumber:    req.DayNumber,
		StartTime:    domain.NormalizeTime(req.StartTime),
		TrainingType: domain.TrainingTypeRef{ID: typeID},
		TrainerID:    trainerID,
	})
	if err != nil {
		h.abortWithCalendarError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreatedResponse{ID: id.Hex()})
}

// CreateTraining godoc
// @Summary Create a dated training
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} CreatedResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Trainer or training type not found"
// @Router /calendar/trainings [post]
func (h *CalendarHandler) CreateTraining(c *gin.Context) {
	var req CreateTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	typeID, err := primitive.ObjectIDFromHex(req.TrainingTypeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid training type ID format.")
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainer ID format.")
		return
	}

	training := &domain.RealTraining{
		TrainingDate: req.TrainingDate,
		StartTime:    domain.NormalizeTime(req.StartTime),
		TrainingType: domain.TrainingTypeRef{ID: typeID},
		TrainerID:    trainerID,
		Status:       domain.TrainingPlanned,
	}
	if req.TemplateID != "" {
		templateID, err := primitive.ObjectIDFromHex(req.TemplateID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid template ID format.")
			return
		}
		training.TemplateID = &templateID
	}

	id, err := h.calendarService.CreateRealTraining(c.Request.Context(), training)
	if err != nil {
		h.abortWithCalendarError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreatedResponse{ID: id.Hex()})
}

// AddStudentToTemplate godoc
// @Summary Assign a student to a recurring template slot
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H "Template or student not found"
// @Failure 409 {object} gin.H "Training full or student already assigned"
// @Router /calendar/templates/{id}/students [post]
func (h *CalendarHandler) AddStudentToTemplate(c *gin.Context) {
	templateID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template ID format.")
		return
	}

	var req AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	studentID, err := primitive.ObjectIDFromHex(req.StudentID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid student ID format.")
		return
	}

	if err := h.calendarService.AddStudentToTemplate(c.Request.Context(), templateID, studentID, req.StartDate); err != nil {
		h.abortWithCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student assigned to template."})
}

// AddStudentToTraining godoc
// @Summary Register a student on a dated training
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H "Training or student not found"
// @Failure 409 {object} gin.H "Training full or student already registered"
// @Router /calendar/trainings/{id}/students [post]
func (h *CalendarHandler) AddStudentToTraining(c *gin.Context) {
	trainingID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid training ID format.")
		return
	}

	var req AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	studentID, err := primitive.ObjectIDFromHex(req.StudentID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid student ID format.")
		return
	}

	if err := h.calendarService.AddStudentToRealTraining(c.Request.Context(), trainingID, studentID); err != nil {
		h.abortWithCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student registered on training."})
}

// --- Helpers ---

// abortWithCalendarError maps calendar service errors to HTTP status codes.
func (h *CalendarHandler) abortWithCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrTrainingNotFound),
		errors.Is(err, service.ErrTrainerNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrTrainingTypeNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotTrainer),
		errors.Is(err, service.ErrNotStudent),
		errors.Is(err, service.ErrTrainingImmutable):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTrainingFull),
		errors.Is(err, service.ErrStudentAlreadyAdded):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidDayNumber):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

// mapEventToResponse converts a calendar event to its cell DTO.
func mapEventToResponse(e domain.CalendarEvent, weekStart time.Time, now time.Time) EventResponse {
	switch t := e.(type) {
	case *domain.TrainingTemplate:
		return EventResponse{
			ID:           t.ID.Hex(),
			Kind:         "template",
			Date:         schedule.DateForDay(weekStart, t.DayNumber).Format(domain.DateLayout),
			DayNumber:    t.DayNumber,
			StartTime:    t.EventStartTime(),
			TrainingType: t.TrainingType,
			TrainerID:    t.TrainerID.Hex(),
			StudentCount: len(t.AssignedStudents),
			Capacity:     schedule.CalculateCapacity(len(t.AssignedStudents), t.TrainingType.MaxParticipants),
			CanModify:    schedule.CanModifyTraining(t, now),
		}
	case *domain.RealTraining:
		return EventResponse{
			ID:           t.ID.Hex(),
			Kind:         "training",
			Date:         t.TrainingDate,
			StartTime:    t.EventStartTime(),
			TrainingType: t.TrainingType,
			TrainerID:    t.TrainerID.Hex(),
			Status:       t.Status,
			StudentCount: t.ActiveStudentCount(),
			Capacity:     schedule.CalculateCapacity(t.ActiveStudentCount(), t.TrainingType.MaxParticipants),
			CanModify:    schedule.CanModifyTraining(t, now),
		}
	default:
		return EventResponse{}
	}
}
