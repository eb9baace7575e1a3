package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/domain"
	"alcyxob/training-calendar/internal/schedule"
	"alcyxob/training-calendar/internal/service"
)

// DropHandler serves the drag gesture endpoints: modifier tracking, drag
// start snapshots and the drop itself.
type DropHandler struct {
	calendarService service.CalendarService
	orchestrator    *schedule.Orchestrator
	trackers        *schedule.TrackerRegistry
}

// NewDropHandler creates a new DropHandler.
func NewDropHandler(
	calendarService service.CalendarService,
	orchestrator *schedule.Orchestrator,
	trackers *schedule.TrackerRegistry,
) *DropHandler {
	return &DropHandler{
		calendarService: calendarService,
		orchestrator:    orchestrator,
		trackers:        trackers,
	}
}

// --- Request/Response Structs ---

type ModifierRequest struct {
	Pressed *bool `json:"pressed" binding:"required"`
}

type ModifierResponse struct {
	Pressed bool `json:"pressed"`
}

type StartDragRequest struct {
	EventID    string `json:"eventId" binding:"required"`
	Kind       string `json:"kind" binding:"required,oneof=template training"`
	SourceDate string `json:"sourceDate" binding:"required"` // YYYY-MM-DD
	SourceTime string `json:"sourceTime" binding:"required"` // HH:MM
}

type DropRequestBody struct {
	EventID     string `json:"eventId" binding:"required"`
	Kind        string `json:"kind" binding:"required,oneof=template training"`
	SourceDate  string `json:"sourceDate" binding:"required"`
	SourceTime  string `json:"sourceTime" binding:"required"`
	TargetDate  string `json:"targetDate" binding:"required"`
	TargetTime  string `json:"targetTime" binding:"required"`
	IsDuplicate bool   `json:"isDuplicate"` // From the drag-start snapshot
}

// --- Handler Methods ---

// SetModifier godoc
// @Summary Report the duplicate-modifier key state
// @Description Records a key-down or key-up of the duplicate modifier for the session.
// @Tags Gesture
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ModifierResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /calendar/gesture/modifier [post]
func (h *DropHandler) SetModifier(c *gin.Context) {
	var req ModifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	tracker, err := h.trackerForSession(c)
	if err != nil {
		return
	}

	tracker.SetPressed(*req.Pressed)
	c.JSON(http.StatusOK, ModifierResponse{Pressed: tracker.Pressed()})
}

// StartDrag godoc
// @Summary Begin a drag gesture
// @Description Snapshots the modifier state into a drag payload. The snapshot fixes move-vs-duplicate for the whole gesture.
// @Tags Gesture
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} schedule.DragPayload
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Event not found"
// @Router /calendar/gesture/start [post]
func (h *DropHandler) StartDrag(c *gin.Context) {
	var req StartDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	event, ok := h.loadEvent(c, req.EventID, req.Kind)
	if !ok {
		return
	}

	tracker, err := h.trackerForSession(c)
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, tracker.BeginDrag(event, req.SourceDate, req.SourceTime))
}

// Drop godoc
// @Summary Complete a drag gesture
// @Description Moves or duplicates the dragged event into the target slot.
// @Tags Gesture
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} schedule.DropOutcome
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Past or cancelled training"
// @Failure 404 {object} gin.H "Event not found"
// @Failure 409 {object} gin.H "Drop in flight or trainer conflict"
// @Failure 504 {object} gin.H "Operation timed out"
// @Router /calendar/drop [post]
func (h *DropHandler) Drop(c *gin.Context) {
	var req DropRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if _, err := schedule.ParseDate(req.TargetDate); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid target date, expected YYYY-MM-DD.")
		return
	}

	event, ok := h.loadEvent(c, req.EventID, req.Kind)
	if !ok {
		return
	}

	tracker, err := h.trackerForSession(c)
	if err != nil {
		return
	}

	occupants, err := h.targetOccupants(c, req.TargetDate, req.TargetTime)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to inspect the target slot.")
		return
	}

	outcome, err := h.orchestrator.HandleDrop(c.Request.Context(), schedule.DropRequest{
		Event:           event,
		SourceDate:      req.SourceDate,
		SourceTime:      req.SourceTime,
		TargetDate:      req.TargetDate,
		TargetTime:      req.TargetTime,
		TargetOccupants: occupants,
		IsDuplicate:     req.IsDuplicate,
	}, tracker)
	if err != nil {
		h.abortWithDropError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// --- Helpers ---

// trackerForSession returns the modifier tracker of the authenticated user.
// Writes the error response itself on failure.
func (h *DropHandler) trackerForSession(c *gin.Context) (*schedule.ModifierTracker, error) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return nil, err
	}
	return h.trackers.For(userID), nil
}

// loadEvent resolves the dragged event by ID and kind. Writes the error
// response itself on failure.
func (h *DropHandler) loadEvent(c *gin.Context, rawID, kind string) (domain.CalendarEvent, bool) {
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid event ID format.")
		return nil, false
	}

	var event domain.CalendarEvent
	switch kind {
	case "template":
		tpl, err := h.calendarService.GetTemplate(c.Request.Context(), id)
		if err != nil {
			h.abortWithLookupError(c, err)
			return nil, false
		}
		event = tpl
	case "training":
		t, err := h.calendarService.GetRealTraining(c.Request.Context(), id)
		if err != nil {
			h.abortWithLookupError(c, err)
			return nil, false
		}
		event = t
	}
	return event, true
}

// targetOccupants loads the events already placed in the target slot.
func (h *DropHandler) targetOccupants(c *gin.Context, targetDate, targetTime string) ([]domain.CalendarEvent, error) {
	date, err := schedule.ParseDate(targetDate)
	if err != nil {
		return nil, err
	}
	weekStart := schedule.WeekStart(date)

	events, err := h.calendarService.WeekEvents(c.Request.Context(), weekStart)
	if err != nil {
		return nil, err
	}
	return schedule.BuildSlotMap(events, weekStart).EventsForSlot(date, domain.ShortTime(targetTime)), nil
}

func (h *DropHandler) abortWithLookupError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrTemplateNotFound) || errors.Is(err, service.ErrTrainingNotFound) {
		abortWithError(c, http.StatusNotFound, err.Error())
		return
	}
	abortWithError(c, http.StatusInternalServerError, "Failed to load event.")
}

// abortWithDropError maps orchestration failures to HTTP status codes. The
// response body carries the single user-facing message for the failure.
func (h *DropHandler) abortWithDropError(c *gin.Context, err error) {
	msg := schedule.UserMessage(err)
	switch {
	case errors.Is(err, schedule.ErrDropInFlight),
		errors.Is(err, schedule.ErrTrainerConflict):
		abortWithError(c, http.StatusConflict, msg)
	case errors.Is(err, schedule.ErrTrainingImmutable),
		errors.Is(err, service.ErrTrainingImmutable):
		abortWithError(c, http.StatusForbidden, msg)
	case errors.Is(err, schedule.ErrUnknownEventKind),
		errors.Is(err, service.ErrInvalidDayNumber):
		abortWithError(c, http.StatusBadRequest, msg)
	case errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusGatewayTimeout, msg)
	case errors.Is(err, service.ErrTrainingFull),
		errors.Is(err, service.ErrStudentAlreadyAdded):
		abortWithError(c, http.StatusConflict, msg)
	default:
		abortWithError(c, http.StatusInternalServerError, msg)
	}
}
