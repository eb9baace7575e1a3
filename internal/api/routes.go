package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alcyxob/training-calendar/internal/domain"
	"alcyxob/training-calendar/internal/schedule"
	"alcyxob/training-calendar/internal/service"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	calendarService service.CalendarService,
	attendanceService service.AttendanceService,
	exportService service.ExportService,
	orchestrator *schedule.Orchestrator,
	trackers *schedule.TrackerRegistry,
) {

	authHandler := NewAuthHandler(authService)
	calendarHandler := NewCalendarHandler(calendarService)
	dropHandler := NewDropHandler(calendarService, orchestrator, trackers)
	attendanceHandler := NewAttendanceHandler(attendanceService)
	exportHandler := NewExportHandler(exportService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Calendar Routes ---
		calendarGroup := protected.Group("/calendar")
		{
			// Any authenticated role may read the grid and export it.
			calendarGroup.GET("/week", calendarHandler.GetWeek)
			calendarGroup.GET("/training-types", calendarHandler.ListTrainingTypes)
			calendarGroup.GET("/export/week", exportHandler.ExportWeek)

			// Only admins and trainers may reshape the calendar.
			manage := RoleMiddleware(domain.RoleAdmin, domain.RoleTrainer)

			calendarGroup.POST("/training-types", RoleMiddleware(domain.RoleAdmin), calendarHandler.CreateTrainingType)

			calendarGroup.POST("/templates", manage, calendarHandler.CreateTemplate)
			calendarGroup.POST("/templates/:id/students", manage, calendarHandler.AddStudentToTemplate)

			calendarGroup.POST("/trainings", manage, calendarHandler.CreateTraining)
			calendarGroup.POST("/trainings/:id/students", manage, calendarHandler.AddStudentToTraining)

			// --- Drag Gesture Routes ---
			calendarGroup.POST("/gesture/modifier", manage, dropHandler.SetModifier)
			calendarGroup.POST("/gesture/start", manage, dropHandler.StartDrag)
			calendarGroup.POST("/drop", manage, dropHandler.Drop)

			// --- Attendance Routes ---
			calendarGroup.POST("/trainings/:id/students/:studentId/absent", manage, attendanceHandler.MarkAbsent)
			calendarGroup.POST("/trainings/:id/students/:studentId/cancel", manage, attendanceHandler.CancelStudent)
		}
	}
}
