package api

import (
	"net/http"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/service"
	"github.com/gin-gonic/gin"
)

// Services bundles what the routes depend on.
type Services struct {
	Auth        service.AuthService
	Plans       service.PlanService
	Submissions service.SubmissionService
	Messages    service.MessageService
	Users       service.UserService
}

func SetupRoutes(router *gin.Engine, svc Services, maxUploadBytes int64) {
	authHandler := NewAuthHandler(svc.Auth)
	sessionHandler := NewSessionHandler(svc.Submissions, maxUploadBytes)
	submissionHandler := NewSubmissionHandler(svc.Submissions)
	planHandler := NewPlanHandler(svc.Plans)
	messageHandler := NewMessageHandler(svc.Messages)
	userHandler := NewUserHandler(svc.Users)

	authMiddleware := AuthMiddleware(svc.Auth)

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
		protected.GET("/me", userHandler.Me)
		protected.DELETE("/me", userHandler.DeleteMe)

		// --- Exercise catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", planHandler.ListExercises)
			exerciseGroup.POST("", RoleMiddleware(domain.RoleCoach, domain.RoleAdmin), planHandler.CreateExercise)
		}

		// --- Submissions (visibility decided per role in the service) ---
		submissionGroup := protected.Group("/submissions")
		{
			submissionGroup.GET("", submissionHandler.List)
			submissionGroup.GET("/:submissionId", submissionHandler.Get)
			submissionGroup.GET("/:submissionId/videos/:index", submissionHandler.ResolveVideo)
			submissionGroup.POST("/:submissionId/videos/delete", submissionHandler.DeleteVideo)
		}

		// --- Messages ---
		messageGroup := protected.Group("/messages")
		{
			messageGroup.GET("", messageHandler.List)
			messageGroup.POST("", messageHandler.Send)
			messageGroup.POST("/read", messageHandler.MarkRead)
		}

		// --- Trainee routes ---
		traineeGroup := protected.Group("/trainee")
		traineeGroup.Use(RoleMiddleware(domain.RoleTrainee))
		{
			traineeGroup.GET("/plan", planHandler.GetMyPlan)

			traineeGroup.POST("/sessions", sessionHandler.Start)
			traineeGroup.GET("/sessions/:draftId", sessionHandler.Get)
			traineeGroup.PATCH("/sessions/:draftId", sessionHandler.Update)
			traineeGroup.DELETE("/sessions/:draftId", sessionHandler.Discard)
			traineeGroup.POST("/sessions/:draftId/media", sessionHandler.AddMedia)
			traineeGroup.DELETE("/sessions/:draftId/media/:itemId", sessionHandler.RemoveMedia)
			traineeGroup.POST("/sessions/:draftId/finalize", sessionHandler.Finalize)

			// Re-open a PENDING submission as a draft
			traineeGroup.POST("/submissions/:submissionId/edit", sessionHandler.Edit)
		}

		// --- Coach routes (admins act as any coach) ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach, domain.RoleAdmin))
		{
			coachGroup.GET("/trainees", userHandler.List)
			coachGroup.GET("/trainees/:traineeId/plan", planHandler.GetTraineePlan)
			coachGroup.PUT("/trainees/:traineeId/plan", planHandler.SavePlan)
			coachGroup.POST("/submissions/:submissionId/review", submissionHandler.Review)
		}

		// --- Admin routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/users", userHandler.List)
			adminGroup.PUT("/users/:userId/coach", userHandler.AssignCoach)
			adminGroup.PUT("/users/:userId/role", userHandler.SetRole)
			adminGroup.DELETE("/users/:userId", userHandler.Delete)
		}
	}
}
