package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizcraft/generation-service/internal/services"
)

type HandlerManager struct {
	testHandler       *TestHandler
	submissionHandler *SubmissionHandler
}

func NewHandlerManager(
	testService services.TestService,
	generationService services.GenerationService,
	submissionService services.SubmissionService,
	gradingService services.GradingService,
	exportService services.ExportService,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		testHandler:       NewTestHandler(testService, generationService, exportService, logger),
		submissionHandler: NewSubmissionHandler(submissionService, gradingService, exportService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "generation-service",
		})
	})

	v1 := router.Group("/api/v1")
	{
		tests := v1.Group("/tests")
		{
			tests.POST("", hm.testHandler.Create)
			tests.GET("", hm.testHandler.List)
			tests.GET("/:id", hm.testHandler.Get)
			tests.DELETE("/:id", hm.testHandler.Delete)
			tests.PUT("/:id/questions", hm.testHandler.UpdateQuestions)
			tests.POST("/:id/regenerate", hm.testHandler.Regenerate)
			tests.GET("/:id/generation", hm.testHandler.GenerationStatus)
			tests.GET("/:id/export/questions", hm.testHandler.ExportQuestions)

			tests.GET("/:id/submissions", hm.submissionHandler.ListByTest)
			tests.GET("/:id/grading/pending", hm.submissionHandler.ListPendingGrading)
			tests.GET("/:id/export/results", hm.submissionHandler.ExportResults)
		}

		v1.GET("/generation-jobs/:id", hm.testHandler.JobStatus)

		submissions := v1.Group("/submissions")
		{
			submissions.POST("", hm.submissionHandler.Submit)
			submissions.GET("/:id", hm.submissionHandler.Get)
			submissions.POST("/:id/grades", hm.submissionHandler.GradeEssay)
		}
	}
}
