package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
	"github.com/quizcraft/generation-service/internal/services"
)

type SubmissionHandler struct {
	submissionService services.SubmissionService
	gradingService    services.GradingService
	exportService     services.ExportService
	logger            *slog.Logger
}

func NewSubmissionHandler(
	submissionService services.SubmissionService,
	gradingService services.GradingService,
	exportService services.ExportService,
	logger *slog.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		gradingService:    gradingService,
		exportService:     exportService,
		logger:            logger,
	}
}

// Submit records a learner's answers and scores them
// @Summary Submit answers
// @Tags submissions
// @Accept json
// @Produce json
// @Success 201 {object} models.Submission
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// Get returns one submission
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	submission, err := h.submissionService.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListByTest lists submissions for a test
// @Summary List submissions
// @Tags submissions
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.SubmissionListResponse
// @Router /tests/{id}/submissions [get]
func (h *SubmissionHandler) ListByTest(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var filters repositories.SubmissionFilters
	if userID := c.Query("user_id"); userID != "" {
		filters.UserID = &userID
	}
	if status := c.Query("grading_status"); status != "" {
		gs := models.GradingStatus(status)
		filters.GradingStatus = &gs
	}
	filters.Limit = queryInt(c, "limit", 20)
	filters.Offset = queryInt(c, "offset", 0)

	resp, err := h.submissionService.ListByTest(c.Request.Context(), id, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GradeEssay records a manual grade for an essay question
// @Summary Grade essay
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/grades [post]
func (h *SubmissionHandler) GradeEssay(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	graderID := currentUserID(c)
	if graderID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	var req services.GradeEssayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	submission, err := h.gradingService.GradeEssay(c.Request.Context(), id, &req, graderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListPendingGrading lists submissions awaiting manual grading
// @Summary List pending grading
// @Tags grading
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.SubmissionListResponse
// @Router /tests/{id}/grading/pending [get]
func (h *SubmissionHandler) ListPendingGrading(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var filters repositories.SubmissionFilters
	filters.Limit = queryInt(c, "limit", 20)
	filters.Offset = queryInt(c, "offset", 0)

	resp, err := h.gradingService.ListPending(c.Request.Context(), id, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportResults downloads all submission results for a test as Excel
// @Summary Export results
// @Tags submissions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Test ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/export/results [get]
func (h *SubmissionHandler) ExportResults(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	data, err := h.exportService.ExportResultsToExcel(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="results.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
