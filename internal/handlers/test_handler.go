package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
	"github.com/quizcraft/generation-service/internal/services"
)

// maxAttachmentSize bounds an uploaded source PDF.
const maxAttachmentSize = 20 << 20

type TestHandler struct {
	testService       services.TestService
	generationService services.GenerationService
	exportService     services.ExportService
	logger            *slog.Logger
}

func NewTestHandler(
	testService services.TestService,
	generationService services.GenerationService,
	exportService services.ExportService,
	logger *slog.Logger,
) *TestHandler {
	return &TestHandler{
		testService:       testService,
		generationService: generationService,
		exportService:     exportService,
		logger:            logger,
	}
}

// Create creates a test and starts question generation
// @Summary Create test
// @Description Creates a test definition and launches an asynchronous generation job
// @Tags tests
// @Accept json,mpfd
// @Produce json
// @Success 202 {object} services.TestResponse
// @Failure 400 {object} ErrorResponse
// @Router /tests [post]
func (h *TestHandler) Create(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	req, ok := h.bindCreateRequest(c)
	if !ok {
		return
	}

	resp, err := h.testService.Create(c.Request.Context(), req, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// bindCreateRequest accepts either a plain JSON body or a multipart form
// with a "data" JSON part and an "attachment" PDF part.
func (h *TestHandler) bindCreateRequest(c *gin.Context) (*services.CreateTestRequest, bool) {
	var req services.CreateTestRequest

	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		payload := c.PostForm("data")
		if payload == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Missing data form field"})
			return nil, false
		}
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
			return nil, false
		}

		file, header, err := c.Request.FormFile("attachment")
		if err == nil {
			defer file.Close()
			if header.Size > maxAttachmentSize {
				c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Attachment too large"})
				return nil, false
			}
			data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize))
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Failed to read attachment", Details: err.Error()})
				return nil, false
			}
			req.Attachment = data
			req.AttachmentMIMEType = header.Header.Get("Content-Type")
			if req.AttachmentMIMEType == "" {
				req.AttachmentMIMEType = "application/pdf"
			}
		}
		return &req, true
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return nil, false
	}
	return &req, true
}

// Get returns a test by ID
// @Summary Get test
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} models.Test
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id} [get]
func (h *TestHandler) Get(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	test, err := h.testService.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// List returns tests with optional filters
// @Summary List tests
// @Tags tests
// @Produce json
// @Success 200 {object} services.TestListResponse
// @Router /tests [get]
func (h *TestHandler) List(c *gin.Context) {
	var filters repositories.TestFilters

	if category := c.Query("category"); category != "" {
		cat := models.TestCategory(category)
		filters.Category = &cat
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		filters.CreatedBy = &createdBy
	}
	filters.Limit = queryInt(c, "limit", 20)
	filters.Offset = queryInt(c, "offset", 0)
	filters.SortBy = c.Query("sort_by")
	filters.SortOrder = c.Query("sort_order")

	resp, err := h.testService.List(c.Request.Context(), filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateQuestions replaces the test's question array
// @Summary Replace test questions
// @Tags tests
// @Accept json
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} models.Test
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/questions [put]
func (h *TestHandler) UpdateQuestions(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	test, err := h.testService.UpdateQuestions(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// Delete removes a test
// @Summary Delete test
// @Tags tests
// @Param id path uint true "Test ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id} [delete]
func (h *TestHandler) Delete(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.testService.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Regenerate starts a fresh generation job for a test
// @Summary Regenerate questions
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 202 {object} models.GenerationJob
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tests/{id}/regenerate [post]
func (h *TestHandler) Regenerate(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	job, err := h.generationService.Regenerate(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// GenerationStatus returns the latest generation job for a test
// @Summary Generation status for test
// @Tags generation
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.JobStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/generation [get]
func (h *TestHandler) GenerationStatus(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	status, err := h.generationService.GetLatestJob(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// JobStatus returns one generation job by ID
// @Summary Generation job status
// @Tags generation
// @Produce json
// @Param id path uint true "Job ID"
// @Success 200 {object} services.JobStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /generation-jobs/{id} [get]
func (h *TestHandler) JobStatus(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	status, err := h.generationService.GetJobStatus(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ExportQuestions downloads the question set as an Excel file
// @Summary Export questions
// @Tags tests
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Test ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/export/questions [get]
func (h *TestHandler) ExportQuestions(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	data, err := h.exportService.ExportQuestionsToExcel(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="questions.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if v := c.Query(name); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			return n
		}
	}
	return fallback
}
