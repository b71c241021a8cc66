package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/geotax/api/internal/errors"
	"github.com/geotax/api/internal/repository"
)

// ImportHandler handles import job inspection endpoints.
type ImportHandler struct {
	jobs repository.ImportJobRepository
}

// NewImportHandler creates a new ImportHandler instance.
func NewImportHandler(jobs repository.ImportJobRepository) *ImportHandler {
	return &ImportHandler{jobs: jobs}
}

// Get handles GET /api/v1/imports/:id.
func (h *ImportHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Import job id must be an integer", nil)
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load import job", err)
		return
	}
	if job == nil {
		apierrors.NotFound(c, "Import job not found")
		return
	}

	c.JSON(http.StatusOK, job)
}

// List handles GET /api/v1/imports, newest first.
func (h *ImportHandler) List(c *gin.Context) {
	jobs, err := h.jobs.List(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list import jobs", err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}
