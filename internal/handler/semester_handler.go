package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-record-api/internal/dto"
	"github.com/noah-isme/academic-record-api/internal/models"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
	"github.com/noah-isme/academic-record-api/pkg/response"
)

type semesterEngine interface {
	Complete(ctx context.Context, userID string, grades map[string]string) (*models.SemesterRecord, error)
}

// SemesterHandler handles semester completion.
type SemesterHandler struct {
	service semesterEngine
}

// NewSemesterHandler constructs a semester handler.
func NewSemesterHandler(svc semesterEngine) *SemesterHandler {
	return &SemesterHandler{service: svc}
}

// Complete godoc
// @Summary Grade every open subject and archive the semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body dto.CompleteSemesterRequest true "Course code to grade symbol"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /users/me/complete-semester [post]
func (h *SemesterHandler) Complete(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CompleteSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "grades must be an object of course code to grade"))
		return
	}
	semester, err := h.service.Complete(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}
