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

type subjectCatalog interface {
	List(ctx context.Context, userID string) ([]models.Subject, error)
	Add(ctx context.Context, userID string, req dto.AddSubjectRequest) (*models.Subject, error)
	Remove(ctx context.Context, userID, code string) error
}

// SubjectHandler handles open semester subject endpoints.
type SubjectHandler struct {
	service subjectCatalog
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(svc subjectCatalog) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// List godoc
// @Summary List open subjects
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me/subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	subjects, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects)
}

// Add godoc
// @Summary Enroll a subject in the open semester
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body dto.AddSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/me/subjects [post]
func (h *SubjectHandler) Add(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AddSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.Add(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Remove godoc
// @Summary Drop an open subject
// @Tags Subjects
// @Param code path string true "Course code"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /users/me/subjects/{code} [delete]
func (h *SubjectHandler) Remove(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Remove(c.Request.Context(), userID, c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
