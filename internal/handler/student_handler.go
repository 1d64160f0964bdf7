package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-record-api/internal/dto"
	"github.com/noah-isme/academic-record-api/internal/models"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
	"github.com/noah-isme/academic-record-api/pkg/response"
)

type studentQueries interface {
	Initialize(ctx context.Context, userID string) (*dto.StudentSummary, error)
	Summary(ctx context.Context, userID string) (*dto.StudentSummary, bool, error)
	History(ctx context.Context, userID string) ([]models.SemesterRecord, bool, error)
	Semester(ctx context.Context, userID string, number int) (*models.SemesterRecord, error)
}

type advisorContexts interface {
	Context(ctx context.Context, userID string) (*dto.AdvisorContext, bool, error)
}

// StudentHandler serves the student record read surface.
type StudentHandler struct {
	students studentQueries
	advisor  advisorContexts
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(students studentQueries, advisor advisorContexts) *StudentHandler {
	return &StudentHandler{students: students, advisor: advisor}
}

// Initialize godoc
// @Summary Initialise the student record
// @Tags Students
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/me/record [post]
func (h *StudentHandler) Initialize(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.students.Initialize(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, summary)
}

// Summary godoc
// @Summary Current semester, active subject count and CGPA
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me [get]
func (h *StudentHandler) Summary(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, hit, err := h.students.Summary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, cacheMeta(c, hit))
}

// History godoc
// @Summary Completed semesters in ascending order
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me/history [get]
func (h *StudentHandler) History(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	history, hit, err := h.students.History(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, cacheMeta(c, hit))
}

// Semester godoc
// @Summary One completed semester
// @Tags Students
// @Produce json
// @Param semester path int true "Semester number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/me/history/{semester} [get]
func (h *StudentHandler) Semester(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	number, err := strconv.Atoi(c.Param("semester"))
	if err != nil || number < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a positive integer"))
		return
	}
	semester, err := h.students.Semester(c.Request.Context(), userID, number)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester)
}

// AdvisorContext godoc
// @Summary Read-only snapshot for the advisory collaborator
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me/advisor-context [get]
func (h *StudentHandler) AdvisorContext(c *gin.Context) {
	userID, err := studentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	snapshot, fromSnapshot, err := h.advisor.Context(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, cacheMeta(c, fromSnapshot))
}
