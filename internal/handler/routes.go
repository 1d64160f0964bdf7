package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-record-api/internal/middleware"
	"github.com/noah-isme/academic-record-api/internal/models"
)

// Handlers groups the record API handlers. Transcript may be nil when exports are disabled.
type Handlers struct {
	Students   *StudentHandler
	Subjects   *SubjectHandler
	Semesters  *SemesterHandler
	Transcript *TranscriptHandler
}

// RegisterRecordRoutes mounts the student record endpoints on group. The caller
// attaches authentication before calling. Only student and advisor tokens reach
// the handlers.
func RegisterRecordRoutes(group *gin.RouterGroup, h Handlers) {
	me := group.Group("/users/me", middleware.RequireRoles(models.RoleStudent, models.RoleAdvisor))
	me.GET("", h.Students.Summary)
	me.POST("/record", h.Students.Initialize)
	me.GET("/history", h.Students.History)
	me.GET("/history/:semester", h.Students.Semester)
	me.GET("/advisor-context", h.Students.AdvisorContext)

	me.GET("/subjects", h.Subjects.List)
	me.POST("/subjects", h.Subjects.Add)
	me.DELETE("/subjects/:code", h.Subjects.Remove)

	me.POST("/complete-semester", h.Semesters.Complete)

	if h.Transcript != nil {
		me.GET("/transcript", h.Transcript.Download)
	}
}
