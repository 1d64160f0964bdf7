package dto

import (
	"time"

	"github.com/noah-isme/academic-record-api/internal/models"
)

// AddSubjectRequest enrolls a subject in the open semester.
type AddSubjectRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Code    string `json:"code" validate:"required,max=20"`
	Credits int    `json:"credits"`
}

// CompleteSemesterRequest maps course code to grade symbol, e.g. {"CS101": "A"}.
type CompleteSemesterRequest map[string]string

// StudentSummary is the single consistent read the dashboard polls after any change.
// CGPA is null until a semester has been completed.
type StudentSummary struct {
	UserID                string   `json:"user_id"`
	CurrentSemesterNumber int      `json:"current_semester_number"`
	ActiveSubjectCount    int      `json:"active_subject_count"`
	CGPA                  *float64 `json:"cgpa"`
	CumulativeCredits     int      `json:"cumulative_credits"`
	CompletedSemesters    int      `json:"completed_semesters"`
	Version               int64    `json:"version"`
}

// AdvisorContext is the read-only snapshot handed to the advisory chat collaborator.
type AdvisorContext struct {
	UserID                string                  `json:"user_id"`
	CurrentSemesterNumber int                     `json:"current_semester_number"`
	CGPA                  *float64                `json:"cgpa"`
	OpenSubjects          []models.Subject        `json:"open_subjects"`
	History               []models.SemesterRecord `json:"history"`
	Version               int64                   `json:"version"`
	GeneratedAt           time.Time               `json:"generated_at"`
}
