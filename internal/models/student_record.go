package models

import "time"

// Credit bounds for a single subject.
const (
	MinCredits = 1
	MaxCredits = 6
)

// Subject is a course enrolled in the currently open semester.
type Subject struct {
	Code    string `db:"code" json:"code"`
	Name    string `db:"name" json:"name"`
	Credits int    `db:"credits" json:"credits"`
}

// SubjectResult is a graded subject frozen into a SemesterRecord.
type SubjectResult struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Credits     int    `json:"credits"`
	Grade       Grade  `json:"grade"`
	GradePoints int    `json:"grade_points"`
}

// SemesterRecord is the immutable archive of one completed semester.
type SemesterRecord struct {
	SemesterNumber int             `json:"semester_number"`
	Subjects       []SubjectResult `json:"subjects"`
	SGPA           float64         `json:"sgpa"`
	CompletedAt    time.Time       `json:"completed_at"`
}

// Credits returns the credit total of the semester.
func (r SemesterRecord) Credits() int {
	total := 0
	for _, s := range r.Subjects {
		total += s.Credits
	}
	return total
}

// WeightedPoints returns sum(credits * grade points) for the semester.
func (r SemesterRecord) WeightedPoints() int {
	total := 0
	for _, s := range r.Subjects {
		total += s.Credits * s.GradePoints
	}
	return total
}

// StudentRecord is the per-student academic state owned by the record store.
// Version is the optimistic concurrency token read at load time.
type StudentRecord struct {
	UserID                string           `json:"user_id"`
	CurrentSemester       int              `json:"current_semester_number"`
	OpenSubjects          []Subject        `json:"open_subjects"`
	History               []SemesterRecord `json:"history"`
	CumulativeCredits     int              `json:"cumulative_credits"`
	CumulativeGradePoints int              `json:"cumulative_grade_points"`
	Version               int64            `json:"version"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// NewStudentRecord returns the initial state created at registration.
func NewStudentRecord(userID string, now time.Time) *StudentRecord {
	return &StudentRecord{
		UserID:          userID,
		CurrentSemester: 1,
		OpenSubjects:    []Subject{},
		History:         []SemesterRecord{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// FindSubject returns the index of the open subject with code, or -1.
func (r *StudentRecord) FindSubject(code string) int {
	for i, s := range r.OpenSubjects {
		if s.Code == code {
			return i
		}
	}
	return -1
}

// HasOpenSemester reports whether the record is in the Open state.
func (r *StudentRecord) HasOpenSemester() bool {
	return r.CurrentSemester >= 1 && r.CurrentSemester == len(r.History)+1
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (r *StudentRecord) Clone() *StudentRecord {
	if r == nil {
		return nil
	}
	clone := *r
	clone.OpenSubjects = append([]Subject{}, r.OpenSubjects...)
	clone.History = make([]SemesterRecord, len(r.History))
	for i, sem := range r.History {
		sem.Subjects = append([]SubjectResult{}, sem.Subjects...)
		clone.History[i] = sem
	}
	return &clone
}
