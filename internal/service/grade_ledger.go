package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/academic-record-api/internal/models"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

// ValidatedGrade is one open subject with its resolved grade.
type ValidatedGrade struct {
	Subject     models.Subject
	Grade       models.Grade
	GradePoints int
}

// ValidatedGradeSet covers every open subject exactly once, in enrollment order.
type ValidatedGradeSet []ValidatedGrade

// Results converts the set into archival subject results.
func (s ValidatedGradeSet) Results() []models.SubjectResult {
	results := make([]models.SubjectResult, 0, len(s))
	for _, g := range s {
		results = append(results, models.SubjectResult{
			Code:        g.Subject.Code,
			Name:        g.Subject.Name,
			Credits:     g.Subject.Credits,
			Grade:       g.Grade,
			GradePoints: g.GradePoints,
		})
	}
	return results
}

// GradeLedger validates complete grade submissions. It never writes to the store.
type GradeLedger struct {
	store recordReader
}

// NewGradeLedger constructs a ledger reading open subjects from store.
func NewGradeLedger(store recordReader) *GradeLedger {
	return &GradeLedger{store: store}
}

// SubmitGrades validates grades against the student's currently open subjects.
func (l *GradeLedger) SubmitGrades(ctx context.Context, userID string, grades map[string]string) (ValidatedGradeSet, error) {
	rec, err := l.store.Get(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load student record")
	}
	return l.Validate(rec.OpenSubjects, grades)
}

// Validate is the pure core: the key set must equal the open codes exactly and
// every symbol must belong to the grade scale.
func (l *GradeLedger) Validate(open []models.Subject, grades map[string]string) (ValidatedGradeSet, error) {
	normalized := make(map[string]string, len(grades))
	for code, symbol := range grades {
		key := normalizeCode(code)
		if _, dup := normalized[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrIncompleteGradeSet, fmt.Sprintf("grade for %s submitted more than once", key))
		}
		normalized[key] = symbol
	}

	var missing []string
	for _, subject := range open {
		if _, ok := normalized[subject.Code]; !ok {
			missing = append(missing, subject.Code)
		}
	}
	var extra []string
	for code := range normalized {
		if !containsCode(open, code) {
			extra = append(extra, code)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return nil, appErrors.Clone(appErrors.ErrIncompleteGradeSet, describeMismatch(missing, extra))
	}

	set := make(ValidatedGradeSet, 0, len(open))
	for _, subject := range open {
		raw := normalized[subject.Code]
		grade, ok := models.ParseGrade(raw)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrUnknownGrade, fmt.Sprintf("unknown grade %q for %s", raw, subject.Code))
		}
		points, _ := grade.Points()
		set = append(set, ValidatedGrade{Subject: subject, Grade: grade, GradePoints: points})
	}
	return set, nil
}

func containsCode(subjects []models.Subject, code string) bool {
	for _, s := range subjects {
		if s.Code == code {
			return true
		}
	}
	return false
}

func describeMismatch(missing, extra []string) string {
	sort.Strings(missing)
	sort.Strings(extra)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing grades for "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "not enrolled: "+strings.Join(extra, ", "))
	}
	return strings.Join(parts, "; ")
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
