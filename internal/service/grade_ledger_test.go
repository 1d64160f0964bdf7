package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-record-api/internal/models"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

func TestGradeLedgerValidateKeepsEnrollmentOrder(t *testing.T) {
	ledger := NewGradeLedger(nil)

	set, err := ledger.Validate([]models.Subject{cs101, ma101}, map[string]string{"ma101": "b+", "CS101": "A+"})
	require.NoError(t, err)
	results := set.Results()
	require.Len(t, results, 2)
	assert.Equal(t, models.SubjectResult{Code: "CS101", Name: "Programming", Credits: 4, Grade: models.GradeAPlus, GradePoints: 9}, results[0])
	assert.Equal(t, models.GradeBPlus, results[1].Grade)
	assert.Equal(t, 7, results[1].GradePoints)
}

func TestGradeLedgerValidateMismatch(t *testing.T) {
	ledger := NewGradeLedger(nil)

	_, err := ledger.Validate([]models.Subject{cs101, ma101}, map[string]string{"CS101": "A", "ZZ999": "A"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrIncompleteGradeSet.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "MA101")
	assert.Contains(t, appErr.Message, "ZZ999")
}

func TestGradeLedgerValidateDuplicateAfterNormalisation(t *testing.T) {
	ledger := NewGradeLedger(nil)

	_, err := ledger.Validate([]models.Subject{cs101}, map[string]string{"CS101": "A", "cs101": "B"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIncompleteGradeSet.Code, appErrors.FromError(err).Code)
}

func TestGradeLedgerSubmitGrades(t *testing.T) {
	e := newEngine(t, SemesterOptions{}, "u1")
	e.enroll(t, "u1", cs101)

	set, err := e.semesters.Ledger().SubmitGrades(context.Background(), "u1", map[string]string{"CS101": "C"})
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, 5, set[0].GradePoints)

	_, err = e.semesters.Ledger().SubmitGrades(context.Background(), "u1", map[string]string{"CS101": "D"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownGrade.Code, appErrors.FromError(err).Code)
}

func TestGradeScalePoints(t *testing.T) {
	expected := map[models.Grade]int{
		models.GradeO: 10, models.GradeAPlus: 9, models.GradeA: 8, models.GradeBPlus: 7,
		models.GradeB: 6, models.GradeC: 5, models.GradeF: 0,
	}
	for _, g := range models.GradeScale {
		points, ok := g.Points()
		require.True(t, ok)
		assert.Equal(t, expected[g], points, string(g))
	}
}
