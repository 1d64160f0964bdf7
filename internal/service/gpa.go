package service

import (
	"github.com/noah-isme/academic-record-api/internal/models"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

// SGPA returns sum(credits*points)/sum(credits) rounded half-up to two decimals.
func SGPA(results []models.SubjectResult) (float64, error) {
	credits, points := 0, 0
	for _, r := range results {
		credits += r.Credits
		points += r.Credits * r.GradePoints
	}
	if credits == 0 {
		return 0, appErrors.ErrZeroCredits
	}
	return roundedRatio(points, credits), nil
}

// CGPA returns the cumulative average. ok is false while no credits are
// completed, which callers must report as undefined rather than 0.00.
func CGPA(cumulativeGradePoints, cumulativeCredits int) (value float64, ok bool) {
	if cumulativeCredits <= 0 {
		return 0, false
	}
	return roundedRatio(cumulativeGradePoints, cumulativeCredits), true
}

// CumulativeTotals re-derives the cached cumulative counters from history.
func CumulativeTotals(history []models.SemesterRecord) (credits, gradePoints int) {
	for _, sem := range history {
		credits += sem.Credits()
		gradePoints += sem.WeightedPoints()
	}
	return credits, gradePoints
}

// roundedRatio computes num/den in hundredths with round-half-up on exact integers,
// avoiding binary float drift on values like 8.675.
func roundedRatio(num, den int) float64 {
	hundredths := (num*200 + den) / (2 * den)
	return float64(hundredths) / 100
}
