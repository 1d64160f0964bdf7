package models

import "strings"

// Grade is a symbol on the fixed ten-point scale.
type Grade string

const (
	GradeO     Grade = "O"
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeF     Grade = "F"
)

// GradeScale lists the grades from highest to lowest.
var GradeScale = []Grade{GradeO, GradeAPlus, GradeA, GradeBPlus, GradeB, GradeC, GradeF}

var gradePoints = map[Grade]int{
	GradeO:     10,
	GradeAPlus: 9,
	GradeA:     8,
	GradeBPlus: 7,
	GradeB:     6,
	GradeC:     5,
	GradeF:     0,
}

// ParseGrade resolves a symbol case-insensitively; ok is false outside the scale.
func ParseGrade(raw string) (Grade, bool) {
	g := Grade(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := gradePoints[g]
	return g, ok
}

// Points returns the grade-point value; unknown grades report ok=false.
func (g Grade) Points() (int, bool) {
	p, ok := gradePoints[g]
	return p, ok
}
