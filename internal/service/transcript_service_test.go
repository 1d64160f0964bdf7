package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

func TestTranscriptCSV(t *testing.T) {
	e := newEngine(t, SemesterOptions{}, "u1")
	e.enroll(t, "u1", cs101, ma101)
	_, err := e.semesters.Complete(context.Background(), "u1", map[string]string{"CS101": "A", "MA101": "O"})
	require.NoError(t, err)

	svc := NewTranscriptService(e.store, nil, nil, nil)
	transcript, err := svc.Render(context.Background(), "u1", "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", transcript.ContentType)
	assert.Equal(t, "transcript-u1.csv", transcript.Filename)

	lines := strings.Split(strings.TrimSpace(string(transcript.Data)), "\n")
	assert.Equal(t, []string{
		"semester,code,name,credits,grade,grade_points,gpa",
		"1,CS101,Programming,4,A,8,",
		"1,MA101,Calculus,2,O,10,",
		"1,,SGPA,6,,52,8.67",
		"total,,CGPA,6,,52,8.67",
	}, lines)
}

func TestTranscriptPDFDefault(t *testing.T) {
	e := newEngine(t, SemesterOptions{}, "u1")

	svc := NewTranscriptService(e.store, nil, nil, nil)
	transcript, err := svc.Render(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", transcript.ContentType)
	assert.True(t, bytes.HasPrefix(transcript.Data, []byte("%PDF")))
}

func TestTranscriptRejects(t *testing.T) {
	e := newEngine(t, SemesterOptions{}, "u1")
	svc := NewTranscriptService(e.store, nil, nil, nil)

	_, err := svc.Render(context.Background(), "u1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Render(context.Background(), "ghost", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
