package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-record-api/internal/models"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
	"github.com/noah-isme/academic-record-api/pkg/export"
)

// Transcript formats.
const (
	TranscriptPDF = "pdf"
	TranscriptCSV = "csv"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// Transcript is a rendered transcript file.
type Transcript struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TranscriptService renders the completed semester history as a downloadable file.
type TranscriptService struct {
	store  recordReader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewTranscriptService constructs a TranscriptService. Nil renderers use the defaults.
func NewTranscriptService(store recordReader, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &TranscriptService{store: store, csv: csv, pdf: pdf, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Render builds the transcript for userID. An empty format defaults to PDF.
func (s *TranscriptService) Render(ctx context.Context, userID, format string) (*Transcript, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = TranscriptPDF
	}
	if format != TranscriptPDF && format != TranscriptCSV {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported transcript format %q", format))
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load student record")
	}

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case TranscriptCSV:
		payload, err = s.csv.Render(transcriptDataset(rec))
		contentType = "text/csv"
	default:
		payload, err = s.pdf.Render(transcriptDocument(rec, s.now()))
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}

	s.logger.Info("transcript rendered", zap.String("user_id", userID), zap.String("format", format), zap.Int("semesters", len(rec.History)))
	return &Transcript{
		Filename:    fmt.Sprintf("transcript-%s.%s", userID, format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

var transcriptHeaders = []string{"semester", "code", "name", "credits", "grade", "grade_points", "gpa"}

func transcriptDataset(rec *models.StudentRecord) export.Dataset {
	rows := make([][]string, 0)
	for _, sem := range rec.History {
		semester := strconv.Itoa(sem.SemesterNumber)
		for _, sub := range sem.Subjects {
			rows = append(rows, []string{semester, sub.Code, sub.Name, strconv.Itoa(sub.Credits), string(sub.Grade), strconv.Itoa(sub.GradePoints), ""})
		}
		rows = append(rows, []string{semester, "", "SGPA", strconv.Itoa(sem.Credits()), "", strconv.Itoa(sem.WeightedPoints()), formatGPA(sem.SGPA)})
	}
	total := []string{"total", "", "CGPA", strconv.Itoa(rec.CumulativeCredits), "", strconv.Itoa(rec.CumulativeGradePoints), formatCGPA(rec)}
	return export.Dataset{Headers: transcriptHeaders, Rows: rows, Footer: [][]string{total}}
}

func transcriptDocument(rec *models.StudentRecord, now time.Time) export.Document {
	doc := export.Document{
		Title: "Academic Transcript",
		Lines: []string{
			"Student: " + rec.UserID,
			fmt.Sprintf("Completed semesters: %d", len(rec.History)),
			fmt.Sprintf("Cumulative credits: %d", rec.CumulativeCredits),
			"CGPA: " + formatCGPA(rec),
			"Generated: " + now.Format(time.RFC3339),
		},
	}
	if len(rec.History) == 0 {
		doc.Lines = append(doc.Lines, "No completed semesters.")
		return doc
	}
	for _, sem := range rec.History {
		rows := make([][]string, 0, len(sem.Subjects))
		for _, sub := range sem.Subjects {
			rows = append(rows, []string{sub.Code, sub.Name, strconv.Itoa(sub.Credits), string(sub.Grade), strconv.Itoa(sub.GradePoints)})
		}
		doc.Sections = append(doc.Sections, export.Section{
			Title:   fmt.Sprintf("Semester %d (completed %s)", sem.SemesterNumber, sem.CompletedAt.Format("2006-01-02")),
			Headers: []string{"Code", "Subject", "Credits", "Grade", "Points"},
			Widths:  []float64{30, 90, 20, 25, 25},
			Rows:    rows,
			Footer:  fmt.Sprintf("Credits %d, SGPA %s", sem.Credits(), formatGPA(sem.SGPA)),
		})
	}
	return doc
}

func formatGPA(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatCGPA(rec *models.StudentRecord) string {
	if cgpa := cgpaOrNil(rec); cgpa != nil {
		return formatGPA(*cgpa)
	}
	return "n/a"
}
