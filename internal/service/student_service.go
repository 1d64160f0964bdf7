package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-record-api/internal/dto"
	"github.com/noah-isme/academic-record-api/internal/models"
	"github.com/noah-isme/academic-record-api/pkg/cache"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

// StudentService serves record initialisation and the read-only query surface
// shared by the dashboard and the advisory collaborator.
type StudentService struct {
	store  RecordStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewStudentService constructs the query service. cache may be nil.
func NewStudentService(store RecordStore, cacheSvc *CacheService, ttl time.Duration, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{store: store, cache: cacheSvc, ttl: ttl, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Initialize creates the record for a newly registered student.
func (s *StudentService) Initialize(ctx context.Context, userID string) (*dto.StudentSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	rec := models.NewStudentRecord(userID, s.now())
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, translateStoreError(err, "failed to create student record")
	}
	s.logger.Info("student record initialised", zap.String("user_id", userID))
	return summarize(rec), nil
}

// Summary returns the current semester, active subject count and CGPA.
func (s *StudentService) Summary(ctx context.Context, userID string) (*dto.StudentSummary, bool, error) {
	var cached dto.StudentSummary
	if s.cache.Get(ctx, cache.SummaryKey(userID), &cached) {
		return &cached, true, nil
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, false, translateStoreError(err, "failed to load student record")
	}
	summary := summarize(rec)
	s.cache.Set(ctx, userID, cache.SummaryKey(userID), rec.Version, summary, s.ttl)
	return summary, false, nil
}

// History returns completed semesters in ascending semester order.
func (s *StudentService) History(ctx context.Context, userID string) ([]models.SemesterRecord, bool, error) {
	var cached []models.SemesterRecord
	if s.cache.Get(ctx, cache.HistoryKey(userID), &cached) {
		return cached, true, nil
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, false, translateStoreError(err, "failed to load academic history")
	}
	s.cache.Set(ctx, userID, cache.HistoryKey(userID), rec.Version, rec.History, s.ttl)
	return rec.History, false, nil
}

// Semester returns one archived semester.
func (s *StudentService) Semester(ctx context.Context, userID string, number int) (*models.SemesterRecord, error) {
	history, _, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range history {
		if history[i].SemesterNumber == number {
			return &history[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("semester %d not found", number))
}

// AdvisorContext builds a fresh advisor snapshot straight from the store.
func (s *StudentService) AdvisorContext(ctx context.Context, userID string) (*dto.AdvisorContext, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load student record")
	}
	return buildAdvisorContext(rec, s.now()), nil
}

func summarize(rec *models.StudentRecord) *dto.StudentSummary {
	return &dto.StudentSummary{
		UserID:                rec.UserID,
		CurrentSemesterNumber: rec.CurrentSemester,
		ActiveSubjectCount:    len(rec.OpenSubjects),
		CGPA:                  cgpaOrNil(rec),
		CumulativeCredits:     rec.CumulativeCredits,
		CompletedSemesters:    len(rec.History),
		Version:               rec.Version,
	}
}

func buildAdvisorContext(rec *models.StudentRecord, now time.Time) *dto.AdvisorContext {
	return &dto.AdvisorContext{
		UserID:                rec.UserID,
		CurrentSemesterNumber: rec.CurrentSemester,
		CGPA:                  cgpaOrNil(rec),
		OpenSubjects:          rec.OpenSubjects,
		History:               rec.History,
		Version:               rec.Version,
		GeneratedAt:           now,
	}
}

func cgpaOrNil(rec *models.StudentRecord) *float64 {
	value, ok := CGPA(rec.CumulativeGradePoints, rec.CumulativeCredits)
	if !ok {
		return nil
	}
	return &value
}
