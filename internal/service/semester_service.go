package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-record-api/internal/models"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

// SemesterOptions tunes the semester lifecycle engine.
type SemesterOptions struct {
	ConflictRetries int
	Metrics         *MetricsService
	Logger          *zap.Logger
	Listeners       []CommitListener
	Now             func() time.Time
}

// SemesterService moves a student's open semester to completed. The whole
// transition is built on a private copy and committed by one atomic Save.
type SemesterService struct {
	mutator *recordMutator
	guard   *completionGuard
	ledger  *GradeLedger
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewSemesterService constructs the lifecycle engine over store.
func NewSemesterService(store RecordStore, opts SemesterOptions) *SemesterService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.ConflictRetries < 0 {
		opts.ConflictRetries = 0
	}
	return &SemesterService{
		mutator: &recordMutator{
			store:     store,
			retries:   opts.ConflictRetries,
			metrics:   opts.Metrics,
			logger:    opts.Logger,
			listeners: opts.Listeners,
		},
		guard:   newCompletionGuard(),
		ledger:  NewGradeLedger(store),
		metrics: opts.Metrics,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// Subscribe registers a listener notified after every committed record change.
func (s *SemesterService) Subscribe(listener CommitListener) {
	s.mutator.listeners = append(s.mutator.listeners, listener)
}

// Ledger exposes the grade ledger bound to the same store.
func (s *SemesterService) Ledger() *GradeLedger {
	return s.ledger
}

// Complete grades every open subject, archives the semester and opens the next one.
func (s *SemesterService) Complete(ctx context.Context, userID string, grades map[string]string) (*models.SemesterRecord, error) {
	release, ok := s.guard.Begin(userID)
	if !ok {
		s.metrics.RecordOperation("complete_semester", "conflict")
		return nil, appErrors.Clone(appErrors.ErrConflict, "semester completion already in progress")
	}
	defer release()

	var (
		pinned   int
		archived models.SemesterRecord
	)
	_, err := s.mutator.mutate(ctx, "complete_semester", userID, func(attempt int, rec *models.StudentRecord) error {
		if attempt == 0 {
			pinned = rec.CurrentSemester
		} else if rec.CurrentSemester != pinned {
			// A concurrent writer already moved the record on; never grade a different semester.
			return appErrors.Clone(appErrors.ErrConflict, "semester was completed concurrently")
		}
		if !rec.HasOpenSemester() {
			return appErrors.ErrNoOpenSemester
		}
		if len(rec.OpenSubjects) == 0 {
			return appErrors.ErrEmptySemester
		}

		set, err := s.ledger.Validate(rec.OpenSubjects, grades)
		if err != nil {
			return err
		}
		results := set.Results()
		sgpa, err := SGPA(results)
		if err != nil {
			return err
		}

		archived = models.SemesterRecord{
			SemesterNumber: rec.CurrentSemester,
			Subjects:       results,
			SGPA:           sgpa,
			CompletedAt:    s.now(),
		}
		rec.History = append(rec.History, archived)
		rec.CumulativeCredits += archived.Credits()
		rec.CumulativeGradePoints += archived.WeightedPoints()
		rec.CurrentSemester++
		rec.OpenSubjects = []models.Subject{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSemesterCompleted(len(archived.Subjects))
	s.logger.Info("semester completed",
		zap.String("user_id", userID),
		zap.Int("semester", archived.SemesterNumber),
		zap.Int("subjects", len(archived.Subjects)),
		zap.Float64("sgpa", archived.SGPA))
	return &archived, nil
}
