package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-record-api/internal/dto"
	"github.com/noah-isme/academic-record-api/internal/models"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

// SubjectService manages the subjects enrolled in a student's open semester.
type SubjectService struct {
	mutator   *recordMutator
	store     recordReader
	guard     *completionGuard
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject catalog service.
func NewSubjectService(semesters *SemesterService, validate *validator.Validate) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{
		mutator:   semesters.mutator,
		store:     semesters.mutator.store,
		guard:     semesters.guard,
		validator: validate,
		logger:    semesters.logger,
	}
}

// List returns the open subjects in enrollment order.
func (s *SubjectService) List(ctx context.Context, userID string) ([]models.Subject, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load subjects")
	}
	return rec.OpenSubjects, nil
}

// Add enrolls a subject in the open semester.
func (s *SubjectService) Add(ctx context.Context, userID string, req dto.AddSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := models.Subject{
		Code:    normalizeCode(req.Code),
		Name:    strings.TrimSpace(req.Name),
		Credits: req.Credits,
	}
	if subject.Code == "" || subject.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject code and name are required")
	}
	if subject.Credits < models.MinCredits || subject.Credits > models.MaxCredits {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredits, fmt.Sprintf("credits must be between %d and %d, got %d", models.MinCredits, models.MaxCredits, subject.Credits))
	}

	_, err := s.mutator.mutate(ctx, "add_subject", userID, func(_ int, rec *models.StudentRecord) error {
		if !rec.HasOpenSemester() {
			return appErrors.ErrNoOpenSemester
		}
		if rec.FindSubject(subject.Code) >= 0 {
			return appErrors.Clone(appErrors.ErrDuplicateCode, fmt.Sprintf("subject %s already enrolled", subject.Code))
		}
		rec.OpenSubjects = append(rec.OpenSubjects, subject)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("subject added", zap.String("user_id", userID), zap.String("code", subject.Code), zap.Int("credits", subject.Credits))
	return &subject, nil
}

// Remove drops an open subject. It is refused while a completion is in flight,
// and a completion cannot begin while the removal is being saved.
func (s *SubjectService) Remove(ctx context.Context, userID, code string) error {
	code = normalizeCode(code)
	exclusive := func(save func() error) error {
		return s.guard.Exclusive(userID, save)
	}
	_, err := s.mutator.mutateWith(ctx, "remove_subject", userID, func(_ int, rec *models.StudentRecord) error {
		idx := rec.FindSubject(code)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not enrolled", code))
		}
		rec.OpenSubjects = append(rec.OpenSubjects[:idx], rec.OpenSubjects[idx+1:]...)
		return nil
	}, exclusive)
	if err != nil {
		return err
	}

	s.logger.Info("subject removed", zap.String("user_id", userID), zap.String("code", code))
	return nil
}
