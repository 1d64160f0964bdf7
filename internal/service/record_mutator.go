package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-record-api/internal/models"
	"github.com/noah-isme/academic-record-api/internal/repository"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

type recordReader interface {
	Get(ctx context.Context, userID string) (*models.StudentRecord, error)
}

// RecordStore is the durable keyed storage for student records. Save must
// reject with repository.ErrVersionConflict when the version read by Get is stale.
type RecordStore interface {
	recordReader
	Create(ctx context.Context, rec *models.StudentRecord) error
	Save(ctx context.Context, rec *models.StudentRecord) error
}

// CommitListener is notified after a record change has been durably saved.
type CommitListener interface {
	RecordCommitted(ctx context.Context, rec *models.StudentRecord)
}

func translateStoreError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "student record not found")
	case errors.Is(err, repository.ErrVersionConflict):
		return appErrors.Clone(appErrors.ErrConflict, "student record was modified concurrently; reload and retry")
	case errors.Is(err, repository.ErrRecordExists):
		return appErrors.Clone(appErrors.ErrConflict, "student record already exists")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrCancelled.Code, appErrors.ErrCancelled.Status, appErrors.ErrCancelled.Message)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// completionGuard marks students whose semester completion is in flight in this
// process. Begin and Exclusive serialise per student, so a removal that commits
// under Exclusive can never overlap a completion that has begun.
type completionGuard struct {
	mu    sync.Mutex
	users map[string]*guardEntry
}

type guardEntry struct {
	mu         sync.Mutex
	completing bool
	refs       int
}

func newCompletionGuard() *completionGuard {
	return &completionGuard{users: make(map[string]*guardEntry)}
}

func (g *completionGuard) acquire(userID string) *guardEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.users[userID]
	if !ok {
		e = &guardEntry{}
		g.users[userID] = e
	}
	e.refs++
	return e
}

func (g *completionGuard) drop(userID string, e *guardEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(g.users, userID)
	}
}

// Begin claims the student; ok is false if a completion is already running.
// It waits for any Exclusive section of the same student to finish.
func (g *completionGuard) Begin(userID string) (release func(), ok bool) {
	e := g.acquire(userID)
	e.mu.Lock()
	if e.completing {
		e.mu.Unlock()
		g.drop(userID, e)
		return nil, false
	}
	e.completing = true
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			e.completing = false
			e.mu.Unlock()
			g.drop(userID, e)
		})
	}, true
}

// Exclusive runs fn unless a completion for the student is in flight, in which
// case it returns ErrSemesterLocked. No completion can begin while fn runs.
func (g *completionGuard) Exclusive(userID string, fn func() error) error {
	e := g.acquire(userID)
	defer g.drop(userID, e)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.completing {
		return appErrors.ErrSemesterLocked
	}
	return fn()
}

// recordMutator runs the check-out / modify / check-in cycle shared by every
// mutating operation. The apply func works on a private copy; nothing is visible
// to other readers until Save commits it.
type recordMutator struct {
	store     RecordStore
	retries   int
	metrics   *MetricsService
	logger    *zap.Logger
	listeners []CommitListener
}

func (m *recordMutator) mutate(ctx context.Context, op, userID string, apply func(attempt int, rec *models.StudentRecord) error) (*models.StudentRecord, error) {
	return m.mutateWith(ctx, op, userID, apply, nil)
}

// mutateWith is mutate with the Save routed through commit when it is set, so a
// caller can hold a lock across the write itself.
func (m *recordMutator) mutateWith(ctx context.Context, op, userID string, apply func(attempt int, rec *models.StudentRecord) error, commit func(save func() error) error) (*models.StudentRecord, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, translateStoreError(err, "")
		}

		rec, err := m.store.Get(ctx, userID)
		if err != nil {
			return nil, translateStoreError(err, "failed to load student record")
		}
		if err := apply(attempt, rec); err != nil {
			m.metrics.RecordOperation(op, outcomeOf(err))
			return nil, err
		}

		save := func() error { return m.store.Save(ctx, rec) }
		if commit != nil {
			err = commit(save)
		} else {
			err = save()
		}
		if err == nil {
			m.metrics.RecordOperation(op, "ok")
			for _, l := range m.listeners {
				l.RecordCommitted(ctx, rec)
			}
			return rec, nil
		}
		if errors.Is(err, repository.ErrVersionConflict) {
			m.metrics.RecordStoreConflict(op)
			if attempt < m.retries {
				m.logger.Debug("record save conflict, retrying", zap.String("op", op), zap.String("user_id", userID), zap.Int("attempt", attempt+1))
				continue
			}
			m.logger.Warn("record save conflict, giving up", zap.String("op", op), zap.String("user_id", userID), zap.Int("attempts", attempt+1))
		}
		translated := translateStoreError(err, "failed to save student record")
		m.metrics.RecordOperation(op, outcomeOf(translated))
		return nil, translated
	}
}

func outcomeOf(err error) string {
	appErr := appErrors.FromError(err)
	switch {
	case appErrors.IsValidation(err):
		return "validation"
	case errors.Is(err, appErrors.ErrConflict), errors.Is(err, appErrors.ErrSemesterLocked):
		return "conflict"
	case errors.Is(err, appErrors.ErrNotFound):
		return "not_found"
	case appErr.Status >= 500:
		return "error"
	default:
		return "rejected"
	}
}
