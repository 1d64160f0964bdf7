package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-record-api/internal/dto"
	"github.com/noah-isme/academic-record-api/internal/models"
	"github.com/noah-isme/academic-record-api/internal/repository"
	"github.com/noah-isme/academic-record-api/pkg/cache"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
	"github.com/noah-isme/academic-record-api/pkg/jobs"
)

const advisorContextJob = "advisor_context"

// AdvisorFeedOptions configures the advisor snapshot feed.
type AdvisorFeedOptions struct {
	Workers int
	Retries int
	TTL     time.Duration
	Metrics *MetricsService
	Logger  *zap.Logger
}

// AdvisorFeedService keeps a read-only AdvisorContext snapshot per student for
// the advisory chat collaborator. Snapshots are rebuilt off the request path
// after every committed change. With no snapshot store it serves live builds only.
type AdvisorFeedService struct {
	store     recordReader
	snapshots CacheRepository
	queue     *jobs.Queue
	ttl       time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewAdvisorFeedService constructs the feed. snapshots may be nil.
func NewAdvisorFeedService(store recordReader, snapshots CacheRepository, opts AdvisorFeedOptions) *AdvisorFeedService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	svc := &AdvisorFeedService{
		store:     store,
		snapshots: snapshots,
		ttl:       opts.TTL,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if snapshots != nil {
		svc.queue = jobs.NewQueue("advisor-feed", svc.handle, jobs.QueueConfig{
			Workers:    opts.Workers,
			MaxRetries: opts.Retries,
			RetryDelay: 2 * time.Second,
			Logger:     opts.Logger,
			OnGiveUp: func(jobs.Job, error) {
				svc.metrics.RecordAdvisorJob("failed")
			},
		})
	}
	return svc
}

// Start launches the feed workers.
func (s *AdvisorFeedService) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Stop drains the workers.
func (s *AdvisorFeedService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// RecordCommitted schedules a snapshot rebuild for the committed student.
func (s *AdvisorFeedService) RecordCommitted(_ context.Context, rec *models.StudentRecord) {
	if s.queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: advisorContextJob, Key: rec.UserID, Payload: rec.UserID}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordAdvisorJob("dropped")
		s.logger.Warn("advisor feed enqueue failed", zap.String("user_id", rec.UserID), zap.Error(err))
	}
}

// Context returns the latest snapshot, building it live when none is stored.
// The second return value reports whether a stored snapshot was served.
func (s *AdvisorFeedService) Context(ctx context.Context, userID string) (*dto.AdvisorContext, bool, error) {
	if s.snapshots != nil {
		var snapshot dto.AdvisorContext
		err := s.snapshots.Get(ctx, cache.AdvisorContextKey(userID), &snapshot)
		if err == nil {
			return &snapshot, true, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("advisor snapshot lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, false, translateStoreError(err, "failed to load student record")
	}
	return buildAdvisorContext(rec, s.now()), false, nil
}

func (s *AdvisorFeedService) handle(ctx context.Context, job jobs.Job) error {
	userID, ok := job.Payload.(string)
	if !ok || userID == "" {
		userID = job.Key
	}
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			s.metrics.RecordAdvisorJob("skipped")
			return nil
		}
		return fmt.Errorf("load record for advisor context: %w", err)
	}
	snapshot := buildAdvisorContext(rec, s.now())
	if err := s.snapshots.Set(ctx, cache.AdvisorContextKey(userID), snapshot, s.ttl); err != nil {
		return fmt.Errorf("store advisor context: %w", err)
	}
	s.metrics.RecordAdvisorJob("ok")
	s.logger.Debug("advisor context refreshed", zap.String("user_id", userID), zap.Int64("version", rec.Version))
	return nil
}
