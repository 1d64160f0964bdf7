package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-record-api/internal/models"
	"github.com/noah-isme/academic-record-api/pkg/cache"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ReadModelRepository adds version fencing, so a read that raced a commit
// cannot put its older read model back after the commit invalidated it.
type ReadModelRepository interface {
	CacheRepository
	SetIfCurrent(ctx context.Context, fenceKey, key string, version int64, value interface{}, ttl time.Duration) (bool, error)
	Fence(ctx context.Context, fenceKey string, version int64, ttl time.Duration, keys ...string) error
}

// fenceTTL outlives any in-flight read that could still try to write back.
const fenceTTL = 24 * time.Hour

// CacheService wraps the read model cache with metrics and failure tolerance.
// Cache errors never fail a request; the record store stays the source of truth.
type CacheService struct {
	repo       ReadModelRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo ReadModelRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// Set caches a read model built from record version of userID. It is skipped
// when a commit of a newer version already invalidated the key.
func (s *CacheService) Set(ctx context.Context, userID, key string, version int64, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	stored, err := s.repo.SetIfCurrent(ctx, cache.VersionKey(userID), key, version, value, ttl)
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !stored {
		s.logger.Debug("stale read model not cached", zap.String("key", key), zap.Int64("version", version))
	}
}

// Invalidate drops the student's read models and fences out versions older than version.
func (s *CacheService) Invalidate(ctx context.Context, userID string, version int64) error {
	if !s.Enabled() {
		return nil
	}
	keys := cache.ReadModelKeys(userID)
	if err := s.repo.Fence(ctx, cache.VersionKey(userID), version, fenceTTL, keys...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// RecordCommitted invalidates the student's cached summary and history after a commit.
func (s *CacheService) RecordCommitted(ctx context.Context, rec *models.StudentRecord) {
	_ = s.Invalidate(context.WithoutCancel(ctx), rec.UserID, rec.Version)
}
