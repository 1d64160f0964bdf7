package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-record-api/internal/dto"
	"github.com/noah-isme/academic-record-api/internal/models"
	"github.com/noah-isme/academic-record-api/internal/repository"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

var fixedNow = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type engine struct {
	store     *repository.MemoryRecordRepository
	semesters *SemesterService
	subjects  *SubjectService
	students  *StudentService
}

func newEngine(t *testing.T, opts SemesterOptions, users ...string) *engine {
	t.Helper()
	store := repository.NewMemoryRecordRepository()
	return newEngineOn(t, store, store, opts, users...)
}

func newEngineOn(t *testing.T, raw *repository.MemoryRecordRepository, store RecordStore, opts SemesterOptions, users ...string) *engine {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	semesters := NewSemesterService(store, opts)
	e := &engine{
		store:     raw,
		semesters: semesters,
		subjects:  NewSubjectService(semesters, nil),
		students:  NewStudentService(store, nil, 0, nil),
	}
	for _, u := range users {
		if _, err := raw.Get(context.Background(), u); err == nil {
			continue
		}
		_, err := e.students.Initialize(context.Background(), u)
		require.NoError(t, err)
	}
	return e
}

func (e *engine) enroll(t *testing.T, userID string, subjects ...models.Subject) {
	t.Helper()
	for _, s := range subjects {
		_, err := e.subjects.Add(context.Background(), userID, dtoSubject(s))
		require.NoError(t, err)
	}
}

func (e *engine) record(t *testing.T, userID string) *models.StudentRecord {
	t.Helper()
	rec, err := e.store.Get(context.Background(), userID)
	require.NoError(t, err)
	return rec
}

// hookStore runs beforeSave once, ahead of the first Save, to simulate a competing writer.
type hookStore struct {
	*repository.MemoryRecordRepository
	beforeSave func()
	once       sync.Once
}

func (h *hookStore) Save(ctx context.Context, rec *models.StudentRecord) error {
	h.once.Do(h.beforeSave)
	return h.MemoryRecordRepository.Save(ctx, rec)
}

// loadHookStore runs afterGet once, after the first Get returns, to act between
// a mutation's load and its save.
type loadHookStore struct {
	*repository.MemoryRecordRepository
	afterGet func()
	once     sync.Once
}

func (h *loadHookStore) Get(ctx context.Context, userID string) (*models.StudentRecord, error) {
	rec, err := h.MemoryRecordRepository.Get(ctx, userID)
	if h.afterGet != nil {
		h.once.Do(h.afterGet)
	}
	return rec, err
}

type countingListener struct {
	mu       sync.Mutex
	versions []int64
}

func (l *countingListener) RecordCommitted(_ context.Context, rec *models.StudentRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.versions = append(l.versions, rec.Version)
}

func (l *countingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.versions)
}

// memoryCache is a JSON round-tripping stand-in for the Redis cache repository.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	fences  map[string]int64
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, fences: map[string]int64{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memoryCache) SetIfCurrent(_ context.Context, fenceKey, key string, version int64, value interface{}, _ time.Duration) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if version < c.fences[fenceKey] {
		return false, nil
	}
	c.entries[key] = raw
	return true, nil
}

func (c *memoryCache) Fence(_ context.Context, fenceKey string, version int64, _ time.Duration, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version > c.fences[fenceKey] {
		c.fences[fenceKey] = version
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

var (
	cs101 = models.Subject{Code: "CS101", Name: "Programming", Credits: 4}
	ma101 = models.Subject{Code: "MA101", Name: "Calculus", Credits: 2}
	cs301 = models.Subject{Code: "CS301", Name: "Compilers", Credits: 3}
)

func dtoSubject(s models.Subject) dto.AddSubjectRequest {
	return dto.AddSubjectRequest{Code: s.Code, Name: s.Name, Credits: s.Credits}
}
