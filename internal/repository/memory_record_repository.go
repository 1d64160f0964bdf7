package repository

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/academic-record-api/internal/models"
)

// MemoryRecordRepository keeps student records in process memory. Each student has
// its own lock so different students never contend.
type MemoryRecordRepository struct {
	entries sync.Map // user id -> *memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	mu     sync.Mutex
	record *models.StudentRecord
}

// NewMemoryRecordRepository creates an empty in-memory store.
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{now: func() time.Time { return time.Now().UTC() }}
}

// Get returns a private copy of the stored record.
func (r *MemoryRecordRepository) Get(ctx context.Context, userID string) (*models.StudentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, ok := r.entries.Load(userID)
	if !ok {
		return nil, ErrRecordNotFound
	}
	entry := value.(*memoryEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.record == nil {
		return nil, ErrRecordNotFound
	}
	return entry.record.Clone(), nil
}

// Create stores a fresh record at version 1.
func (r *MemoryRecordRepository) Create(ctx context.Context, rec *models.StudentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := r.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Version = 1

	entry := &memoryEntry{record: rec.Clone()}
	if _, loaded := r.entries.LoadOrStore(rec.UserID, entry); loaded {
		return ErrRecordExists
	}
	return nil
}

// Save replaces the stored record when the version read at Get time is still current.
func (r *MemoryRecordRepository) Save(ctx context.Context, rec *models.StudentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, ok := r.entries.Load(rec.UserID)
	if !ok {
		return ErrVersionConflict
	}
	entry := value.(*memoryEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	stored := entry.record
	if stored == nil || stored.Version != rec.Version {
		return ErrVersionConflict
	}
	if len(rec.History) < len(stored.History) {
		return ErrHistoryRewrite
	}

	next := rec.Clone()
	// Archived semesters are never rewritten, whatever the caller's copy holds.
	copy(next.History, stored.Clone().History)
	next.Version = stored.Version + 1
	next.UpdatedAt = r.now()
	next.CreatedAt = stored.CreatedAt
	entry.record = next

	rec.Version = next.Version
	rec.UpdatedAt = next.UpdatedAt
	return nil
}
