package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-record-api/internal/models"
)

func seedMemory(t *testing.T, userID string) *MemoryRecordRepository {
	repo := NewMemoryRecordRepository()
	require.NoError(t, repo.Create(context.Background(), models.NewStudentRecord(userID, time.Now())))
	return repo
}

func TestMemoryRecordRepositoryCreateAndGet(t *testing.T) {
	repo := seedMemory(t, "stu-1")

	rec, err := repo.Get(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentSemester)
	assert.Equal(t, int64(1), rec.Version)
	assert.Empty(t, rec.OpenSubjects)

	err = repo.Create(context.Background(), models.NewStudentRecord("stu-1", time.Now()))
	assert.ErrorIs(t, err, ErrRecordExists)

	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMemoryRecordRepositoryGetReturnsCopy(t *testing.T) {
	repo := seedMemory(t, "stu-1")
	ctx := context.Background()

	rec, err := repo.Get(ctx, "stu-1")
	require.NoError(t, err)
	rec.OpenSubjects = append(rec.OpenSubjects, models.Subject{Code: "CS101", Name: "Intro", Credits: 4})

	again, err := repo.Get(ctx, "stu-1")
	require.NoError(t, err)
	assert.Empty(t, again.OpenSubjects)
}

func TestMemoryRecordRepositorySaveAdvancesVersion(t *testing.T) {
	repo := seedMemory(t, "stu-1")
	ctx := context.Background()

	rec, err := repo.Get(ctx, "stu-1")
	require.NoError(t, err)
	rec.OpenSubjects = append(rec.OpenSubjects, models.Subject{Code: "CS101", Name: "Intro", Credits: 4})
	require.NoError(t, repo.Save(ctx, rec))
	assert.Equal(t, int64(2), rec.Version)

	stale := rec.Clone()
	stale.Version = 1
	assert.ErrorIs(t, repo.Save(ctx, stale), ErrVersionConflict)

	stored, err := repo.Get(ctx, "stu-1")
	require.NoError(t, err)
	assert.Len(t, stored.OpenSubjects, 1)
}

func TestMemoryRecordRepositoryRejectsHistoryShrink(t *testing.T) {
	repo := seedMemory(t, "stu-1")
	ctx := context.Background()

	rec, err := repo.Get(ctx, "stu-1")
	require.NoError(t, err)
	rec.History = append(rec.History, models.SemesterRecord{SemesterNumber: 1, SGPA: 8})
	rec.CurrentSemester = 2
	require.NoError(t, repo.Save(ctx, rec))

	rec.History = nil
	assert.ErrorIs(t, repo.Save(ctx, rec), ErrHistoryRewrite)
}

func TestMemoryRecordRepositoryConcurrentSameVersion(t *testing.T) {
	repo := seedMemory(t, "stu-1")
	ctx := context.Background()

	base, err := repo.Get(ctx, "stu-1")
	require.NoError(t, err)

	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attempt := base.Clone()
			attempt.History = append(attempt.History, models.SemesterRecord{SemesterNumber: 1})
			attempt.CurrentSemester = 2
			switch err := repo.Save(ctx, attempt); err {
			case nil:
				atomic.AddInt32(&wins, 1)
			case ErrVersionConflict:
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(7), conflicts)

	stored, err := repo.Get(ctx, "stu-1")
	require.NoError(t, err)
	assert.Len(t, stored.History, 1)
	assert.Equal(t, 2, stored.CurrentSemester)
}

func TestMemoryRecordRepositoryCancelledContext(t *testing.T) {
	repo := seedMemory(t, "stu-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Get(ctx, "stu-1")
	assert.ErrorIs(t, err, context.Canceled)
}
