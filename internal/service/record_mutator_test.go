package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-record-api/internal/repository"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

func TestCompletionGuardWaitsForExclusiveSection(t *testing.T) {
	guard := newCompletionGuard()
	entered := make(chan struct{})
	proceed := make(chan struct{})
	begun := make(chan bool, 1)

	go func() {
		_ = guard.Exclusive("u1", func() error {
			close(entered)
			<-proceed
			return nil
		})
	}()
	<-entered

	go func() {
		release, ok := guard.Begin("u1")
		if ok {
			release()
		}
		begun <- ok
	}()

	select {
	case <-begun:
		t.Fatal("completion began while a removal was being saved")
	case <-time.After(50 * time.Millisecond):
	}

	close(proceed)
	select {
	case ok := <-begun:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("completion never began")
	}
}

func TestCompletionGuardIsPerStudent(t *testing.T) {
	guard := newCompletionGuard()
	release, ok := guard.Begin("u1")
	require.True(t, ok)

	_, ok = guard.Begin("u1")
	assert.False(t, ok)
	assert.ErrorIs(t, guard.Exclusive("u1", func() error { return nil }), appErrors.ErrSemesterLocked)
	assert.NoError(t, guard.Exclusive("u2", func() error { return nil }))

	release()
	release()
	assert.NoError(t, guard.Exclusive("u1", func() error { return nil }))
	assert.Empty(t, guard.users)
}

func TestRemoveRefusedWhenCompletionBeginsAfterLoad(t *testing.T) {
	raw := repository.NewMemoryRecordRepository()
	seed := newEngineOn(t, raw, raw, SemesterOptions{}, "u1")
	seed.enroll(t, "u1", cs101, ma101)

	hooked := &loadHookStore{MemoryRecordRepository: raw}
	e := newEngineOn(t, raw, hooked, SemesterOptions{})
	var release func()
	hooked.afterGet = func() {
		var ok bool
		release, ok = e.semesters.guard.Begin("u1")
		require.True(t, ok)
	}

	err := e.subjects.Remove(context.Background(), "u1", "MA101")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSemesterLocked.Code, appErrors.FromError(err).Code)
	assert.Len(t, e.record(t, "u1").OpenSubjects, 2)

	release()
	require.NoError(t, e.subjects.Remove(context.Background(), "u1", "MA101"))
}
