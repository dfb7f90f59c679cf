package warming

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/aura"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/notes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "/tmp/uolink-warming-test.log")
	m.Run()
}

type fakeNoteWarmer struct {
	initialCalls atomic.Int32
	recentCalls  atomic.Int32
	filterCalls  atomic.Int32
	fail         bool
}

func (f *fakeNoteWarmer) InitialNotes(ctx context.Context) (*notes.ListResponse, error) {
	f.initialCalls.Add(1)
	if f.fail {
		return nil, errors.New("database gone")
	}
	return &notes.ListResponse{}, nil
}

func (f *fakeNoteWarmer) Recent(ctx context.Context, semester, limit int) (*notes.ListResponse, error) {
	f.recentCalls.Add(1)
	if f.fail {
		return nil, errors.New("database gone")
	}
	return &notes.ListResponse{}, nil
}

func (f *fakeNoteWarmer) FilterOptions(ctx context.Context) (*notes.FilterOptions, error) {
	f.filterCalls.Add(1)
	return &notes.FilterOptions{}, nil
}

type fakeLeaderboardWarmer struct {
	calls atomic.Int32
}

func (f *fakeLeaderboardWarmer) Leaderboard(ctx context.Context, limit int, university string) ([]aura.LeaderboardEntry, error) {
	f.calls.Add(1)
	return []aura.LeaderboardEntry{}, nil
}

func TestWarmPassTouchesEveryListing(t *testing.T) {
	noteWarmer := &fakeNoteWarmer{}
	lbWarmer := &fakeLeaderboardWarmer{}
	s := NewScheduler(noteWarmer, lbWarmer, time.Hour)

	s.WarmPass(context.Background(), "test")

	assert.Equal(t, int32(1), noteWarmer.initialCalls.Load())
	assert.Equal(t, int32(1), noteWarmer.filterCalls.Load())
	assert.Equal(t, int32(WarmSemesters), noteWarmer.recentCalls.Load())
	assert.Equal(t, int32(1), lbWarmer.calls.Load())
}

func TestWarmPassToleratesFailures(t *testing.T) {
	noteWarmer := &fakeNoteWarmer{fail: true}
	lbWarmer := &fakeLeaderboardWarmer{}
	s := NewScheduler(noteWarmer, lbWarmer, time.Hour)

	// Failing note queries must not block the leaderboard warm.
	s.WarmPass(context.Background(), "test")
	assert.Equal(t, int32(1), lbWarmer.calls.Load())
	assert.Equal(t, int32(1), noteWarmer.filterCalls.Load())
}

func TestStartIsIdempotent(t *testing.T) {
	noteWarmer := &fakeNoteWarmer{}
	lbWarmer := &fakeLeaderboardWarmer{}
	s := NewScheduler(noteWarmer, lbWarmer, time.Hour)
	defer s.Stop()

	require.False(t, s.Started())
	assert.True(t, s.Start())
	assert.True(t, s.Started())

	// Second start is a no-op: the loop must not be launched twice.
	assert.False(t, s.Start())

	// The startup pass runs exactly once.
	require.Eventually(t, func() bool {
		return noteWarmer.initialCalls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), noteWarmer.initialCalls.Load())
}

func TestStopCancelsLoop(t *testing.T) {
	noteWarmer := &fakeNoteWarmer{}
	lbWarmer := &fakeLeaderboardWarmer{}
	s := NewScheduler(noteWarmer, lbWarmer, 20*time.Millisecond)

	require.True(t, s.Start())
	require.Eventually(t, func() bool {
		return noteWarmer.initialCalls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	time.Sleep(50 * time.Millisecond)
	after := noteWarmer.initialCalls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, noteWarmer.initialCalls.Load())
}

func TestDefaultInterval(t *testing.T) {
	s := NewScheduler(&fakeNoteWarmer{}, &fakeLeaderboardWarmer{}, 0)
	assert.Equal(t, DefaultInterval, s.interval)
}
