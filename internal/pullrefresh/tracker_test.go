package pullrefresh

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortPullDoesNotRefresh(t *testing.T) {
	calls := 0
	tracker := NewTracker(func(ctx context.Context) error {
		calls++
		return nil
	})

	tracker.TouchStart(100, 0)
	// 100 units of travel / 2.5 resistance = 40, below the threshold
	tracker.TouchMove(200)
	require.NoError(t, tracker.TouchEnd(context.Background()))

	assert.Equal(t, 0, calls)
	assert.Equal(t, Snapshot{}, tracker.State())
}

func TestThresholdPullRefreshesOnce(t *testing.T) {
	calls := 0
	tracker := NewTracker(func(ctx context.Context) error {
		calls++
		return nil
	})

	tracker.TouchStart(100, 0)
	// 200 / 2.5 = 80, exactly at the threshold
	tracker.TouchMove(300)
	require.NoError(t, tracker.TouchEnd(context.Background()))

	assert.Equal(t, 1, calls)
	assert.Equal(t, Snapshot{}, tracker.State())

	// Releasing again without a new gesture does nothing
	require.NoError(t, tracker.TouchEnd(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestPullIgnoredWhenScrolled(t *testing.T) {
	tracker := NewTracker(nil)

	tracker.TouchStart(100, 50)
	tracker.TouchMove(500)

	assert.False(t, tracker.State().IsPulling)
	assert.Zero(t, tracker.State().PullDistance)
}

func TestDistanceResistanceAndCap(t *testing.T) {
	tracker := NewTracker(nil)

	tracker.TouchStart(0, 0)
	tracker.TouchMove(100)
	assert.InDelta(t, 40.0, tracker.State().PullDistance, 0.001)

	// Huge drags clamp at 1.5x the threshold
	tracker.TouchMove(10000)
	assert.InDelta(t, 120.0, tracker.State().PullDistance, 0.001)
}

func TestUpwardTravelClampsToZero(t *testing.T) {
	tracker := NewTracker(nil)

	tracker.TouchStart(100, 0)
	tracker.TouchMove(50)

	state := tracker.State()
	assert.True(t, state.IsPulling)
	assert.Zero(t, state.PullDistance)
}

func TestRefreshErrorPropagates(t *testing.T) {
	boom := errors.New("feed unavailable")
	tracker := NewTracker(func(ctx context.Context) error {
		return boom
	})

	tracker.TouchStart(0, 0)
	tracker.TouchMove(300)
	assert.ErrorIs(t, tracker.TouchEnd(context.Background()), boom)

	// State is reset even when the refresh fails
	assert.Equal(t, Snapshot{}, tracker.State())
}

func TestRefreshingVisibleDuringCallback(t *testing.T) {
	tracker := NewTracker(nil)
	var seen Snapshot
	tracker.refresh = func(ctx context.Context) error {
		seen = tracker.State()
		return nil
	}

	tracker.TouchStart(0, 0)
	tracker.TouchMove(250)
	require.NoError(t, tracker.TouchEnd(context.Background()))

	assert.True(t, seen.IsRefreshing)
	assert.False(t, seen.IsPulling)
}

func TestCustomThresholdAndResistance(t *testing.T) {
	calls := 0
	tracker := NewTracker(func(ctx context.Context) error {
		calls++
		return nil
	}, WithThreshold(50), WithResistance(1))

	tracker.TouchStart(0, 0)
	tracker.TouchMove(50)
	require.NoError(t, tracker.TouchEnd(context.Background()))

	assert.Equal(t, 1, calls)
}
