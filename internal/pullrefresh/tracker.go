// Package pullrefresh implements the touch-gesture state machine behind
// the PWA's pull-to-refresh interaction. The tracker consumes raw touch
// events and drives a caller-supplied refresh action when a pull crosses
// the trigger threshold.
//
// The machine moves idle → pulling → refreshing → idle. A pull only
// starts when the view is scrolled to the top; distance accumulates from
// downward finger travel divided by a resistance factor and is capped at
// 1.5× the threshold so the indicator never runs away from the finger.
//
// A tracker belongs to a single UI event loop and is not safe for
// concurrent use.
package pullrefresh

import "context"

const (
	// DefaultThreshold is the pull distance that triggers a refresh.
	DefaultThreshold = 80.0

	// DefaultResistance divides raw finger travel, making the pull feel
	// progressively heavier than a 1:1 drag.
	DefaultResistance = 2.5

	// overshootFactor caps the distance at this multiple of the threshold.
	overshootFactor = 1.5
)

// RefreshFunc performs the actual refresh when a pull completes
type RefreshFunc func(ctx context.Context) error

// Snapshot is the externally visible pull state, consumed by the view
// layer to position the refresh indicator.
type Snapshot struct {
	IsPulling    bool    `json:"is_pulling"`
	PullDistance float64 `json:"pull_distance"`
	IsRefreshing bool    `json:"is_refreshing"`
}

// Tracker is the gesture state machine. Zero value is not usable; create
// one with NewTracker.
type Tracker struct {
	threshold  float64
	resistance float64
	refresh    RefreshFunc

	pulling    bool
	refreshing bool
	startY     float64
	distance   float64
}

// Option customizes a Tracker
type Option func(*Tracker)

// WithThreshold overrides the trigger threshold
func WithThreshold(threshold float64) Option {
	return func(t *Tracker) {
		if threshold > 0 {
			t.threshold = threshold
		}
	}
}

// WithResistance overrides the resistance divisor
func WithResistance(resistance float64) Option {
	return func(t *Tracker) {
		if resistance > 0 {
			t.resistance = resistance
		}
	}
}

// NewTracker creates a tracker that invokes refresh when a pull crosses
// the threshold. refresh may be nil, in which case a completed pull just
// resets the state.
func NewTracker(refresh RefreshFunc, opts ...Option) *Tracker {
	t := &Tracker{
		threshold:  DefaultThreshold,
		resistance: DefaultResistance,
		refresh:    refresh,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TouchStart begins a pull. A pull only starts when the view is scrolled
// to the top and no refresh is in flight; otherwise the event is ignored.
func (t *Tracker) TouchStart(y, scrollOffset float64) {
	if t.refreshing || scrollOffset != 0 {
		return
	}
	t.pulling = true
	t.startY = y
	t.distance = 0
}

// TouchMove updates the pull distance from the current finger position.
// Upward travel past the start point clamps to zero rather than going
// negative.
func (t *Tracker) TouchMove(y float64) {
	if !t.pulling {
		return
	}

	raw := y - t.startY
	if raw < 0 {
		raw = 0
	}

	distance := raw / t.resistance
	if max := t.threshold * overshootFactor; distance > max {
		distance = max
	}
	t.distance = distance
}

// TouchEnd completes the gesture. A pull at or beyond the threshold
// invokes the refresh action exactly once and returns its error; a
// shorter pull resets silently. Either way the tracker ends up idle.
func (t *Tracker) TouchEnd(ctx context.Context) error {
	if !t.pulling {
		return nil
	}

	triggered := t.distance >= t.threshold
	t.pulling = false
	t.distance = 0

	if !triggered {
		return nil
	}

	t.refreshing = true
	defer func() { t.refreshing = false }()

	if t.refresh == nil {
		return nil
	}
	return t.refresh(ctx)
}

// State returns a snapshot of the current pull state
func (t *Tracker) State() Snapshot {
	return Snapshot{
		IsPulling:    t.pulling,
		PullDistance: t.distance,
		IsRefreshing: t.refreshing,
	}
}
