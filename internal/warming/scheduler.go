package warming

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/aura"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/metrics"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/notes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultInterval is the delay between warming passes.
	DefaultInterval = 10 * time.Minute

	// WarmSemesters is how many semesters of recent notes each pass warms.
	WarmSemesters = 6

	// passTimeout bounds a single warming pass.
	passTimeout = 2 * time.Minute
)

// NoteWarmer is the slice of the notes service the scheduler warms through
type NoteWarmer interface {
	InitialNotes(ctx context.Context) (*notes.ListResponse, error)
	Recent(ctx context.Context, semester, limit int) (*notes.ListResponse, error)
	FilterOptions(ctx context.Context) (*notes.FilterOptions, error)
}

// LeaderboardWarmer is the slice of the aura service the scheduler warms through
type LeaderboardWarmer interface {
	Leaderboard(ctx context.Context, limit int, university string) ([]aura.LeaderboardEntry, error)
}

// Scheduler pre-populates the query cache with the listings the landing
// page requests first: the initial note listing, the top of the
// leaderboard, the filter options, and recent notes per semester. It
// warms through the same service methods the handlers call, so warmed
// entries are exactly the entries later requests read.
type Scheduler struct {
	notes    NoteWarmer
	aura     LeaderboardWarmer
	interval time.Duration
	started  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewScheduler creates a warming scheduler. A non-positive interval
// falls back to DefaultInterval.
func NewScheduler(notesService NoteWarmer, auraService LeaderboardWarmer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		notes:    notesService,
		aura:     auraService,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the warming loop and reports whether this call started
// it. Only the first call per process does anything; later calls are
// no-ops.
func (s *Scheduler) Start() bool {
	if !s.started.CompareAndSwap(false, true) {
		logger.Log.Debug("Cache warming already started, ignoring duplicate start")
		return false
	}

	logger.Log.Info("Starting cache warming scheduler",
		zap.Duration("interval", s.interval),
	)
	go s.run()
	return true
}

// Started reports whether the warming loop has been started.
func (s *Scheduler) Started() bool {
	return s.started.Load()
}

// Stop cancels the warming loop.
func (s *Scheduler) Stop() {
	s.cancel()
}

// run executes an immediate pass, then one per interval.
func (s *Scheduler) run() {
	s.WarmPass(s.ctx, "startup")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.WarmPass(s.ctx, "interval")
		case <-s.ctx.Done():
			return
		}
	}
}

// WarmPass runs every warm operation. Operations are independently fault
// tolerant: a failing query is logged and dropped without blocking the
// others.
func (s *Scheduler) WarmPass(ctx context.Context, trigger string) {
	start := time.Now()
	m := metrics.Get()
	tracker := metrics.GetManager().Warming

	passCtx, cancel := context.WithTimeout(ctx, passTimeout)
	defer cancel()

	type warmOp struct {
		name string
		fn   func(context.Context) error
	}

	ops := []warmOp{
		{"initial_notes", func(ctx context.Context) error {
			_, err := s.notes.InitialNotes(ctx)
			return err
		}},
		{"leaderboard_top", func(ctx context.Context) error {
			_, err := s.aura.Leaderboard(ctx, aura.LeaderboardLimit, "")
			return err
		}},
		{"filter_options", func(ctx context.Context) error {
			_, err := s.notes.FilterOptions(ctx)
			return err
		}},
	}
	for semester := 1; semester <= WarmSemesters; semester++ {
		semester := semester
		ops = append(ops, warmOp{
			name: fmt.Sprintf("recent_notes_semester_%d", semester),
			fn: func(ctx context.Context) error {
				_, err := s.notes.Recent(ctx, semester, notes.DefaultPageSize)
				return err
			},
		})
	}

	var g errgroup.Group
	g.SetLimit(4)
	for _, op := range ops {
		op := op
		g.Go(func() error {
			opStart := time.Now()
			err := op.fn(passCtx)
			tracker.RecordOperation(err)
			if err != nil {
				m.WarmingOperationsTotal.WithLabelValues(op.name, "error").Inc()
				m.WarmingOperationFailures.WithLabelValues(op.name).Inc()
				logger.Log.Warn("Cache warm operation failed",
					zap.String("operation", op.name),
					zap.Error(err),
				)
				return nil
			}
			m.WarmingOperationsTotal.WithLabelValues(op.name, "success").Inc()
			logger.Log.Debug("Cache warm operation completed",
				zap.String("operation", op.name),
				zap.Duration("duration", time.Since(opStart)),
			)
			return nil
		})
	}
	g.Wait()

	duration := time.Since(start)
	tracker.RecordPass(duration)
	m.WarmingPassDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	logger.Log.Info("Cache warming pass completed",
		zap.String("trigger", trigger),
		zap.Int("operations", len(ops)),
		zap.Duration("duration", duration),
	)
}
