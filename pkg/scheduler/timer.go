package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/chris/money-movement/pkg/bus"
	"go.uber.org/zap"
)

// TimerScheduler publishes cues on the local bus from in-process timers. It
// is used when no queue is configured; pending cues are lost on restart.
type TimerScheduler struct {
	publisher bus.Publisher
	logger    *zap.Logger

	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

// NewTimerScheduler creates a TimerScheduler.
func NewTimerScheduler(publisher bus.Publisher, logger *zap.Logger) *TimerScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimerScheduler{
		publisher: publisher,
		logger:    logger.Named("scheduler"),
		timers:    make(map[*time.Timer]struct{}),
	}
}

var _ Scheduler = (*TimerScheduler)(nil)

func (s *TimerScheduler) ScheduleSettlement(_ context.Context, cue SettlementCue, delay time.Duration) error {
	if err := cue.Validate(); err != nil {
		return err
	}
	cue.DueAt = time.Now().Add(delay).UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, live := s.timers[timer]
		delete(s.timers, timer)
		s.mu.Unlock()
		if live {
			s.fire(cue)
		}
	})
	s.timers[timer] = struct{}{}
	return nil
}

func (s *TimerScheduler) fire(cue SettlementCue) {
	s.logger.Info("settlement cue due", zap.String("swap_id", cue.SwapID))
	for _, t := range cue.Topics {
		if err := s.publisher.Publish(t); err != nil {
			s.logger.Warn("failed to publish cue", zap.String("topic", string(t)), zap.Error(err))
		}
	}
}

// Pending returns the number of cues not yet delivered.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending cue. Later calls to ScheduleSettlement are
// ignored.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for t := range s.timers {
		t.Stop()
		delete(s.timers, t)
	}
}
