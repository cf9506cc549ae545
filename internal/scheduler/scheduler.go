package scheduler

import (
	"context"
	"time"

	"roshi/internal/logger"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context)

// IntervalScheduler fires a task on wall-clock boundaries of Interval
// (e.g. every 2 minutes at :00, :02, ...), shifted by Offset. Market hours
// are the task's concern.
type IntervalScheduler struct {
	Name           string
	Interval       time.Duration
	Offset         time.Duration
	RunImmediately bool

	nowFn func() time.Time
}

func NewIntervalScheduler(name string, interval, offset time.Duration) *IntervalScheduler {
	return &IntervalScheduler{
		Name:     name,
		Interval: interval,
		Offset:   offset,
		nowFn:    time.Now,
	}
}

// Start blocks until ctx is done. It returns early only on invalid setup.
func (s *IntervalScheduler) Start(ctx context.Context, task Task) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("IntervalScheduler: task is nil, exit")
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("IntervalScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if s.Offset < 0 {
		logger.Warnf("IntervalScheduler: negative offset=%s, clamp to 0", s.Offset)
		s.Offset = 0
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	prefix := "IntervalScheduler"
	if s.Name != "" {
		prefix += "[" + s.Name + "]"
	}
	startAt := s.nowFn().UTC()
	logger.Infof("%s: started interval=%s offset=%s run_immediately=%v at=%s",
		prefix, s.Interval, s.Offset, s.RunImmediately, startAt.Format(time.RFC3339))

	if s.RunImmediately {
		s.fire(ctx, prefix, task)
	}

	for {
		now := s.nowFn().UTC()
		wakeAt, wait := s.nextTimes(now)
		logger.Debugf("%s: next run at %s (in %s) | uptime=%s",
			prefix, wakeAt.Format(time.RFC3339), wait.Truncate(time.Second), now.Sub(startAt).Truncate(time.Second))

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.Infof("%s: ctx done, exit", prefix)
				return
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			logger.Infof("%s: ctx done, exit", prefix)
			return
		}
		s.fire(ctx, prefix, task)
	}
}

// fire runs the task once. A panicking task is logged and the loop keeps going.
func (s *IntervalScheduler) fire(ctx context.Context, prefix string, task Task) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("%s: task panic: %v", prefix, r)
		}
	}()
	task(ctx)
}

func (s *IntervalScheduler) nextTimes(now time.Time) (wakeAt time.Time, wait time.Duration) {
	now = now.UTC()
	wakeAt = now.Truncate(s.Interval).Add(s.Offset)
	if !wakeAt.After(now) {
		wakeAt = now.Truncate(s.Interval).Add(s.Interval).Add(s.Offset)
	}
	return wakeAt, wakeAt.Sub(now)
}
