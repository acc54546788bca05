package scheduler

import (
	"context"
	"sync"
	"time"

	"ProcureAI/internal/ports"
)

// IntervalScheduler runs a job on a fixed period using time.Ticker.
// Ticks that arrive while the job is still running are dropped.
type IntervalScheduler struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler firing every interval.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{interval: interval}
}

// Start begins ticking. The first run happens one interval after Start.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || s.interval <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine and waits for a running job to finish,
// or for ctx to expire.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
