package scheduler

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work, such as the periodic reputation
// sweep. Tasks must be safe to run again after a panic.
type Task func()

// Scheduler runs named tasks on an interval or after a one-shot delay.
// Re-adding a name replaces the previous schedule for it.
type Scheduler struct {
	mu        sync.Mutex
	periodics map[string]*periodic
	delays    map[string]*time.Timer
	logger    *zap.Logger
	done      chan struct{}
}

type periodic struct {
	ticker *time.Ticker
	cancel chan struct{}
}

// New creates an empty Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		periodics: make(map[string]*periodic),
		delays:    make(map[string]*time.Timer),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// AddTicker schedules fn to run every interval under the given name.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.periodics[name]; ok {
		close(prev.cancel)
	}
	p := &periodic{
		ticker: time.NewTicker(interval),
		cancel: make(chan struct{}),
	}
	s.periodics[name] = p
	go s.run(name, p, fn)

	s.logger.Info("task scheduled",
		zap.String("task", name), zap.Duration("every", interval))
}

func (s *Scheduler) run(name string, p *periodic, fn Task) {
	defer p.ticker.Stop()
	for {
		select {
		case <-p.ticker.C:
			s.invoke(name, fn)
		case <-p.cancel:
			return
		case <-s.done:
			return
		}
	}
}

// invoke runs one task execution; a panic is logged and the schedule
// keeps going.
func (s *Scheduler) invoke(name string, fn Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked",
				zap.String("task", name), zap.Any("panic", r))
		}
	}()
	fn()
}

// AddDelay schedules fn to run once after delay.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.delays[name]; ok {
		prev.Stop()
	}
	s.delays[name] = time.AfterFunc(delay, func() {
		defer func() {
			s.mu.Lock()
			delete(s.delays, name)
			s.mu.Unlock()
		}()
		s.invoke(name, fn)
	})
}

// Remove cancels the named task, periodic or delayed. Unknown names are
// ignored.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.periodics[name]; ok {
		close(p.cancel)
		delete(s.periodics, name)
	}
	if t, ok := s.delays[name]; ok {
		t.Stop()
		delete(s.delays, name)
	}
}

// Stop cancels every periodic task. Safe to call more than once.
func (s *Scheduler) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// ListTickers returns the names of the periodic tasks, sorted. The admin
// metrics endpoint exposes this list.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.periodics))
	for name := range s.periodics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
