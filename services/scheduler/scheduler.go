package scheduler

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/services/worker"
)

var (
	// ErrQueueFull is returned by RunNow when a manual run is already queued
	ErrQueueFull = stderrors.New("a manual run is already queued")
	// ErrNotStarted is returned by RunNow before Start or after Stop
	ErrNotStarted = stderrors.New("scheduler is not running")
	// ErrAlreadyStarted is returned by a second Start
	ErrAlreadyStarted = stderrors.New("scheduler already started")
)

// State is the scheduler's position in its Idle/Running cycle
type State string

const (
	Idle    State = "idle"
	Running State = "running"
)

// Runner executes one full pass over all categories
type Runner interface {
	Run(ctx context.Context, limit int) worker.RunReport
}

// Scheduler triggers pipeline passes: one at start, then on every trigger
// fire, plus queued manual requests. Passes never overlap.
type Scheduler struct {
	runner  Runner
	trigger Trigger
	limit   int
	log     *logger.Logger

	running  atomic.Bool
	ticks    chan struct{}
	requests chan int

	mu     sync.Mutex
	last   *worker.RunReport
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a scheduler; limit is the item limit of triggered passes
func New(runner Runner, trigger Trigger, limit int) *Scheduler {
	return &Scheduler{
		runner:   runner,
		trigger:  trigger,
		limit:    limit,
		log:      logger.ForScheduler(),
		ticks:    make(chan struct{}, 1),
		requests: make(chan int, 1),
	}
}

// Start runs an immediate pass in the background and arms the trigger
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	s.trigger.Start(s.fire)

	s.log.Info().Int("limit", s.limit).Msg("scheduler started")
	return nil
}

// Stop disarms the trigger and waits for the current item to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if done == nil {
		return
	}

	s.trigger.Stop()
	cancel()
	<-done

	s.mu.Lock()
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow queues a one-off pass with the given item limit
func (s *Scheduler) RunNow(limit int) error {
	s.mu.Lock()
	started := s.done != nil
	s.mu.Unlock()

	if !started {
		return ErrNotStarted
	}

	select {
	case s.requests <- limit:
		s.log.Info().Int("limit", limit).Msg("manual run queued")
		return nil
	default:
		return ErrQueueFull
	}
}

// State reports whether a pass is in progress
func (s *Scheduler) State() State {
	if s.running.Load() {
		return Running
	}
	return Idle
}

// LastReport returns the report of the last finished pass, if any
func (s *Scheduler) LastReport() (worker.RunReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return worker.RunReport{}, false
	}
	return *s.last, true
}

// fire is called by the trigger; a fire during a pass is dropped
func (s *Scheduler) fire() {
	if s.running.Load() {
		s.log.Debug().Msg("pass still running; trigger skipped")
		return
	}
	select {
	case s.ticks <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.pass(ctx, s.limit)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ticks:
			s.pass(ctx, s.limit)
		case limit := <-s.requests:
			s.pass(ctx, limit)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context, limit int) {
	if ctx.Err() != nil {
		return
	}

	s.running.Store(true)
	defer s.running.Store(false)

	// This pass satisfies any tick that raced with it
	select {
	case <-s.ticks:
	default:
	}

	report := s.runner.Run(ctx, limit)

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
}
