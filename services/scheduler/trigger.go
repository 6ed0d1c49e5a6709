package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
)

// Trigger calls fire whenever a new pass is due
type Trigger interface {
	Start(fire func())
	Stop()
}

// Ticker is the part of time.Ticker the interval trigger uses
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop() { r.t.Stop() }

// IntervalTrigger fires at a fixed interval
type IntervalTrigger struct {
	interval  time.Duration
	newTicker func(time.Duration) Ticker

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewIntervalTrigger creates a trigger backed by time.Ticker
func NewIntervalTrigger(interval time.Duration) *IntervalTrigger {
	return &IntervalTrigger{
		interval: interval,
		newTicker: func(d time.Duration) Ticker {
			return realTicker{t: time.NewTicker(d)}
		},
	}
}

// Start begins ticking in the background; it is a no-op while already started
func (t *IntervalTrigger) Start(fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}

	ticker := t.newTicker(t.interval)
	stop := make(chan struct{})
	t.stop = stop

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				fire()
			}
		}
	}()
}

// Stop halts the ticker and waits for the loop to exit
func (t *IntervalTrigger) Stop() {
	t.mu.Lock()
	stop := t.stop
	t.stop = nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	t.wg.Wait()
}

// CronTrigger fires on a cron schedule ("*/30 * * * *", "@every 30m")
type CronTrigger struct {
	spec string
	cron *cron.Cron

	mu      sync.Mutex
	entry   cron.EntryID
	started bool
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewCronTrigger validates spec and creates the trigger
func NewCronTrigger(spec string) (*CronTrigger, error) {
	if _, err := cronParser.Parse(spec); err != nil {
		return nil, errors.NewConfiguration("invalid crawl schedule "+spec, err)
	}

	cronLogger := cron.PrintfLogger(logger.ForScheduler())
	return &CronTrigger{
		spec: spec,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.Recover(cronLogger)),
			cron.WithLogger(cronLogger),
		),
	}, nil
}

// Start registers fire on the schedule and starts the cron runner
func (t *CronTrigger) Start(fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}

	// spec was validated in NewCronTrigger
	t.entry, _ = t.cron.AddFunc(t.spec, fire)
	t.started = true
	t.cron.Start()
}

// Stop removes the entry, stops the cron runner and waits for a running fire to return
func (t *CronTrigger) Stop() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	t.cron.Remove(t.entry)
	done := t.cron.Stop().Done()
	t.mu.Unlock()

	<-done
}
