package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/model"
)

// State is the scheduler lifecycle state
type State int

const (
	// Idle means no timer is armed
	Idle State = iota
	// Running means a repeating fetch is scheduled
	Running
)

// FetchFunc fetches one page of notifications
type FetchFunc func(ctx context.Context, page, pageSize int) (*model.NotificationPage, error)

// Callback receives each successful fetch result
type Callback func(page *model.NotificationPage)

// Poller drives periodic re-fetching of the notification feed. It owns an
// explicit Idle/Running state machine: Start while Running is a no-op, so a
// duplicate subscription can never arm a second timer, and Stop is idempotent.
//
// A tick that fails is logged and swallowed; the schedule continues. A fetch
// still in flight when Stop is called has its result discarded rather than
// delivered into a torn-down consumer.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	state State
	gen   int
	stop  chan struct{}
	done  sync.WaitGroup
}

// New creates a poller that invokes fetch every interval
func New(fetch FetchFunc, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		fetch:    fetch,
		interval: interval,
		logger:   logger,
		state:    Idle,
	}
}

// State returns the current lifecycle state
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start performs one immediate fetch and then repeats at the configured
// interval until Stop is called. Calling Start while already running does
// nothing.
func (p *Poller) Start(callback Callback, page, pageSize int) {
	p.mu.Lock()
	if p.state == Running {
		p.mu.Unlock()
		p.logger.Debug("poller already running, ignoring duplicate start")
		return
	}
	p.state = Running
	p.gen++
	gen := p.gen
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()

	p.done.Add(1)
	go func() {
		defer p.done.Done()

		p.tick(gen, callback, page, pageSize)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.tick(gen, callback, page, pageSize)
			}
		}
	}()
}

// Stop cancels the schedule. Safe to call multiple times or before Start.
// An in-flight fetch is not interrupted, but its result is discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return
	}
	p.state = Idle
	close(p.stop)
	p.stop = nil
	p.mu.Unlock()
}

// Wait blocks until the polling goroutine has exited. Intended for tests and
// orderly shutdown.
func (p *Poller) Wait() {
	p.done.Wait()
}

// tick performs one fetch and delivers the result, unless the poller was
// stopped (or restarted) while the fetch was in flight.
func (p *Poller) tick(gen int, callback Callback, page, pageSize int) {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	result, err := p.fetch(ctx, page, pageSize)
	if err != nil {
		// Transient failures must not break the schedule
		p.logger.Warn("notification poll tick failed", zap.Error(err))
		return
	}

	p.mu.Lock()
	stale := p.state != Running || p.gen != gen
	p.mu.Unlock()
	if stale {
		p.logger.Debug("discarding poll result after stop")
		return
	}

	callback(result)
}
