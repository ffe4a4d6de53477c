package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Poller runs Fetch once when started and then on every Interval tick while
// Gate reports true. The ticker is rebuilt from the current gate on Notify.
type Poller struct {
	Name     string
	Interval time.Duration
	Gate     func() bool
	Fetch    func(ctx context.Context)

	mu       sync.Mutex
	cancel   context.CancelFunc
	notify   chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
}

// Start performs one unconditional fetch and starts the gated loop.
// Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	notify := make(chan struct{}, 1)
	done := make(chan struct{})
	p.cancel, p.notify, p.done = cancel, notify, done
	p.mu.Unlock()

	p.spawn(ctx)
	go p.loop(ctx, notify, done)
}

// Notify asks the loop to re-read the gate. It never blocks.
func (p *Poller) Notify() {
	p.mu.Lock()
	notify := p.notify
	p.mu.Unlock()
	if notify == nil {
		return
	}
	select {
	case notify <- struct{}{}:
	default:
	}
}

// Stop cancels the loop and in-flight fetches and waits for them to return.
// It is safe to call more than once; a stopped poller can be started again.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.notify, p.done = nil, nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.inflight.Wait()
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, notify <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var ticker *time.Ticker
	var tick <-chan time.Time
	rebuild := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if p.open() && p.Interval > 0 {
			ticker = time.NewTicker(p.Interval)
			tick = ticker.C
		}
		log.Debug().Str("poller", p.Name).Bool("ticking", tick != nil).Msg("poller rebuilt")
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	rebuild()
	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
			rebuild()
		case <-tick:
			if p.open() {
				p.spawn(ctx)
			}
		}
	}
}

func (p *Poller) open() bool {
	return p.Gate == nil || p.Gate()
}

func (p *Poller) spawn(ctx context.Context) {
	if p.Fetch == nil {
		return
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("poller", p.Name).Interface("panic", r).Msg("fetch panicked")
			}
		}()
		p.Fetch(ctx)
	}()
}
