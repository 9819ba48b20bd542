package messaging

import (
	"context"
	"sync"
	"time"

	"eventcraft/internal/infrastructure/metrics"
	"eventcraft/pkg/logger"
)

const (
	outcomeApplied = "applied"
	outcomeSkipped = "skipped"
	outcomeStale   = "stale"
	outcomeFailed  = "failed"
)

// poller fetches immediately, then on every tick. At most one fetch is in
// flight: ticks that fire while loading are dropped, and a refresh request
// made while loading runs once as soon as the fetch settles.
type poller[T any] struct {
	concern  string
	interval time.Duration
	fetch    func(ctx context.Context) (T, error)
	// apply reports false when the result no longer belongs to the view.
	apply func(T) bool

	ctx     context.Context
	cancel  context.CancelFunc
	refresh chan struct{}
	done    chan struct{}

	loaded   chan struct{}
	loadOnce sync.Once
	loadErr  error
}

func newPoller[T any](parent context.Context, concern string, interval time.Duration, fetch func(context.Context) (T, error)) *poller[T] {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	return &poller[T]{
		concern:  concern,
		interval: interval,
		fetch:    fetch,
		ctx:      ctx,
		cancel:   cancel,
		refresh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		loaded:   make(chan struct{}),
	}
}

type pollResult[T any] struct {
	value T
	err   error
}

func (p *poller[T]) start() {
	go p.run()
}

func (p *poller[T]) run() {
	defer close(p.done)
	defer p.markLoaded(context.Canceled)

	// buffered so an abandoned fetch can still finish and exit
	results := make(chan pollResult[T], 1)
	loading, dirty := false, false
	launch := func() {
		loading = true
		go func() {
			v, err := p.fetch(p.ctx)
			results <- pollResult[T]{value: v, err: err}
		}()
	}

	launch()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if loading {
				p.count(outcomeSkipped)
				continue
			}
			launch()
		case <-p.refresh:
			if loading {
				dirty = true
				continue
			}
			launch()
		case r := <-results:
			loading = false
			p.settle(r)
			p.markLoaded(r.err)
			if dirty {
				dirty = false
				launch()
			}
		}
	}
}

func (p *poller[T]) settle(r pollResult[T]) {
	switch {
	case p.ctx.Err() != nil:
		p.count(outcomeStale)
	case r.err != nil:
		logger.With("concern", p.concern).Warnf("Poll failed: %v", r.err)
		p.count(outcomeFailed)
	case !p.apply(r.value):
		p.count(outcomeStale)
	default:
		p.count(outcomeApplied)
	}
}

func (p *poller[T]) count(outcome string) {
	metrics.PollTicks.WithLabelValues(p.concern, outcome).Inc()
}

func (p *poller[T]) markLoaded(err error) {
	p.loadOnce.Do(func() {
		p.loadErr = err
		close(p.loaded)
	})
}

// waitLoaded blocks until the first fetch settled or ctx is done.
func (p *poller[T]) waitLoaded(ctx context.Context) error {
	select {
	case <-p.loaded:
		return p.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestRefresh asks for an out-of-band fetch. Requests coalesce.
func (p *poller[T]) requestRefresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// stop ends the timer loop and waits for it. An in-flight fetch is abandoned,
// not awaited; its result is discarded.
func (p *poller[T]) stop() {
	p.cancel()
	<-p.done
}
