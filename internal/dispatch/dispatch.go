// Package dispatch hands finished campaigns to side-effect sinks (analytics,
// vector index) off the request path.
package dispatch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"creative-automation/internal/campaign"
)

type Sink interface {
	Name() string
	Handle(ctx context.Context, c *campaign.Campaign) error
}

type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, c *campaign.Campaign) error
}

func (f SinkFunc) Name() string { return f.SinkName }

func (f SinkFunc) Handle(ctx context.Context, c *campaign.Campaign) error { return f.Fn(ctx, c) }

type Options struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Dispatcher runs every sink for each submitted campaign on a small worker
// pool. Sink failures are logged and never reach the submitter.
type Dispatcher struct {
	sinks   []Sink
	queue   chan *campaign.Campaign
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New(sinks []Sink, opts Options) *Dispatcher {
	size := opts.QueueSize
	if size <= 0 {
		size = 64
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 2
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Dispatcher{
		sinks:   append([]Sink(nil), sinks...),
		queue:   make(chan *campaign.Campaign, size),
		timeout: timeout,
		logger:  logger,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Submit enqueues c without blocking. It returns false when the queue is full
// or the dispatcher is closed; the campaign is then dropped.
func (d *Dispatcher) Submit(c *campaign.Campaign) bool {
	if c == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- c:
		return true
	default:
		d.logger.Warn("dispatch queue full, dropping side effects", "campaign_id", c.ID)
		return false
	}
}

// Close stops accepting work and waits for queued campaigns to drain or ctx
// to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for c := range d.queue {
		for _, s := range d.sinks {
			d.run(s, c)
		}
	}
}

func (d *Dispatcher) run(s Sink, c *campaign.Campaign) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("sink panicked", "sink", s.Name(), "campaign_id", c.ID, "panic", r)
		}
	}()

	start := time.Now()
	if err := s.Handle(ctx, c); err != nil {
		d.logger.Warn("sink failed", "sink", s.Name(), "campaign_id", c.ID, "err", err, "duration", time.Since(start).String())
		return
	}
	d.logger.Debug("sink done", "sink", s.Name(), "campaign_id", c.ID, "duration", time.Since(start).String())
}
