package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher stamps events and writes them to a Store plus any forwarders.
// In async mode events are queued and written by a background goroutine;
// Close drains the queue.
type Publisher struct {
	store      Store
	forwarders []Sink
	logger     *slog.Logger

	mu     sync.RWMutex
	queue  chan Event
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithForwarder adds a write-only sink that receives every event after the
// store does.
func WithForwarder(sink Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.forwarders = append(p.forwarders, sink)
		}
	}
}

// WithAsyncBuffer switches the publisher to async mode with the given queue size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan Event, size)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher over store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records an event. In async mode it only fails when the publisher is
// closed or the queue is full.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}

	if p.queue == nil {
		return p.write(ctx, event)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// List returns stored events about subject.
func (p *Publisher) List(ctx context.Context, subject string) ([]Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

// Close stops accepting events and waits for queued ones to be written.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		if p.queue != nil {
			close(p.queue)
		}
	}
	p.mu.Unlock()
	p.wg.Wait()
}

var (
	ErrPublisherClosed = errors.New("audit publisher closed")
	ErrQueueFull       = errors.New("audit queue full")
)

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		if err := p.write(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("failed to write audit event",
				"action", event.Action,
				"error", err,
			)
		}
	}
}

func (p *Publisher) write(ctx context.Context, event Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	var errs []error
	for _, f := range p.forwarders {
		if err := f.Append(ctx, event); err != nil && !errors.Is(err, ErrForwarderOpen) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
