package audit

import (
	"context"
	"errors"
	"log/slog"

	"proptoken/pkg/platform/circuit"
)

// ErrForwarderOpen is returned while a guarded forwarder is skipping calls.
var ErrForwarderOpen = errors.New("audit forwarder circuit open")

// GuardedSink wraps a forwarder in a circuit breaker so an unreachable
// downstream is skipped instead of being retried on every event. The
// primary store still receives every event; only forwarding is dropped.
type GuardedSink struct {
	sink    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedSink(sink Sink, breaker *circuit.Breaker, logger *slog.Logger) *GuardedSink {
	return &GuardedSink{sink: sink, breaker: breaker, logger: logger}
}

func (g *GuardedSink) Append(ctx context.Context, event Event) error {
	if !g.breaker.Allow() {
		return ErrForwarderOpen
	}
	if err := g.sink.Append(ctx, event); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened && g.logger != nil {
			g.logger.WarnContext(ctx, "audit forwarder circuit opened",
				"forwarder", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed && g.logger != nil {
		g.logger.InfoContext(ctx, "audit forwarder circuit closed",
			"forwarder", g.breaker.Name(),
		)
	}
	return nil
}
