package telemetry

import (
	"context"

	"github.com/concordrt/concord/service/messaging"
	"github.com/concordrt/concord/service/messaging/memory"
)

// Sink receives every Record emitted by the runtime. Implementations must
// not block the caller for long: Emit is called synchronously from the
// governance operation that produced the event.
type Sink interface {
	Emit(ctx context.Context, r Record)
}

// Publisher is the default Sink: it pushes records onto a messaging.Queue
// and never blocks the caller — a full queue drops the record rather than
// stalling a governance operation, mirroring the "never block on telemetry"
// discipline the core's error-handling design requires of the pool.
type Publisher struct {
	queue messaging.Queue[Record]
}

// NewPublisher wraps an existing queue. When queue is nil, a bounded
// in-memory queue with the default configuration is created.
func NewPublisher(queue messaging.Queue[Record]) *Publisher {
	if queue == nil {
		queue = memory.NewQueue[Record](memory.DefaultConfig())
	}
	return &Publisher{queue: queue}
}

// Emit publishes r without blocking the caller longer than the queue's
// buffering allows; a context.Canceled on a background ctx simply drops it.
func (p *Publisher) Emit(ctx context.Context, r Record) {
	_ = p.queue.Publish(ctx, &r)
}

// Consume retrieves and acknowledges the next record. Used by Listener and
// by tests that want to drain the stream synchronously.
func (p *Publisher) Consume(ctx context.Context) (*Record, error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
