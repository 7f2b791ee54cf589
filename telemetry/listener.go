package telemetry

import (
	"context"
	"log"
)

// Listener drains a Publisher on a background goroutine and hands every
// Record to handler. Stop cancels the background loop; it does not wait for
// the goroutine to observe cancellation.
type Listener struct {
	publisher *Publisher
	handler   func(Record)
	cancel    context.CancelFunc
}

// NewListener creates a Listener bound to publisher. Call Start to begin
// draining.
func NewListener(publisher *Publisher, handler func(Record)) *Listener {
	return &Listener{publisher: publisher, handler: handler}
}

// Start begins draining the publisher on a new goroutine.
func (l *Listener) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			record, err := l.publisher.Consume(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("telemetry: error consuming record: %v", err)
				continue
			}
			if record == nil {
				continue
			}
			l.handler(*record)
		}
	}()
}

// Stop cancels the background drain loop.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
}
