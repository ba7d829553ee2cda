// Package sink carries persisted messages from the fanout to one live
// connection through a bounded channel, never a direct call across tasks.
package sink

import (
	"context"
	"sync"

	"social-chat/domain/event"
	"social-chat/errors"
)

// Connection is the outbound side of one live connection.
// Consume is called by the fanout; the transport's writer goroutine drains
// Events and pushes frames on the wire.
type Connection struct {
	Events chan event.DomainEvent

	done chan struct{}
	once sync.Once
}

func NewConnection(bufferSize int) *Connection {
	return &Connection{
		Events: make(chan event.DomainEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume hands an event to the connection without ever blocking the fanout.
// A closed connection or a full buffer is reported to the caller, which
// treats it as a best-effort delivery failure for this one target.
func (c *Connection) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case c.Events <- e:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// Done is closed when the connection goes away. The writer goroutine selects
// on it to stop draining Events.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close marks the connection dead. Safe to call more than once; an in-flight
// delivery observes it and is dropped for this target only.
func (c *Connection) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}
