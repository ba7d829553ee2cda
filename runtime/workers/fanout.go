package workers

import (
	"context"
	"log/slog"

	"social-chat/contract"
	"social-chat/domain/event"
)

// FanoutWorker delivers persisted messages to every connection currently
// subscribed to the target room.
//
// Delivery is best-effort per target: a full or closed sink is logged and
// skipped, it never aborts delivery to the others and never fails the send.
// Durability has already happened by the time an event reaches this worker;
// a subscriber that misses a live push recovers through history backfill.
//
// A single FanoutWorker drains the broadcaster's channel, so per-room
// delivery order is the persistence order.
type FanoutWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	events   chan event.DomainEvent
}

func NewFanoutWorker(log *slog.Logger, registry contract.IRegistry,
	events chan event.DomainEvent) *FanoutWorker {
	return &FanoutWorker{log: log, registry: registry, events: events}
}

func (w *FanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout takes one subscriber snapshot and pushes the event to each target.
// The true live set may change mid-pass; a connection that disconnects while
// we deliver is simply dropped for this one event.
func (w *FanoutWorker) Fanout(ctx context.Context, evt event.DomainEvent) {
	subscribers := w.registry.SubscribersOf(evt.RoomKey())
	for _, sub := range subscribers {
		if err := sub.Sink.Consume(ctx, evt); err != nil {
			w.log.Warn("Best-effort delivery failed for one subscriber",
				"connection_id", sub.ID,
				"room", evt.RoomKey(),
				"error", err)
		}
	}
}
