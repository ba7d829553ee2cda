package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"social-chat/domain"
	"social-chat/domain/event"
	"social-chat/errors"
	"social-chat/repositories"
)

// Broadcaster is the fan-out engine's inbound half. A send moves through
// authorization, persistence, and dispatch; failure exits reject the send
// before anything is persisted or delivered. The canonical persisted message
// is returned to the sender synchronously, whether or not the sender is
// subscribed to the target room, so the client can reconcile its optimistic
// echo.
//
// Persist and enqueue happen under one lock: the dispatch order on the
// events channel is exactly the persistence order, and the single fanout
// consumer preserves it per room all the way to the subscribers.
type Broadcaster struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	groups   repositories.IGroupRepository
	events   chan event.DomainEvent

	mu sync.Mutex
}

func NewBroadcaster(log *slog.Logger, messages repositories.IMessageRepository,
	groups repositories.IGroupRepository, bufferSize int) *Broadcaster {
	return &Broadcaster{
		log:      log,
		messages: messages,
		groups:   groups,
		events:   make(chan event.DomainEvent, bufferSize),
	}
}

// Events is drained by the fanout worker.
func (b *Broadcaster) Events() chan event.DomainEvent {
	return b.events
}

// Send runs one inbound message through the whole pipeline.
//
// A group-scoped send by a non-member fails with ErrForbidden and leaves no
// trace: not persisted, not broadcast. A store failure is surfaced to the
// sender as a failed send; there is never a broadcast without a matching
// persisted record.
func (b *Broadcaster) Send(ctx context.Context, sender domain.Identity,
	content string, groupID *uuid.UUID) (domain.Message, error) {
	if groupID != nil {
		member, err := b.groups.IsMember(*groupID, sender.ID)
		if err != nil {
			return domain.Message{}, err
		}
		if !member {
			return domain.Message{}, fmt.Errorf("%w: group %s", errors.ErrForbidden, groupID)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	msg, err := b.messages.Append(sender, content, groupID)
	if err != nil {
		if !stderrors.Is(err, errors.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
		}
		return domain.Message{}, err
	}

	select {
	case <-ctx.Done():
		// Persisted but not pushed live; subscribers recover it via history.
		b.log.Warn("Send canceled after persistence, skipping live dispatch",
			"message_id", msg.ID, "room", msg.Room())
		return msg, nil
	case b.events <- event.MessageBroadcast{Message: msg}:
	}
	return msg, nil
}
