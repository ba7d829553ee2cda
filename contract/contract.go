package contract

import (
	"context"
	"reflect"

	"github.com/google/uuid"

	"social-chat/domain"
	"social-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one live connection's inbound side of the fan-out.
// Consume must never block the caller beyond ctx; a full or closed sink
// returns an error instead.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type ConnectionID = uuid.UUID

// Subscriber is one entry of a point-in-time subscriber snapshot.
type Subscriber struct {
	ID       ConnectionID
	Identity domain.Identity
	Sink     EventSink
}

// IRegistry tracks live connections and their current room subscription.
type IRegistry interface {
	Register(identity domain.Identity, sink EventSink) ConnectionID
	SetRoom(id ConnectionID, room domain.RoomKey) error
	Unregister(id ConnectionID)
	SubscribersOf(room domain.RoomKey) []Subscriber
}
