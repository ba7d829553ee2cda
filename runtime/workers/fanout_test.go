package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"social-chat/contract"
	"social-chat/domain"
	"social-chat/domain/event"
	"social-chat/errors"
)

type stubRegistry struct {
	subscribers []contract.Subscriber
}

func (s *stubRegistry) Register(domain.Identity, contract.EventSink) contract.ConnectionID {
	return uuid.New()
}
func (s *stubRegistry) SetRoom(contract.ConnectionID, domain.RoomKey) error { return nil }
func (s *stubRegistry) Unregister(contract.ConnectionID)                    {}
func (s *stubRegistry) SubscribersOf(domain.RoomKey) []contract.Subscriber {
	return s.subscribers
}

type recordingSink struct {
	consumed atomic.Int32
	fail     error
}

func (s *recordingSink) Consume(context.Context, event.DomainEvent) error {
	s.consumed.Add(1)
	return s.fail
}

func broadcastOf(content string) event.MessageBroadcast {
	return event.MessageBroadcast{Message: domain.Message{
		ID:        uuid.New(),
		SenderID:  "alice-id",
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}}
}

func TestFanoutWorker_DeliversToEverySubscriber(t *testing.T) {
	req := require.New(t)
	sink1 := &recordingSink{}
	sink2 := &recordingSink{}
	registry := &stubRegistry{subscribers: []contract.Subscriber{
		{ID: uuid.New(), Sink: sink1},
		{ID: uuid.New(), Sink: sink2},
	}}

	worker := NewFanoutWorker(slog.Default(), registry, nil)

	// When one event fans out
	worker.Fanout(context.Background(), broadcastOf("hi"))

	// Then every subscriber of the snapshot got it once
	req.Equal(int32(1), sink1.consumed.Load())
	req.Equal(int32(1), sink2.consumed.Load())
}

func TestFanoutWorker_FailedTargetIsIsolated(t *testing.T) {
	req := require.New(t)

	// Given the first target's channel just closed
	broken := &recordingSink{fail: errors.ErrConnectionClosed}
	healthy := &recordingSink{}
	registry := &stubRegistry{subscribers: []contract.Subscriber{
		{ID: uuid.New(), Sink: broken},
		{ID: uuid.New(), Sink: healthy},
	}}

	worker := NewFanoutWorker(slog.Default(), registry, nil)

	// When the event fans out
	worker.Fanout(context.Background(), broadcastOf("hi"))

	// Then the failure is swallowed and the rest are still served
	req.Equal(int32(1), broken.consumed.Load())
	req.Equal(int32(1), healthy.consumed.Load())
}

func TestFanoutWorker_RunDrainsChannelUntilCanceled(t *testing.T) {
	req := require.New(t)
	sink := &recordingSink{}
	registry := &stubRegistry{subscribers: []contract.Subscriber{{ID: uuid.New(), Sink: sink}}}

	events := make(chan event.DomainEvent, 2)
	worker := NewFanoutWorker(slog.Default(), registry, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	events <- broadcastOf("m1")
	events <- broadcastOf("m2")

	req.Eventually(func() bool { return sink.consumed.Load() == 2 },
		time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("worker did not stop on cancellation")
	}
}
