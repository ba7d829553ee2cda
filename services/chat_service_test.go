package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"social-chat/domain"
	"social-chat/errors"
	"social-chat/repositories"
	"social-chat/runtime"
)

var alice = domain.Identity{ID: "alice", DisplayName: "Alice"}

func newChatService(t *testing.T) *ChatService {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	messages := repositories.NewMessageRepository(db, slog.Default(), nil)
	groups := repositories.NewGroupRepository(db)
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(slog.Default(), messages, groups, 16)

	return NewChatService(broadcaster, messages, registry)
}

func TestChatService_PostMessageAndHistory(t *testing.T) {
	req := require.New(t)
	svc := newChatService(t)

	// When Alice posts to the general room
	msg, err := svc.PostMessage(context.Background(), alice, "hello", nil)

	// Then the persisted record carries the server-assigned fields
	req.NoError(err)
	req.NotEqual(uuid.Nil, msg.ID)
	req.False(msg.CreatedAt.IsZero())

	// And the history read path returns it
	history, err := svc.History(nil)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("hello", history[0].Content)
}

func TestChatService_RejectsEmptyContent(t *testing.T) {
	req := require.New(t)
	svc := newChatService(t)

	_, err := svc.PostMessage(context.Background(), alice, "", nil)

	req.ErrorIs(err, errors.ErrInvalidRequest)
}

func TestChatService_RejectsOversizedContent(t *testing.T) {
	req := require.New(t)
	svc := newChatService(t)

	_, err := svc.PostMessage(context.Background(), alice, strings.Repeat("a", 4097), nil)

	req.ErrorIs(err, errors.ErrInvalidRequest)

	// And nothing was persisted
	history, err := svc.History(nil)
	req.NoError(err)
	req.Empty(history)
}

func TestChatService_PostAttachment(t *testing.T) {
	req := require.New(t)
	svc := newChatService(t)

	// When Alice shares an uploaded file by URL
	msg, err := svc.PostAttachment(context.Background(), alice, "https://cdn.example.com/u/abc123.png", nil)

	// Then it lands in the same stream as a text message
	req.NoError(err)
	history, err := svc.History(nil)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(msg.ID, history[0].ID)
}

func TestChatService_AttachmentRequiresURL(t *testing.T) {
	req := require.New(t)
	svc := newChatService(t)

	_, err := svc.PostAttachment(context.Background(), alice, "not a url", nil)

	req.ErrorIs(err, errors.ErrInvalidRequest)
}
