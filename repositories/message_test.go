package repositories

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"social-chat/domain"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var (
	alice = domain.Identity{ID: "alice-id", DisplayName: "Alice"}
	bob   = domain.Identity{ID: "bob-id", DisplayName: "Bob"}
)

func TestMessageRepository_RoundTrip(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	groupID := uuid.New()

	// When a group-scoped message is appended
	msg, err := repo.Append(alice, "hello", &groupID)

	// Then the persisted record is stamped by the server
	req.NoError(err)
	req.NotEqual(uuid.Nil, msg.ID)
	req.False(msg.CreatedAt.IsZero())
	req.Equal("alice-id", msg.SenderID)
	req.Equal("Alice", msg.SenderName)

	// And the room's history contains exactly that one message
	messages, err := repo.ListByRoom(domain.RoomForGroup(groupID))
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(msg, messages[0])
}

func TestMessageRepository_RoomsAreDisjoint(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	groupID := uuid.New()

	// Given one general and one group-scoped message
	_, err := repo.Append(alice, "to everyone", nil)
	req.NoError(err)
	_, err = repo.Append(alice, "to the group", &groupID)
	req.NoError(err)

	// Then each room only returns its own messages
	general, err := repo.ListByRoom(domain.GeneralRoom)
	req.NoError(err)
	req.Len(general, 1)
	req.Equal("to everyone", general[0].Content)
	req.Nil(general[0].GroupID)

	scoped, err := repo.ListByRoom(domain.RoomForGroup(groupID))
	req.NoError(err)
	req.Len(scoped, 1)
	req.Equal("to the group", scoped[0].Content)
}

func TestMessageRepository_AppendOrder(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default(), nil)

	// Given a burst of appends from two senders
	first, err := repo.Append(alice, "m1", nil)
	req.NoError(err)
	second, err := repo.Append(bob, "m2", nil)
	req.NoError(err)
	third, err := repo.Append(alice, "m3", nil)
	req.NoError(err)

	// Then a later append always occupies a strictly greater position
	req.True(second.CreatedAt.After(first.CreatedAt))
	req.True(third.CreatedAt.After(second.CreatedAt))

	// And the history comes back in append order
	messages, err := repo.ListByRoom(domain.GeneralRoom)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal([]string{"m1", "m2", "m3"},
		[]string{messages[0].Content, messages[1].Content, messages[2].Content})
}

func TestMessageRepository_Limit(t *testing.T) {
	req := require.New(t)
	limit := 2
	repo := NewMessageRepository(newTestDB(t), slog.Default(), &limit)

	for _, content := range []string{"a", "b", "c"} {
		_, err := repo.Append(alice, content, nil)
		req.NoError(err)
	}

	messages, err := repo.ListByRoom(domain.GeneralRoom)
	req.NoError(err)
	req.Len(messages, limit)
}

func TestMessageRepository_EmptyRoom(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default(), nil)

	messages, err := repo.ListByRoom(domain.RoomForGroup(uuid.New()))
	req.NoError(err)
	req.Empty(messages)
}
