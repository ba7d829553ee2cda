package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"social-chat/domain"
	"social-chat/errors"
)

type IMessageRepository interface {
	Append(sender domain.Identity, content string, groupID *uuid.UUID) (domain.Message, error)
	ListByRoom(room domain.RoomKey) ([]domain.Message, error)
}

// MessageRepository is the append-only durable log of messages.
// Appends are linearized under an internal lock so that two concurrent
// appends to the same room always agree on a single total order.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int

	mu       sync.Mutex
	lastNano int64
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the stored representation of a message.
type diskMessage struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"sender_id"`
	SenderName string     `json:"sender_name"`
	Content    string     `json:"content"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
	At         int64      `json:"at"`
}

// Append stamps the message with a server-assigned id and timestamp and
// persists it. The key is formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// The timestamp is forced strictly monotonic across appends so a later
// append always occupies a strictly greater position in the log.
func (m *MessageRepository) Append(sender domain.Identity, content string, groupID *uuid.UUID) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC().UnixNano()
	if now <= m.lastNano {
		now = m.lastNano + 1
	}
	m.lastNano = now

	msg := domain.Message{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		SenderName: sender.DisplayName,
		Content:    content,
		GroupID:    groupID,
		CreatedAt:  time.Unix(0, now).UTC(),
	}

	key := fmt.Sprintf("msg:%s:%019d:%s", msg.Room(), now, msg.ID)
	bytes, err := json.Marshal(fromMessage(msg))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: marshal: %v", errors.ErrStoreUnavailable, err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return msg, nil
}

// ListByRoom retrieves a room's messages using a prefix scan.
// Thanks to the padded timestamp in the key, messages come back naturally
// sorted in append order. It stops once the configured limitMessages is
// reached. Reads run in their own view transaction and never block appends.
func (m *MessageRepository) ListByRoom(room domain.RoomKey) ([]domain.Message, error) {
	var stored []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", room))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(stored) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var d diskMessage
				if err := json.Unmarshal(value, &d); err != nil {
					return err
				}
				stored = append(stored, d)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	messages := make([]domain.Message, 0, len(stored))
	for _, d := range stored {
		msg, err := toMessage(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func fromMessage(msg domain.Message) diskMessage {
	return diskMessage{
		ID:         msg.ID.String(),
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		GroupID:    msg.GroupID,
		At:         msg.CreatedAt.UnixNano(),
	}
}

func toMessage(d diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:         parsedID,
		SenderID:   d.SenderID,
		SenderName: d.SenderName,
		Content:    d.Content,
		GroupID:    d.GroupID,
		CreatedAt:  time.Unix(0, d.At).UTC(),
	}, nil
}
