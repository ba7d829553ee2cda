// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once persisted and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event. ID and CreatedAt are assigned
// by the store at append time; GroupID is nil for the general room.
type Message struct {
	ID         uuid.UUID
	SenderID   string
	SenderName string
	Content    string
	GroupID    *uuid.UUID
	CreatedAt  time.Time
}

// Room returns the fan-out scope this message belongs to.
func (m Message) Room() RoomKey {
	return RoomFor(m.GroupID)
}
