package event

import (
	"social-chat/domain"
)

type DomainEvent interface {
	RoomKey() domain.RoomKey
}

// MessageBroadcast carries a persisted message on its way to the live
// subscribers of a room. The embedded message is the canonical copy, with
// server id and timestamp already assigned.
type MessageBroadcast struct {
	Message domain.Message
}

func (m MessageBroadcast) RoomKey() domain.RoomKey {
	return m.Message.Room()
}
