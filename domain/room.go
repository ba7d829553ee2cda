package domain

import "github.com/google/uuid"

// RoomKey addresses a fan-out scope. It is derived, never stored: either the
// distinguished general room or the room of one specific group.
type RoomKey string

const GeneralRoom RoomKey = "general"

// RoomForGroup returns the room key of a group's stream.
func RoomForGroup(groupID uuid.UUID) RoomKey {
	return RoomKey(groupID.String())
}

// RoomFor maps an optional group reference to its room key.
// A nil reference designates the general room.
func RoomFor(groupID *uuid.UUID) RoomKey {
	if groupID == nil {
		return GeneralRoom
	}
	return RoomForGroup(*groupID)
}
