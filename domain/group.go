package domain

import (
	"time"

	"github.com/google/uuid"
)

// Group is a named stream with an explicit membership set.
// The name is globally unique and a group always holds at least one member,
// its creator, from the moment of creation. Groups are never destroyed.
type Group struct {
	ID        uuid.UUID
	Name      string
	Members   []string // identity IDs, in join order
	CreatedAt time.Time
}

// HasMember reports whether the identity belongs to the group.
func (g Group) HasMember(identityID string) bool {
	for _, m := range g.Members {
		if m == identityID {
			return true
		}
	}
	return false
}
