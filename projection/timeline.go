// Package projection builds local timelines from observed events.
// Handles ordering, deduplication, and reconciliation of optimistic local
// echoes with the server-confirmed record. Does not emit events or interact
// with UI directly.
package projection

import (
	"sync"

	"github.com/google/uuid"

	"social-chat/domain"
)

// State tracks a locally-originated entry through its reconciliation
// lifecycle. Foreign messages enter the timeline Confirmed directly.
type State int

const (
	// Pending is an optimistic local echo: rendered immediately, no server
	// id yet.
	Pending State = iota
	// Confirmed is the durable, server-stamped record.
	Confirmed
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "confirmed"
}

// Entry is one visible line of the timeline.
type Entry struct {
	State   State
	Message domain.Message
}

// Timeline is the client-side reconciled view of one room's history.
// Exactly one visible entry exists per logical message once reconciliation
// completes: the optimistic copy is replaced, never duplicated, when its
// persisted counterpart arrives.
type Timeline struct {
	mu      sync.Mutex
	self    domain.Identity
	room    domain.RoomKey
	entries []Entry
	seen    map[uuid.UUID]struct{}
}

func NewTimeline(self domain.Identity, room domain.RoomKey) *Timeline {
	return &Timeline{
		self: self,
		room: room,
		seen: make(map[uuid.UUID]struct{}),
	}
}

// Reset switches the timeline to another room, dropping the previous view.
// The caller is expected to backfill from history afterwards.
func (t *Timeline) Reset(room domain.RoomKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.room = room
	t.entries = nil
	t.seen = make(map[uuid.UUID]struct{})
}

// Backfill seeds the timeline with persisted history, oldest first.
func (t *Timeline) Backfill(messages []domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, msg := range messages {
		t.appendConfirmed(msg)
	}
}

// PostLocal renders an optimistic, unconfirmed copy of a message the user
// just sent. It carries no server id; reconciliation replaces it later.
func (t *Timeline) PostLocal(content string, groupID *uuid.UUID) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := Entry{
		State: Pending,
		Message: domain.Message{
			SenderID:   t.self.ID,
			SenderName: t.self.DisplayName,
			Content:    content,
			GroupID:    groupID,
		},
	}
	t.entries = append(t.entries, entry)
	return entry
}

// Confirm reconciles the server's persisted record against the optimistic
// echo. The pending copy has no server id, so the match is by content and
// recency: the most recent pending entry with the same content in the same
// room is replaced in place. Without a pending match (the live echo beat the
// ack, or the send predates this process) the message is appended like any
// confirmed one.
func (t *Timeline) Confirm(persisted domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[persisted.ID]; ok {
		return
	}

	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.State == Pending && e.Message.Content == persisted.Content &&
			e.Message.Room() == persisted.Room() {
			t.entries[i] = Entry{State: Confirmed, Message: persisted}
			t.seen[persisted.ID] = struct{}{}
			return
		}
	}

	t.appendConfirmed(persisted)
}

// Observe handles one live-delivered message. A message of one's own is a
// reconciliation of the optimistic echo; anything else appends directly.
func (t *Timeline) Observe(msg domain.Message) {
	if msg.SenderID == t.self.ID {
		t.Confirm(msg)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.appendConfirmed(msg)
}

// Entries returns a snapshot of the visible timeline.
func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// appendConfirmed expects the lock to be held. Server ids deduplicate
// redeliveries.
func (t *Timeline) appendConfirmed(msg domain.Message) {
	if _, ok := t.seen[msg.ID]; ok {
		return
	}
	t.seen[msg.ID] = struct{}{}
	t.entries = append(t.entries, Entry{State: Confirmed, Message: msg})
}
