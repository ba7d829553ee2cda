package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"social-chat/domain"
)

// Frame types pushed to clients.
const (
	// TypeMessage is a live-delivered message for the connection's room.
	TypeMessage = "message"
	// TypeSent acknowledges the connection's own send with the canonical
	// persisted record, the input of client-side reconciliation.
	TypeSent = "sent"
	TypeError = "error"
)

// Frame types accepted from clients.
const (
	TypeSend = "send"
	TypeJoin = "join"
)

// inboundFrame is one client request on the socket.
type inboundFrame struct {
	Type    string     `json:"type"`
	Content string     `json:"content,omitempty"`
	Group   *uuid.UUID `json:"group,omitempty"`
}

// outboundFrame is one server push. Every delivered message carries the
// sender display identity, content, nullable group reference, and the
// server-assigned id and timestamp clients deduplicate on.
type outboundFrame struct {
	Type    string          `json:"type"`
	Message *messagePayload `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type messagePayload struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   string     `json:"sender_id"`
	SenderName string     `json:"sender_name"`
	Content    string     `json:"content"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toPayload(msg domain.Message) *messagePayload {
	return &messagePayload{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		GroupID:    msg.GroupID,
		CreatedAt:  msg.CreatedAt,
	}
}

// REST payloads.

type createGroupRequest struct {
	Name string `json:"name"`
}

type attachmentRequest struct {
	URL   string     `json:"url"`
	Group *uuid.UUID `json:"group,omitempty"`
}

type groupResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func toGroupResponse(group domain.Group) groupResponse {
	return groupResponse{
		ID:        group.ID,
		Name:      group.Name,
		Members:   group.Members,
		CreatedAt: group.CreatedAt,
	}
}

func toGroupResponses(groups []domain.Group) []groupResponse {
	return lo.Map(groups, func(g domain.Group, _ int) groupResponse {
		return toGroupResponse(g)
	})
}

func toMessagePayloads(messages []domain.Message) []*messagePayload {
	return lo.Map(messages, func(m domain.Message, _ int) *messagePayload {
		return toPayload(m)
	})
}
