package services

import (
	"context"

	"github.com/google/uuid"

	"social-chat/contract"
	"social-chat/domain"
	"social-chat/repositories"
	"social-chat/runtime"
	"social-chat/validation"
)

type IChatService interface {
	PostMessage(ctx context.Context, sender domain.Identity, content string, groupID *uuid.UUID) (domain.Message, error)
	PostAttachment(ctx context.Context, sender domain.Identity, url string, groupID *uuid.UUID) (domain.Message, error)
	History(groupID *uuid.UUID) ([]domain.Message, error)
	Join(identity domain.Identity, s contract.EventSink) contract.ConnectionID
	SetRoom(id contract.ConnectionID, groupID *uuid.UUID) error
	Leave(id contract.ConnectionID)
}

// ChatService is the boundary the transport layer talks to. It validates
// requests and funnels sends into the broadcaster; it never touches the
// message log or membership except through the repositories.
type ChatService struct {
	broadcaster *runtime.Broadcaster
	messages    repositories.IMessageRepository
	registry    contract.IRegistry
}

func NewChatService(broadcaster *runtime.Broadcaster,
	messages repositories.IMessageRepository, registry contract.IRegistry) *ChatService {
	return &ChatService{broadcaster: broadcaster, messages: messages, registry: registry}
}

func (s *ChatService) PostMessage(ctx context.Context, sender domain.Identity,
	content string, groupID *uuid.UUID) (domain.Message, error) {
	if err := validation.ValidatePostMessage(validation.PostMessageRequest{Content: content}); err != nil {
		return domain.Message{}, err
	}
	return s.broadcaster.Send(ctx, sender, content, groupID)
}

// PostAttachment records a message whose content is the opaque URL returned
// by the external upload service. It runs through the exact same
// authorization and fan-out path as a text message.
func (s *ChatService) PostAttachment(ctx context.Context, sender domain.Identity,
	url string, groupID *uuid.UUID) (domain.Message, error) {
	if err := validation.ValidateAttachment(validation.AttachmentRequest{URL: url}); err != nil {
		return domain.Message{}, err
	}
	return s.broadcaster.Send(ctx, sender, url, groupID)
}

// History backfills a room in append order. Connections that joined after a
// message was persisted never receive it live; this is their read path.
func (s *ChatService) History(groupID *uuid.UUID) ([]domain.Message, error) {
	return s.messages.ListByRoom(domain.RoomFor(groupID))
}

func (s *ChatService) Join(identity domain.Identity, sink contract.EventSink) contract.ConnectionID {
	return s.registry.Register(identity, sink)
}

func (s *ChatService) SetRoom(id contract.ConnectionID, groupID *uuid.UUID) error {
	return s.registry.SetRoom(id, domain.RoomFor(groupID))
}

func (s *ChatService) Leave(id contract.ConnectionID) {
	s.registry.Unregister(id)
}
