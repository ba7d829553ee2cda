package services

import (
	"github.com/google/uuid"

	"social-chat/domain"
	"social-chat/repositories"
	"social-chat/validation"
)

type IGroupService interface {
	Create(name string, creator domain.Identity) (domain.Group, error)
	ListFor(identityID string) ([]domain.Group, error)
	AddMember(groupID uuid.UUID, identity domain.Identity) error
}

// GroupService exposes group creation and membership to the request-routing
// layer. Name uniqueness is enforced by the repository, not here.
type GroupService struct {
	groups repositories.IGroupRepository
}

func NewGroupService(groups repositories.IGroupRepository) *GroupService {
	return &GroupService{groups: groups}
}

func (s *GroupService) Create(name string, creator domain.Identity) (domain.Group, error) {
	if err := validation.ValidateCreateGroup(validation.CreateGroupRequest{Name: name}); err != nil {
		return domain.Group{}, err
	}
	return s.groups.CreateGroup(name, creator)
}

func (s *GroupService) ListFor(identityID string) ([]domain.Group, error) {
	return s.groups.GroupsFor(identityID)
}

func (s *GroupService) AddMember(groupID uuid.UUID, identity domain.Identity) error {
	return s.groups.AddMember(groupID, identity)
}
