package repositories

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"social-chat/domain"
	"social-chat/errors"
)

type IGroupRepository interface {
	CreateGroup(name string, creator domain.Identity) (domain.Group, error)
	AddMember(groupID uuid.UUID, identity domain.Identity) error
	GroupsFor(identityID string) ([]domain.Group, error)
	IsMember(groupID uuid.UUID, identityID string) (bool, error)
	Get(groupID uuid.UUID) (domain.Group, error)
}

// GroupRepository owns group definitions and membership sets.
//
// Three key families are maintained:
//   - "group:id:{uuid}"                      the group record
//   - "group:name:{name}"                    name uniqueness index -> group id
//   - "member:{user_id}:{joined_padded}:{id}" per-user join-order index
//
// Mutations are serialized under a lock: two concurrent CreateGroup calls
// with the same name must not both succeed, and badger's optimistic
// transactions alone would fail both on conflict instead of electing a winner.
type GroupRepository struct {
	db *badger.DB
	mu sync.Mutex
}

func NewGroupRepository(db *badger.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

type diskGroup struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// CreateGroup registers a new group with the creator as its sole member.
// The name index is checked and written in the same transaction, so at most
// one caller wins a given name; the others get ErrGroupAlreadyExists.
func (g *GroupRepository) CreateGroup(name string, creator domain.Identity) (domain.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC()
	group := domain.Group{
		ID:        uuid.New(),
		Name:      name,
		Members:   []string{creator.ID},
		CreatedAt: now,
	}

	err := g.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte("group:name:" + name)
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrGroupAlreadyExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := json.Marshal(fromGroup(group))
		if err != nil {
			return err
		}
		if err = txn.Set(recordKey(group.ID), data); err != nil {
			return err
		}
		if err = txn.Set(nameKey, []byte(group.ID.String())); err != nil {
			return err
		}
		return txn.Set(memberKey(creator.ID, now, group.ID), []byte(group.ID.String()))
	})
	if err == errors.ErrGroupAlreadyExists {
		return domain.Group{}, err
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return group, nil
}

// AddMember appends an identity to an existing group's membership set.
// Adding an existing member is a no-op, not an error.
func (g *GroupRepository) AddMember(groupID uuid.UUID, identity domain.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.db.Update(func(txn *badger.Txn) error {
		group, err := readGroup(txn, groupID)
		if err != nil {
			return err
		}
		if group.HasMember(identity.ID) {
			return nil
		}

		group.Members = append(group.Members, identity.ID)
		data, err := json.Marshal(fromGroup(group))
		if err != nil {
			return err
		}
		if err = txn.Set(recordKey(group.ID), data); err != nil {
			return err
		}
		return txn.Set(memberKey(identity.ID, time.Now().UTC(), group.ID), []byte(group.ID.String()))
	})
	if err == errors.ErrGroupNotFound {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}

// GroupsFor returns the identity's groups ordered by when the membership was
// acquired, which the padded join timestamp in the index key guarantees.
func (g *GroupRepository) GroupsFor(identityID string) ([]domain.Group, error) {
	var groups []domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("member:%s:", keyEscaper.Replace(identityID)))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var groupID uuid.UUID
			err := it.Item().Value(func(value []byte) error {
				parsed, err := uuid.Parse(string(value))
				groupID = parsed
				return err
			})
			if err != nil {
				return err
			}
			group, err := readGroup(txn, groupID)
			if err != nil {
				return err
			}
			groups = append(groups, group)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return groups, nil
}

func (g *GroupRepository) IsMember(groupID uuid.UUID, identityID string) (bool, error) {
	group, err := g.Get(groupID)
	if err != nil {
		return false, err
	}
	return group.HasMember(identityID), nil
}

func (g *GroupRepository) Get(groupID uuid.UUID) (domain.Group, error) {
	var group domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		found, err := readGroup(txn, groupID)
		group = found
		return err
	})
	if err == errors.ErrGroupNotFound {
		return domain.Group{}, err
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return group, nil
}

func readGroup(txn *badger.Txn, groupID uuid.UUID) (domain.Group, error) {
	item, err := txn.Get(recordKey(groupID))
	if err == badger.ErrKeyNotFound {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	if err != nil {
		return domain.Group{}, err
	}

	var d diskGroup
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &d)
	})
	if err != nil {
		return domain.Group{}, err
	}
	return toGroup(d)
}

func recordKey(groupID uuid.UUID) []byte {
	return []byte("group:id:" + groupID.String())
}

// keyEscaper neutralizes the key separator inside identity IDs. IDs come
// from external token issuance; a raw ":" in one must not terminate the key
// segment early, or user "a" would scan into the entries of user "a:b".
var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func memberKey(identityID string, joined time.Time, groupID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("member:%s:%019d:%s", keyEscaper.Replace(identityID), joined.UnixNano(), groupID))
}

func fromGroup(group domain.Group) diskGroup {
	return diskGroup{
		ID:        group.ID.String(),
		Name:      group.Name,
		Members:   group.Members,
		CreatedAt: group.CreatedAt.UnixNano(),
	}
}

func toGroup(d diskGroup) (domain.Group, error) {
	parsedID, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Group{}, err
	}
	return domain.Group{
		ID:        parsedID,
		Name:      d.Name,
		Members:   d.Members,
		CreatedAt: time.Unix(0, d.CreatedAt).UTC(),
	}, nil
}
