package services

import (
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"social-chat/domain"
	"social-chat/errors"
	"social-chat/repositories"
)

func newGroupService(t *testing.T) *GroupService {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewGroupService(repositories.NewGroupRepository(db))
}

func TestGroupService_CreateAndList(t *testing.T) {
	req := require.New(t)
	svc := newGroupService(t)

	// When Alice creates a group
	group, err := svc.Create("design", alice)

	// Then she is its first member and finds it in her listing
	req.NoError(err)
	req.Equal([]string{"alice"}, group.Members)

	mine, err := svc.ListFor("alice")
	req.NoError(err)
	req.Len(mine, 1)
	req.Equal("design", mine[0].Name)
}

func TestGroupService_RejectsEmptyName(t *testing.T) {
	req := require.New(t)
	svc := newGroupService(t)

	_, err := svc.Create("", alice)

	req.ErrorIs(err, errors.ErrInvalidRequest)
}

func TestGroupService_RejectsOversizedName(t *testing.T) {
	req := require.New(t)
	svc := newGroupService(t)

	_, err := svc.Create(strings.Repeat("n", 65), alice)

	req.ErrorIs(err, errors.ErrInvalidRequest)
}

func TestGroupService_AddMember(t *testing.T) {
	req := require.New(t)
	svc := newGroupService(t)

	group, err := svc.Create("design", alice)
	req.NoError(err)

	// When Bob is added to the group
	bob := domain.Identity{ID: "bob", DisplayName: "Bob"}
	req.NoError(svc.AddMember(group.ID, bob))

	// Then the group shows up in Bob's listing too
	his, err := svc.ListFor("bob")
	req.NoError(err)
	req.Len(his, 1)
	req.Equal(group.ID, his[0].ID)
}
