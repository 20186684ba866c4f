package commune_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commune-dev/commune/pkg/commune"
	"github.com/commune-dev/commune/pkg/commune/repo/memory"
)

func TestFriendToggle(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "alice")
	registerTestUser(t, svc, "bob")

	t.Run("AddIsSymmetric", func(t *testing.T) {
		require.NoError(t, svc.SetFriend(ctx, "alice", "bob", true))

		alice, err := svc.GetUser(ctx, "alice")
		require.NoError(t, err)
		bob, err := svc.GetUser(ctx, "bob")
		require.NoError(t, err)

		assert.Contains(t, alice.Friends, "bob")
		assert.Contains(t, bob.Friends, "alice")
	})

	t.Run("AddIsIdempotent", func(t *testing.T) {
		require.NoError(t, svc.SetFriend(ctx, "alice", "bob", true))

		alice, err := svc.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, alice.Friends, 1)
	})

	t.Run("FriendsListsFullProfiles", func(t *testing.T) {
		friends, err := svc.Friends(ctx, "alice")
		assert.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, "bob", friends[0].Name)
		assert.NotEmpty(t, friends[0].Description)
	})

	t.Run("RemoveIsSymmetric", func(t *testing.T) {
		require.NoError(t, svc.SetFriend(ctx, "alice", "bob", false))

		alice, err := svc.GetUser(ctx, "alice")
		require.NoError(t, err)
		bob, err := svc.GetUser(ctx, "bob")
		require.NoError(t, err)

		assert.NotContains(t, alice.Friends, "bob")
		assert.NotContains(t, bob.Friends, "alice")
	})

	t.Run("UnknownUserFails", func(t *testing.T) {
		err := svc.SetFriend(ctx, "alice", "nobody", true)
		assert.ErrorIs(t, err, commune.ErrUserNotFound)

		// The leg written before the failure must not survive
		alice, err := svc.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.NotContains(t, alice.Friends, "nobody")
	})
}

func TestMembershipToggle(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "owner")
	registerTestUser(t, svc, "joiner")
	_, err := svc.CreateGroup(ctx, commune.CreateGroupRequest{
		Name:  "Guild",
		Owner: "owner",
	})
	require.NoError(t, err)

	t.Run("JoinMirrorsBothSides", func(t *testing.T) {
		require.NoError(t, svc.SetMembership(ctx, "joiner", "guild", true))

		group, err := svc.GetGroup(ctx, "guild")
		require.NoError(t, err)
		user, err := svc.GetUser(ctx, "joiner")
		require.NoError(t, err)

		assert.Contains(t, group.Users, "joiner")
		assert.Equal(t, len(group.Users), group.UsersCount)
		assert.Contains(t, user.Groups, "guild")
	})

	t.Run("JoinIsIdempotent", func(t *testing.T) {
		require.NoError(t, svc.SetMembership(ctx, "joiner", "guild", true))

		group, err := svc.GetGroup(ctx, "guild")
		require.NoError(t, err)
		assert.Equal(t, 2, group.UsersCount)
	})

	t.Run("UserGroupsAndAvailableGroupsPartition", func(t *testing.T) {
		_, err := svc.CreateGroup(ctx, commune.CreateGroupRequest{
			Name:  "Other Guild",
			Owner: "owner",
		})
		require.NoError(t, err)

		joined, err := svc.UserGroups(ctx, "joiner")
		require.NoError(t, err)
		available, err := svc.AvailableGroups(ctx, "joiner")
		require.NoError(t, err)

		require.Len(t, joined, 1)
		assert.Equal(t, "guild", joined[0].Slug)
		require.Len(t, available, 1)
		assert.Equal(t, "other-guild", available[0].Slug)
	})

	t.Run("LeaveMirrorsBothSides", func(t *testing.T) {
		require.NoError(t, svc.SetMembership(ctx, "joiner", "guild", false))

		group, err := svc.GetGroup(ctx, "guild")
		require.NoError(t, err)
		user, err := svc.GetUser(ctx, "joiner")
		require.NoError(t, err)

		assert.NotContains(t, group.Users, "joiner")
		assert.Equal(t, 1, group.UsersCount)
		assert.NotContains(t, user.Groups, "guild")
	})

	t.Run("UnknownGroupFails", func(t *testing.T) {
		err := svc.SetMembership(ctx, "joiner", "no-such-group", true)
		assert.ErrorIs(t, err, commune.ErrGroupNotFound)
	})
}

// faultyRepository wraps a Repository and fails selected write methods. It
// drives the compensation paths that a healthy memory store never exercises.
// failPushFriendOn fails the n-th PushFriend call (1-based); zero disables.
type faultyRepository struct {
	commune.Repository
	failPushFriendOn  int
	pushFriendCalls   int
	failPushUserGroup bool
}

var errInjected = errors.New("injected store failure")

func (f *faultyRepository) PushFriend(ctx context.Context, owner, friend string) error {
	f.pushFriendCalls++
	if f.failPushFriendOn != 0 && f.pushFriendCalls == f.failPushFriendOn {
		return errInjected
	}
	return f.Repository.PushFriend(ctx, owner, friend)
}

func (f *faultyRepository) PushUserGroup(ctx context.Context, name, groupSlug string) error {
	if f.failPushUserGroup {
		return errInjected
	}
	return f.Repository.PushUserGroup(ctx, name, groupSlug)
}

func TestRelationshipCompensation(t *testing.T) {
	ctx := context.Background()

	t.Run("FriendAddFirstLegFailsPlainly", func(t *testing.T) {
		repo := memory.New()
		faulty := &faultyRepository{Repository: repo, failPushFriendOn: 1}
		svc, err := commune.New(commune.WithRepository(faulty))
		require.NoError(t, err)

		_, err = svc.Register(ctx, commune.RegisterRequest{Name: "a", Password: "x"})
		require.NoError(t, err)
		_, err = svc.Register(ctx, commune.RegisterRequest{Name: "b", Password: "x"})
		require.NoError(t, err)

		// Nothing was written, so no compensation wrapping either
		err = svc.SetFriend(ctx, "a", "b", true)
		require.Error(t, err)
		assert.ErrorIs(t, err, errInjected)
		var relErr *commune.RelationshipError
		assert.False(t, errors.As(err, &relErr))
	})

	t.Run("FriendAddSecondLegRollsBack", func(t *testing.T) {
		repo := memory.New()
		faulty := &faultyRepository{Repository: repo, failPushFriendOn: 2}
		svc, err := commune.New(commune.WithRepository(faulty))
		require.NoError(t, err)

		_, err = svc.Register(ctx, commune.RegisterRequest{Name: "a", Password: "x"})
		require.NoError(t, err)
		_, err = svc.Register(ctx, commune.RegisterRequest{Name: "b", Password: "x"})
		require.NoError(t, err)

		err = svc.SetFriend(ctx, "a", "b", true)

		var relErr *commune.RelationshipError
		require.ErrorAs(t, err, &relErr)
		assert.Equal(t, "friend", relErr.Edge)
		assert.True(t, relErr.Compensated)

		// The first leg was undone, no asymmetric edge remains
		a, err := repo.GetUser(ctx, "a")
		require.NoError(t, err)
		b, err := repo.GetUser(ctx, "b")
		require.NoError(t, err)
		assert.Empty(t, a.Friends)
		assert.Empty(t, b.Friends)
	})

	t.Run("MembershipAddRollsBackGroupSide", func(t *testing.T) {
		repo := memory.New()
		faulty := &faultyRepository{Repository: repo}
		svc, err := commune.New(commune.WithRepository(faulty))
		require.NoError(t, err)

		_, err = svc.Register(ctx, commune.RegisterRequest{Name: "owner", Password: "x"})
		require.NoError(t, err)
		_, err = svc.Register(ctx, commune.RegisterRequest{Name: "joiner", Password: "x"})
		require.NoError(t, err)
		_, err = svc.CreateGroup(ctx, commune.CreateGroupRequest{Name: "Guild", Owner: "owner"})
		require.NoError(t, err)

		faulty.failPushUserGroup = true
		err = svc.SetMembership(ctx, "joiner", "guild", true)

		var relErr *commune.RelationshipError
		require.ErrorAs(t, err, &relErr)
		assert.Equal(t, "membership", relErr.Edge)
		assert.True(t, relErr.Compensated)
		assert.ErrorIs(t, err, errInjected)

		// The group side was undone: no member, count unchanged
		group, err := repo.GetGroup(ctx, "guild")
		require.NoError(t, err)
		assert.NotContains(t, group.Users, "joiner")
		assert.Equal(t, 1, group.UsersCount)
	})

	t.Run("GroupCreateRollsBackOnMirrorFailure", func(t *testing.T) {
		repo := memory.New()
		faulty := &faultyRepository{Repository: repo}
		svc, err := commune.New(commune.WithRepository(faulty))
		require.NoError(t, err)

		_, err = svc.Register(ctx, commune.RegisterRequest{Name: "owner", Password: "x"})
		require.NoError(t, err)

		faulty.failPushUserGroup = true
		_, err = svc.CreateGroup(ctx, commune.CreateGroupRequest{Name: "Doomed", Owner: "owner"})

		var relErr *commune.RelationshipError
		require.ErrorAs(t, err, &relErr)
		assert.True(t, relErr.Compensated)

		// The group document was removed again
		_, err = repo.GetGroup(ctx, "doomed")
		assert.ErrorIs(t, err, commune.ErrGroupNotFound)
	})
}
