package commune_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commune-dev/commune/pkg/commune"
)

func TestNestedPostOperations(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "frank")
	registerTestUser(t, svc, "grace")
	_, err := svc.CreateGroup(ctx, commune.CreateGroupRequest{
		Name:  "Book Club",
		Owner: "frank",
	})
	require.NoError(t, err)

	t.Run("CreateUserPost", func(t *testing.T) {
		post, err := svc.CreateNestedPost(ctx, commune.ParentUser, "frank", commune.CreatePostRequest{
			Title:   "My Journey",
			Content: "<p>It began</p>",
			Author:  "frank",
		})
		assert.NoError(t, err)
		assert.Equal(t, "my-journey", post.Slug)
		assert.Equal(t, "It began", post.Excerpt)
	})

	t.Run("CreateGroupPost", func(t *testing.T) {
		post, err := svc.CreateNestedPost(ctx, commune.ParentGroup, "book-club", commune.CreatePostRequest{
			Title: "Reading List",
		})
		assert.NoError(t, err)
		assert.Equal(t, "reading-list", post.Slug)
	})

	t.Run("SlugCollision_ScopedToOneParent", func(t *testing.T) {
		// Second same-titled post under the same parent gets a suffix
		second, err := svc.CreateNestedPost(ctx, commune.ParentUser, "frank", commune.CreatePostRequest{
			Title: "My Journey",
		})
		require.NoError(t, err)
		assert.Equal(t, "my-journey-2", second.Slug)

		// The same title under a different parent starts clean
		other, err := svc.CreateNestedPost(ctx, commune.ParentUser, "grace", commune.CreatePostRequest{
			Title: "My Journey",
		})
		require.NoError(t, err)
		assert.Equal(t, "my-journey", other.Slug)

		// And likewise across kinds
		grouped, err := svc.CreateNestedPost(ctx, commune.ParentGroup, "book-club", commune.CreatePostRequest{
			Title: "My Journey",
		})
		require.NoError(t, err)
		assert.Equal(t, "my-journey", grouped.Slug)
	})

	t.Run("GetNestedPost", func(t *testing.T) {
		post, err := svc.GetNestedPost(ctx, commune.ParentUser, "frank", "my-journey")
		assert.NoError(t, err)
		assert.Equal(t, "My Journey", post.Title)
		assert.Equal(t, "<p>It began</p>", post.Content)
	})

	t.Run("GetNestedPost_WrongParent", func(t *testing.T) {
		// grace has a my-journey post, but not a my-journey-2
		_, err := svc.GetNestedPost(ctx, commune.ParentUser, "grace", "my-journey-2")
		assert.ErrorIs(t, err, commune.ErrPostNotFound)
	})

	t.Run("ListNestedPosts", func(t *testing.T) {
		posts, err := svc.ListNestedPosts(ctx, commune.ParentUser, "frank")
		assert.NoError(t, err)
		assert.Len(t, posts, 2)

		posts, err = svc.ListNestedPosts(ctx, commune.ParentGroup, "book-club")
		assert.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("MissingParent", func(t *testing.T) {
		_, err := svc.CreateNestedPost(ctx, commune.ParentUser, "nobody", commune.CreatePostRequest{
			Title: "Orphan",
		})
		assert.ErrorIs(t, err, commune.ErrUserNotFound)

		_, err = svc.ListNestedPosts(ctx, commune.ParentGroup, "no-such-group")
		assert.ErrorIs(t, err, commune.ErrGroupNotFound)
	})

	t.Run("InvalidParentKind", func(t *testing.T) {
		_, err := svc.CreateNestedPost(ctx, commune.ParentKind("other"), "frank", commune.CreatePostRequest{
			Title: "Nope",
		})
		assert.ErrorIs(t, err, commune.ErrInvalidParentKind)

		_, err = svc.GetNestedPost(ctx, commune.ParentKind(""), "frank", "my-journey")
		assert.ErrorIs(t, err, commune.ErrInvalidParentKind)

		_, err = svc.ListNestedPosts(ctx, commune.ParentKind("pagelike"), "frank")
		assert.ErrorIs(t, err, commune.ErrInvalidParentKind)
	})
}
