package commune

import "context"

// Service defines the main interface of the commune library.
type Service interface {
	// Page operations
	CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error)
	ListPages(ctx context.Context) ([]*Page, error)
	GetPage(ctx context.Context, slug string) (*Page, error)
	UpdatePage(ctx context.Context, slug string, req UpdatePageRequest) (*Page, error)
	DeletePage(ctx context.Context, slug string) error

	// Post operations (top-level posts collection)
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	ListPosts(ctx context.Context) ([]*Post, error)
	GetPost(ctx context.Context, slug string) (*Post, error)
	UpdatePost(ctx context.Context, slug string, req UpdatePostRequest) (*Post, error)
	DeletePost(ctx context.Context, slug string) error

	// Nested post operations
	CreateNestedPost(ctx context.Context, kind ParentKind, parentKey string, req CreatePostRequest) (*Post, error)
	GetNestedPost(ctx context.Context, kind ParentKind, parentKey, slug string) (*Post, error)
	ListNestedPosts(ctx context.Context, kind ParentKind, parentKey string) ([]Post, error)

	// User operations
	GetUser(ctx context.Context, name string) (*User, error)
	UpdateUserProfile(ctx context.Context, name string, patch UserPatch) (*User, error)

	// Group operations
	CreateGroup(ctx context.Context, req CreateGroupRequest) (*Group, error)
	ListGroups(ctx context.Context) ([]*Group, error)
	GetGroup(ctx context.Context, slug string) (*Group, error)
	UpdateGroupProfile(ctx context.Context, slug string, patch GroupPatch) (*Group, error)

	// Relationship operations
	SetFriend(ctx context.Context, name, friend string, add bool) error
	SetMembership(ctx context.Context, userName, groupSlug string, add bool) error
	Friends(ctx context.Context, name string) ([]*User, error)
	UserGroups(ctx context.Context, name string) ([]*Group, error)
	AvailableGroups(ctx context.Context, name string) ([]*Group, error)

	// Account operations
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, name, password string) (*LoginResult, error)
}
