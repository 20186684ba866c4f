package commune

import (
	"context"
	"io"
	"time"
)

// Repository defines the document store surface the services consume. An
// implementation maps these onto find/findOne/count/insertOne/updateOne
// ($set/$push/$pull/$inc)/deleteOne against named collections; the Mongo
// repository does exactly that, the memory repository fakes it for tests.
//
// Lookups that match nothing return the entity's not-found sentinel. Any
// underlying I/O failure is wrapped in *StoreError.
type Repository interface {
	// Page operations. ListPages projects Content out of the results.
	CountPagesByTitle(ctx context.Context, title string) (int64, error)
	InsertPage(ctx context.Context, page *Page) error
	ListPages(ctx context.Context) ([]*Page, error)
	GetPage(ctx context.Context, slug string) (*Page, error)
	ReplacePage(ctx context.Context, slug string, page *Page) error
	DeletePage(ctx context.Context, slug string) error

	// Post operations (top-level posts collection). ListPosts projects
	// Content out of the results.
	CountPostsByTitle(ctx context.Context, title string) (int64, error)
	InsertPost(ctx context.Context, post *Post) error
	ListPosts(ctx context.Context) ([]*Post, error)
	GetPost(ctx context.Context, slug string) (*Post, error)
	ReplacePost(ctx context.Context, slug string, post *Post) error
	DeletePost(ctx context.Context, slug string) error

	// Nested post operations. The scope of a nested post is its single
	// parent document, selected by kind and unique key.
	CountNestedPostsByTitle(ctx context.Context, kind ParentKind, parentKey, title string) (int64, error)
	PushNestedPost(ctx context.Context, kind ParentKind, parentKey string, post *Post) error
	GetNestedPost(ctx context.Context, kind ParentKind, parentKey, slug string) (*Post, error)
	ListNestedPosts(ctx context.Context, kind ParentKind, parentKey string) ([]Post, error)

	// User operations.
	InsertUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, name string) (*User, error)
	UpdateUserProfile(ctx context.Context, name string, patch UserPatch) error
	UsersByName(ctx context.Context, names []string) ([]*User, error)
	PushFriend(ctx context.Context, owner, friend string) error
	PullFriend(ctx context.Context, owner, friend string) error
	PushUserGroup(ctx context.Context, name, groupSlug string) error
	PullUserGroup(ctx context.Context, name, groupSlug string) error

	// Group operations. AddGroupMember and RemoveGroupMember mutate the
	// member set and usersCount in one single-document update so invariant
	// usersCount == len(users) cannot be broken halfway.
	InsertGroup(ctx context.Context, group *Group) error
	ListGroups(ctx context.Context) ([]*Group, error)
	GetGroup(ctx context.Context, slug string) (*Group, error)
	UpdateGroupProfile(ctx context.Context, slug string, patch GroupPatch) error
	DeleteGroup(ctx context.Context, slug string) error
	GroupsBySlug(ctx context.Context, slugs []string, member bool) ([]*Group, error)
	AddGroupMember(ctx context.Context, slug, userName string) error
	RemoveGroupMember(ctx context.Context, slug, userName string) error

	// Account operations.
	InsertAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, name string) (*Account, error)
	CountAccountsByName(ctx context.Context, name string) (int64, error)
	DeleteAccount(ctx context.Context, name string) error
}

// BlobStore defines the interface for image storage backends.
type BlobStore interface {
	// Upload stores content under objectKey
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// Download retrieves content stored under objectKey
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes content stored under objectKey
	Delete(ctx context.Context, objectKey string) error

	// GetDownloadURL returns a URL the client can fetch the object from
	GetDownloadURL(ctx context.Context, objectKey string) (string, error)

	// GetObjectMeta retrieves metadata for a stored object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}

// EventSink defines the interface for event handling. Sink failures are
// logged by callers and never abort the triggering operation.
type EventSink interface {
	// PageCreated is fired when a page is created
	PageCreated(ctx context.Context, page *Page) error

	// PostCreated is fired when a top-level or nested post is created
	PostCreated(ctx context.Context, post *Post) error

	// UserRegistered is fired when an account and its companion user are created
	UserRegistered(ctx context.Context, user *User) error

	// GroupCreated is fired when a group is created
	GroupCreated(ctx context.Context, group *Group) error

	// MembershipChanged is fired after a successful membership toggle
	MembershipChanged(ctx context.Context, userName, groupSlug string, member bool) error
}
