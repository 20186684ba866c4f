package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/commune-dev/commune/pkg/commune"
)

// nestedKey addresses one embedded post: parent collection, parent unique
// key, post slug.
type nestedKey struct {
	kind commune.ParentKind
	key  string
	slug string
}

// Repository implements commune.Repository using in-memory storage. It backs
// the tests and zero-dependency startup; semantics mirror the Mongo
// repository, including set behavior for friends/groups/users fields.
type Repository struct {
	mu       sync.RWMutex
	pages    map[string]*commune.Page
	posts    map[string]*commune.Post
	users    map[string]*commune.User
	groups   map[string]*commune.Group
	accounts map[string]*commune.Account
	nested   map[nestedKey]*commune.Post // O(1) embedded post lookup
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		pages:    make(map[string]*commune.Page),
		posts:    make(map[string]*commune.Post),
		users:    make(map[string]*commune.User),
		groups:   make(map[string]*commune.Group),
		accounts: make(map[string]*commune.Account),
		nested:   make(map[nestedKey]*commune.Post),
	}
}

// Page operations

func (r *Repository) CountPagesByTitle(ctx context.Context, title string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.pages {
		if p.Title == title {
			n++
		}
	}
	return n, nil
}

func (r *Repository) InsertPage(ctx context.Context, page *commune.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pageCopy := *page
	r.pages[page.Slug] = &pageCopy
	return nil
}

func (r *Repository) ListPages(ctx context.Context) ([]*commune.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*commune.Page, 0, len(r.pages))
	for _, p := range r.pages {
		pageCopy := *p
		pageCopy.Content = "" // list views never carry the body
		result = append(result, &pageCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}

func (r *Repository) GetPage(ctx context.Context, slug string) (*commune.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page, exists := r.pages[slug]
	if !exists {
		return nil, commune.ErrPageNotFound
	}
	pageCopy := *page
	return &pageCopy, nil
}

func (r *Repository) ReplacePage(ctx context.Context, slug string, page *commune.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pages[slug]; !exists {
		return commune.ErrPageNotFound
	}
	// A rename onto another page's slug would destroy that page.
	if page.Slug != slug {
		if _, taken := r.pages[page.Slug]; taken {
			return commune.ErrPageExists
		}
	}
	delete(r.pages, slug)
	pageCopy := *page
	r.pages[page.Slug] = &pageCopy
	return nil
}

func (r *Repository) DeletePage(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pages, slug)
	return nil
}

// Post operations

func (r *Repository) CountPostsByTitle(ctx context.Context, title string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.posts {
		if p.Title == title {
			n++
		}
	}
	return n, nil
}

func (r *Repository) InsertPost(ctx context.Context, post *commune.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	postCopy := *post
	r.posts[post.Slug] = &postCopy
	return nil
}

func (r *Repository) ListPosts(ctx context.Context) ([]*commune.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*commune.Post, 0, len(r.posts))
	for _, p := range r.posts {
		postCopy := *p
		postCopy.Content = ""
		result = append(result, &postCopy)
	}
	// Newest first, slug as tie-breaker for a stable order
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].Slug < result[j].Slug
	})
	return result, nil
}

func (r *Repository) GetPost(ctx context.Context, slug string) (*commune.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[slug]
	if !exists {
		return nil, commune.ErrPostNotFound
	}
	postCopy := *post
	return &postCopy, nil
}

func (r *Repository) ReplacePost(ctx context.Context, slug string, post *commune.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[slug]; !exists {
		return commune.ErrPostNotFound
	}
	if post.Slug != slug {
		if _, taken := r.posts[post.Slug]; taken {
			return commune.ErrPostExists
		}
	}
	delete(r.posts, slug)
	postCopy := *post
	r.posts[post.Slug] = &postCopy
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.posts, slug)
	return nil
}

// Nested post operations

func (r *Repository) nestedPosts(kind commune.ParentKind, parentKey string) (*[]commune.Post, error) {
	switch kind {
	case commune.ParentUser:
		user, exists := r.users[parentKey]
		if !exists {
			return nil, commune.ErrUserNotFound
		}
		return &user.Posts, nil
	case commune.ParentGroup:
		group, exists := r.groups[parentKey]
		if !exists {
			return nil, commune.ErrGroupNotFound
		}
		return &group.Posts, nil
	}
	return nil, commune.ErrInvalidParentKind
}

func (r *Repository) CountNestedPostsByTitle(ctx context.Context, kind commune.ParentKind, parentKey, title string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts, err := r.nestedPosts(kind, parentKey)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, p := range *posts {
		if p.Title == title {
			n++
		}
	}
	return n, nil
}

func (r *Repository) PushNestedPost(ctx context.Context, kind commune.ParentKind, parentKey string, post *commune.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts, err := r.nestedPosts(kind, parentKey)
	if err != nil {
		return err
	}
	*posts = append(*posts, *post)
	postCopy := *post
	r.nested[nestedKey{kind, parentKey, post.Slug}] = &postCopy
	return nil
}

func (r *Repository) GetNestedPost(ctx context.Context, kind commune.ParentKind, parentKey, slug string) (*commune.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.nested[nestedKey{kind, parentKey, slug}]
	if !exists {
		return nil, commune.ErrPostNotFound
	}
	postCopy := *post
	return &postCopy, nil
}

func (r *Repository) ListNestedPosts(ctx context.Context, kind commune.ParentKind, parentKey string) ([]commune.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts, err := r.nestedPosts(kind, parentKey)
	if err != nil {
		return nil, err
	}
	result := make([]commune.Post, len(*posts))
	copy(result, *posts)
	return result, nil
}

// User operations

func (r *Repository) InsertUser(ctx context.Context, user *commune.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	userCopy := *user
	r.users[user.Name] = &userCopy
	return nil
}

func (r *Repository) GetUser(ctx context.Context, name string) (*commune.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[name]
	if !exists {
		return nil, commune.ErrUserNotFound
	}
	userCopy := *user
	userCopy.Groups = append([]string(nil), user.Groups...)
	userCopy.Friends = append([]string(nil), user.Friends...)
	userCopy.Posts = append([]commune.Post(nil), user.Posts...)
	return &userCopy, nil
}

func (r *Repository) UpdateUserProfile(ctx context.Context, name string, patch commune.UserPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[name]
	if !exists {
		return commune.ErrUserNotFound
	}
	if patch.Description != nil {
		user.Description = *patch.Description
	}
	if patch.Img != nil {
		user.Img = *patch.Img
	}
	if patch.Background != nil {
		user.Background = *patch.Background
	}
	return nil
}

func (r *Repository) UsersByName(ctx context.Context, names []string) ([]*commune.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*commune.User, 0, len(names))
	for _, name := range names {
		if user, exists := r.users[name]; exists {
			userCopy := *user
			userCopy.Posts = nil // list views never carry embedded posts
			result = append(result, &userCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *Repository) PushFriend(ctx context.Context, owner, friend string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[owner]
	if !exists {
		return commune.ErrUserNotFound
	}
	user.Friends = addToSet(user.Friends, friend)
	return nil
}

func (r *Repository) PullFriend(ctx context.Context, owner, friend string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[owner]
	if !exists {
		return commune.ErrUserNotFound
	}
	user.Friends = pull(user.Friends, friend)
	return nil
}

func (r *Repository) PushUserGroup(ctx context.Context, name, groupSlug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[name]
	if !exists {
		return commune.ErrUserNotFound
	}
	user.Groups = addToSet(user.Groups, groupSlug)
	return nil
}

func (r *Repository) PullUserGroup(ctx context.Context, name, groupSlug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[name]
	if !exists {
		return commune.ErrUserNotFound
	}
	user.Groups = pull(user.Groups, groupSlug)
	return nil
}

// Group operations

// cloneGroup copies a group deep enough that callers cannot reach the stored
// Users/Games slices. Posts are copied only when the read carries them.
func cloneGroup(group *commune.Group, withPosts bool) *commune.Group {
	groupCopy := *group
	groupCopy.Users = append([]string(nil), group.Users...)
	groupCopy.Games = append([]string(nil), group.Games...)
	if withPosts {
		groupCopy.Posts = append([]commune.Post(nil), group.Posts...)
	} else {
		groupCopy.Posts = nil
	}
	return &groupCopy
}

func (r *Repository) InsertGroup(ctx context.Context, group *commune.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.groups[group.Slug]; exists {
		return commune.ErrGroupExists
	}
	r.groups[group.Slug] = cloneGroup(group, true)
	return nil
}

func (r *Repository) ListGroups(ctx context.Context) ([]*commune.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*commune.Group, 0, len(r.groups))
	for _, g := range r.groups {
		result = append(result, cloneGroup(g, false))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}

func (r *Repository) GetGroup(ctx context.Context, slug string) (*commune.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group, exists := r.groups[slug]
	if !exists {
		return nil, commune.ErrGroupNotFound
	}
	return cloneGroup(group, true), nil
}

func (r *Repository) UpdateGroupProfile(ctx context.Context, slug string, patch commune.GroupPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, exists := r.groups[slug]
	if !exists {
		return commune.ErrGroupNotFound
	}
	if patch.Name != nil {
		group.Name = *patch.Name
	}
	if patch.Description != nil {
		group.Description = *patch.Description
	}
	if patch.Img != nil {
		group.Img = *patch.Img
	}
	if patch.Background != nil {
		group.Background = *patch.Background
	}
	if patch.Access != nil {
		group.Access = *patch.Access
	}
	if patch.Games != nil {
		group.Games = append([]string(nil), patch.Games...)
	}
	return nil
}

func (r *Repository) DeleteGroup(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, exists := r.groups[slug]
	if !exists {
		return nil
	}
	for _, p := range group.Posts {
		delete(r.nested, nestedKey{commune.ParentGroup, slug, p.Slug})
	}
	delete(r.groups, slug)
	return nil
}

func (r *Repository) GroupsBySlug(ctx context.Context, slugs []string, member bool) ([]*commune.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		in[s] = true
	}

	result := make([]*commune.Group, 0, len(r.groups))
	for _, g := range r.groups {
		if in[g.Slug] == member {
			result = append(result, cloneGroup(g, false))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}

func (r *Repository) AddGroupMember(ctx context.Context, slug, userName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, exists := r.groups[slug]
	if !exists {
		return commune.ErrGroupNotFound
	}
	group.Users = addToSet(group.Users, userName)
	group.UsersCount = len(group.Users)
	return nil
}

func (r *Repository) RemoveGroupMember(ctx context.Context, slug, userName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, exists := r.groups[slug]
	if !exists {
		return commune.ErrGroupNotFound
	}
	group.Users = pull(group.Users, userName)
	group.UsersCount = len(group.Users)
	return nil
}

// Account operations

func (r *Repository) InsertAccount(ctx context.Context, account *commune.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.Name]; exists {
		return commune.ErrNameTaken
	}
	accountCopy := *account
	r.accounts[account.Name] = &accountCopy
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, name string) (*commune.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[name]
	if !exists {
		return nil, commune.ErrAccountNotFound
	}
	accountCopy := *account
	return &accountCopy, nil
}

func (r *Repository) CountAccountsByName(ctx context.Context, name string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.accounts[name]; exists {
		return 1, nil
	}
	return 0, nil
}

func (r *Repository) DeleteAccount(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.accounts, name)
	return nil
}

func addToSet(set []string, value string) []string {
	for _, v := range set {
		if v == value {
			return set
		}
	}
	return append(set, value)
}

func pull(set []string, value string) []string {
	result := set[:0]
	for _, v := range set {
		if v != value {
			result = append(result, v)
		}
	}
	return result
}
