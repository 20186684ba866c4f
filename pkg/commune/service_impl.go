package commune

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// service implements the Service interface
type service struct {
	repository Repository
	eventSink  EventSink
	now        func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithClock overrides the time source. Tests use it to pin post dates.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink: NewNoopEventSink(),
		now:       time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// Page operations

func (s *service) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	page := &Page{
		Slug:    Slugify(req.Title),
		Title:   req.Title,
		Content: req.Content,
	}

	// Count-then-insert: two concurrent creations with the same title can
	// both observe the same count and collide. The store carries no
	// transaction to close that window (see package doc).
	n, err := s.repository.CountPagesByTitle(ctx, req.Title)
	if err != nil {
		return nil, err
	}
	page.Slug = CollisionSlug(page.Slug, n)

	if err := s.repository.InsertPage(ctx, page); err != nil {
		return nil, err
	}

	if err := s.eventSink.PageCreated(ctx, page); err != nil {
		slog.Warn("page created event sink failed", "slug", page.Slug, "error", err)
	}

	return page, nil
}

func (s *service) ListPages(ctx context.Context) ([]*Page, error) {
	return s.repository.ListPages(ctx)
}

func (s *service) GetPage(ctx context.Context, slug string) (*Page, error) {
	return s.repository.GetPage(ctx, slug)
}

func (s *service) UpdatePage(ctx context.Context, slug string, req UpdatePageRequest) (*Page, error) {
	page := &Page{
		Slug:    Slugify(req.Title),
		Title:   req.Title,
		Content: req.Content,
	}
	if err := s.repository.ReplacePage(ctx, slug, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *service) DeletePage(ctx context.Context, slug string) error {
	return s.repository.DeletePage(ctx, slug)
}

// Post operations

func (s *service) buildPost(req CreatePostRequest) *Post {
	return &Post{
		Slug:    Slugify(req.Title),
		Title:   req.Title,
		Content: req.Content,
		Date:    s.now().UnixMilli(),
		Excerpt: MakeExcerpt(req.Content),
		Author:  req.Author,
	}
}

func (s *service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	post := s.buildPost(req)

	n, err := s.repository.CountPostsByTitle(ctx, req.Title)
	if err != nil {
		return nil, err
	}
	post.Slug = CollisionSlug(post.Slug, n)

	if err := s.repository.InsertPost(ctx, post); err != nil {
		return nil, err
	}

	if err := s.eventSink.PostCreated(ctx, post); err != nil {
		slog.Warn("post created event sink failed", "slug", post.Slug, "error", err)
	}

	return post, nil
}

func (s *service) ListPosts(ctx context.Context) ([]*Post, error) {
	return s.repository.ListPosts(ctx)
}

func (s *service) GetPost(ctx context.Context, slug string) (*Post, error) {
	return s.repository.GetPost(ctx, slug)
}

func (s *service) UpdatePost(ctx context.Context, slug string, req UpdatePostRequest) (*Post, error) {
	existing, err := s.repository.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	post := &Post{
		Slug:    Slugify(req.Title),
		Title:   req.Title,
		Content: req.Content,
		Date:    existing.Date,
		Excerpt: MakeExcerpt(req.Content),
		Author:  existing.Author,
	}
	if err := s.repository.ReplacePost(ctx, slug, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *service) DeletePost(ctx context.Context, slug string) error {
	return s.repository.DeletePost(ctx, slug)
}

// User operations

func (s *service) GetUser(ctx context.Context, name string) (*User, error) {
	return s.repository.GetUser(ctx, name)
}

func (s *service) UpdateUserProfile(ctx context.Context, name string, patch UserPatch) (*User, error) {
	if err := s.repository.UpdateUserProfile(ctx, name, patch); err != nil {
		return nil, err
	}
	return s.repository.GetUser(ctx, name)
}

// Group operations

func (s *service) CreateGroup(ctx context.Context, req CreateGroupRequest) (*Group, error) {
	if _, err := s.repository.GetUser(ctx, req.Owner); err != nil {
		return nil, err
	}

	group := &Group{
		Slug:        Slugify(req.Name),
		Name:        req.Name,
		Description: req.Description,
		Img:         req.Img,
		Background:  req.Background,
		Access:      req.Access,
		Games:       req.Games,
		Owner:       req.Owner,
		Users:       []string{req.Owner},
		UsersCount:  1,
	}

	if err := s.repository.InsertGroup(ctx, group); err != nil {
		return nil, err
	}

	// Mirror the membership on the owner's side. If that write fails the
	// group document is removed again so no half-created group remains.
	if err := s.repository.PushUserGroup(ctx, req.Owner, group.Slug); err != nil {
		compErr := s.repository.DeleteGroup(ctx, group.Slug)
		return nil, &RelationshipError{
			Edge:        "membership",
			From:        req.Owner,
			To:          group.Slug,
			Compensated: compErr == nil,
			Err:         err,
		}
	}

	if err := s.eventSink.GroupCreated(ctx, group); err != nil {
		slog.Warn("group created event sink failed", "slug", group.Slug, "error", err)
	}

	return group, nil
}

func (s *service) ListGroups(ctx context.Context) ([]*Group, error) {
	return s.repository.ListGroups(ctx)
}

func (s *service) GetGroup(ctx context.Context, slug string) (*Group, error) {
	return s.repository.GetGroup(ctx, slug)
}

func (s *service) UpdateGroupProfile(ctx context.Context, slug string, patch GroupPatch) (*Group, error) {
	if err := s.repository.UpdateGroupProfile(ctx, slug, patch); err != nil {
		return nil, err
	}
	return s.repository.GetGroup(ctx, slug)
}

// Account operations

const defaultDescription = "Hi, I'm new here."

// Register creates an account and bootstraps its companion user profile with
// empty relationship sets. A second register with the same name fails with
// ErrNameTaken and leaves no additional documents behind.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	n, err := s.repository.CountAccountsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrNameTaken
	}

	account := &Account{Name: req.Name, Password: req.Password}
	if err := s.repository.InsertAccount(ctx, account); err != nil {
		return nil, err
	}

	user := &User{
		Name:        req.Name,
		Description: defaultDescription,
		Groups:      []string{},
		Friends:     []string{},
		Posts:       []Post{},
	}
	if err := s.repository.InsertUser(ctx, user); err != nil {
		// Roll the account back so a retry is possible.
		if compErr := s.repository.DeleteAccount(ctx, req.Name); compErr != nil {
			slog.Error("account rollback failed after user bootstrap error",
				"name", req.Name, "error", compErr)
		}
		return nil, err
	}

	if err := s.eventSink.UserRegistered(ctx, user); err != nil {
		slog.Warn("user registered event sink failed", "name", user.Name, "error", err)
	}

	return user, nil
}

// Login fetches the stored account and compares the password by direct
// equality. Plaintext on purpose: the source system works this way and the
// gap is tracked openly rather than patched quietly. No token is issued.
func (s *service) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	account, err := s.repository.GetAccount(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			return &LoginResult{Name: name, OK: false}, nil
		}
		return nil, err
	}
	return &LoginResult{Name: name, OK: account.Password == password}, nil
}
