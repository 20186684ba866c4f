package commune

import (
	"context"
	"log/slog"
)

// Nested post operations. A nested post lives inside its parent user or
// group document; slug uniqueness is scoped to that one parent, so the same
// title under two different parents yields the same base slug in each.

func (s *service) CreateNestedPost(ctx context.Context, kind ParentKind, parentKey string, req CreatePostRequest) (*Post, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidParentKind
	}

	// Fail early when the parent is missing; a push against a nonexistent
	// document would otherwise silently match nothing.
	if err := s.checkParent(ctx, kind, parentKey); err != nil {
		return nil, err
	}

	post := s.buildPost(req)

	n, err := s.repository.CountNestedPostsByTitle(ctx, kind, parentKey, req.Title)
	if err != nil {
		return nil, err
	}
	post.Slug = CollisionSlug(post.Slug, n)

	if err := s.repository.PushNestedPost(ctx, kind, parentKey, post); err != nil {
		return nil, err
	}

	if err := s.eventSink.PostCreated(ctx, post); err != nil {
		slog.Warn("nested post created event sink failed",
			"parent", parentKey, "slug", post.Slug, "error", err)
	}

	return post, nil
}

func (s *service) GetNestedPost(ctx context.Context, kind ParentKind, parentKey, slug string) (*Post, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidParentKind
	}
	return s.repository.GetNestedPost(ctx, kind, parentKey, slug)
}

func (s *service) ListNestedPosts(ctx context.Context, kind ParentKind, parentKey string) ([]Post, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidParentKind
	}
	return s.repository.ListNestedPosts(ctx, kind, parentKey)
}

func (s *service) checkParent(ctx context.Context, kind ParentKind, parentKey string) error {
	switch kind {
	case ParentUser:
		_, err := s.repository.GetUser(ctx, parentKey)
		return err
	case ParentGroup:
		_, err := s.repository.GetGroup(ctx, parentKey)
		return err
	}
	return ErrInvalidParentKind
}
