package commune

import (
	"context"
	"log/slog"
)

// Relationship toggles span two documents (friendship) or three logical
// mutations across two documents (membership) with no store transaction.
// Each toggle is an application-level saga: when a later write fails, the
// earlier writes are undone and the partial failure is surfaced as a
// *RelationshipError instead of being logged and forgotten.

func (s *service) SetFriend(ctx context.Context, name, friend string, add bool) error {
	forward, backward := s.repository.PushFriend, s.repository.PullFriend
	if !add {
		forward, backward = s.repository.PullFriend, s.repository.PushFriend
	}

	if err := forward(ctx, name, friend); err != nil {
		return err
	}

	if err := forward(ctx, friend, name); err != nil {
		compErr := backward(ctx, name, friend)
		if compErr != nil {
			slog.Error("friend toggle compensation failed, edge left asymmetric",
				"name", name, "friend", friend, "add", add, "error", compErr)
		}
		return &RelationshipError{
			Edge:        "friend",
			From:        name,
			To:          friend,
			Compensated: compErr == nil,
			Err:         err,
		}
	}

	return nil
}

func (s *service) SetMembership(ctx context.Context, userName, groupSlug string, add bool) error {
	// The group side ($push/$pull of users plus the usersCount $inc) is one
	// single-document update, so the count can never drift from the member
	// set. Only the mirror on the user document can fail separately.
	groupOp, groupUndo := s.repository.AddGroupMember, s.repository.RemoveGroupMember
	userOp := s.repository.PushUserGroup
	if !add {
		groupOp, groupUndo = s.repository.RemoveGroupMember, s.repository.AddGroupMember
		userOp = s.repository.PullUserGroup
	}

	if err := groupOp(ctx, groupSlug, userName); err != nil {
		return err
	}

	if err := userOp(ctx, userName, groupSlug); err != nil {
		compErr := groupUndo(ctx, groupSlug, userName)
		if compErr != nil {
			slog.Error("membership toggle compensation failed, graph left inconsistent",
				"user", userName, "group", groupSlug, "add", add, "error", compErr)
		}
		return &RelationshipError{
			Edge:        "membership",
			From:        userName,
			To:          groupSlug,
			Compensated: compErr == nil,
			Err:         err,
		}
	}

	if err := s.eventSink.MembershipChanged(ctx, userName, groupSlug, add); err != nil {
		slog.Warn("membership changed event sink failed",
			"user", userName, "group", groupSlug, "error", err)
	}

	return nil
}

// Discovery operations: two sequential reads, no mutation.

func (s *service) Friends(ctx context.Context, name string) ([]*User, error) {
	user, err := s.repository.GetUser(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(user.Friends) == 0 {
		return []*User{}, nil
	}
	return s.repository.UsersByName(ctx, user.Friends)
}

func (s *service) UserGroups(ctx context.Context, name string) ([]*Group, error) {
	user, err := s.repository.GetUser(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(user.Groups) == 0 {
		return []*Group{}, nil
	}
	return s.repository.GroupsBySlug(ctx, user.Groups, true)
}

func (s *service) AvailableGroups(ctx context.Context, name string) ([]*Group, error) {
	user, err := s.repository.GetUser(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.repository.GroupsBySlug(ctx, user.Groups, false)
}
