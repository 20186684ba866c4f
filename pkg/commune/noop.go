package commune

import "context"

// noopEventSink is an EventSink that does nothing
type noopEventSink struct{}

// NewNoopEventSink creates an event sink that ignores all events
func NewNoopEventSink() EventSink {
	return &noopEventSink{}
}

func (s *noopEventSink) PageCreated(ctx context.Context, page *Page) error { return nil }
func (s *noopEventSink) PostCreated(ctx context.Context, post *Post) error { return nil }
func (s *noopEventSink) UserRegistered(ctx context.Context, user *User) error { return nil }
func (s *noopEventSink) GroupCreated(ctx context.Context, group *Group) error { return nil }
func (s *noopEventSink) MembershipChanged(ctx context.Context, userName, groupSlug string, member bool) error {
	return nil
}
