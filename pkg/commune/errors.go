package commune

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrPageNotFound indicates a page lookup by slug matched nothing
	ErrPageNotFound = errors.New("page not found")

	// ErrPostNotFound indicates a post lookup by slug matched nothing
	ErrPostNotFound = errors.New("post not found")

	// ErrUserNotFound indicates a user lookup by name matched nothing
	ErrUserNotFound = errors.New("user not found")

	// ErrGroupNotFound indicates a group lookup by slug matched nothing
	ErrGroupNotFound = errors.New("group not found")

	// ErrAccountNotFound indicates an account lookup by name matched nothing
	ErrAccountNotFound = errors.New("account not found")

	// ErrNameTaken indicates a register attempt with an existing account name
	ErrNameTaken = errors.New("name already taken")

	// ErrGroupExists indicates a group create with an already used slug
	ErrGroupExists = errors.New("group already exists")

	// ErrPageExists indicates a page update whose recomputed slug would land
	// on a different existing page
	ErrPageExists = errors.New("page already exists")

	// ErrPostExists indicates a post update whose recomputed slug would land
	// on a different existing post
	ErrPostExists = errors.New("post already exists")

	// ErrInvalidParentKind indicates a nested post operation with an unknown
	// parent discriminator
	ErrInvalidParentKind = errors.New("invalid parent kind")

	// ErrObjectNotFound indicates a stored image object was not found
	ErrObjectNotFound = errors.New("object not found")
)

// IsNotFound reports whether err is one of the not-found sentinels. Handlers
// use it to map lookups that matched nothing to a soft 404 instead of a
// store failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPageNotFound) ||
		errors.Is(err, ErrPostNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrObjectNotFound)
}

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrNameTaken) ||
		errors.Is(err, ErrGroupExists) ||
		errors.Is(err, ErrPageExists) ||
		errors.Is(err, ErrPostExists)
}

// StoreError represents an underlying document store failure. The original
// system swallowed these server-side; here they are propagated so the
// boundary can answer with a distinct status.
type StoreError struct {
	Collection string
	Op         string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store operation %s failed on collection %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// RelationshipError reports a friend or membership toggle that failed after
// some of its writes had already been applied. Compensated tells whether the
// undo of the applied writes succeeded; when false the edge is left
// asymmetric and needs operator attention.
type RelationshipError struct {
	Edge        string // "friend" or "membership"
	From, To    string
	Compensated bool
	Err         error
}

func (e *RelationshipError) Error() string {
	if e.Compensated {
		return fmt.Sprintf("%s toggle %s->%s failed and was rolled back: %v", e.Edge, e.From, e.To, e.Err)
	}
	return fmt.Sprintf("%s toggle %s->%s failed and could not be rolled back: %v", e.Edge, e.From, e.To, e.Err)
}

func (e *RelationshipError) Unwrap() error {
	return e.Err
}
