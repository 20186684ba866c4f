package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/commune-dev/commune/pkg/commune"
)

// CommunityHandler handles HTTP requests for users, groups, friend edges and
// the posts embedded in both, using pkg/commune
type CommunityHandler struct {
	service commune.Service
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(service commune.Service) *CommunityHandler {
	return &CommunityHandler{service: service}
}

// Routes returns the routes for users and groups
func (h *CommunityHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/users/{name}", h.GetUser)
	r.Patch("/users/{name}", h.UpdateUser)

	r.Get("/users/{name}/friends", h.ListFriends)
	r.Put("/users/{name}/friends/{friend}", h.AddFriend)
	r.Delete("/users/{name}/friends/{friend}", h.RemoveFriend)

	r.Get("/users/{name}/groups", h.ListUserGroups)
	r.Get("/users/{name}/groups/available", h.ListAvailableGroups)

	r.Post("/users/{name}/posts", h.CreateUserPost)
	r.Get("/users/{name}/posts", h.ListUserPosts)
	r.Get("/users/{name}/posts/{slug}", h.GetUserPost)

	r.Post("/groups", h.CreateGroup)
	r.Get("/groups", h.ListGroups)
	r.Get("/groups/{slug}", h.GetGroup)
	r.Patch("/groups/{slug}", h.UpdateGroup)

	r.Put("/groups/{slug}/members/{name}", h.AddMember)
	r.Delete("/groups/{slug}/members/{name}", h.RemoveMember)

	r.Post("/groups/{slug}/posts", h.CreateGroupPost)
	r.Get("/groups/{slug}/posts", h.ListGroupPosts)
	r.Get("/groups/{slug}/posts/{postSlug}", h.GetGroupPost)

	return r
}

// GetUser retrieves a user profile by name
func (h *CommunityHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	user, err := h.service.GetUser(r.Context(), name)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to get user", "name", name, "error", err)
		}
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

// UpdateUser applies a partial profile update to a user
func (h *CommunityHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var patch commune.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateUserProfile(r.Context(), name, patch)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to update user", "name", name, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("User updated", "name", name)
	render.JSON(w, r, user)
}

// ListFriends lists the full profiles of a user's friends
func (h *CommunityHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	friends, err := h.service.Friends(r.Context(), name)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to list friends", "name", name, "error", err)
		}
		writeError(w, r, err)
		return
	}
	if friends == nil {
		friends = []*commune.User{}
	}
	render.JSON(w, r, friends)
}

// AddFriend creates a symmetric friend edge between two users
func (h *CommunityHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	h.setFriend(w, r, true)
}

// RemoveFriend removes the friend edge in both directions
func (h *CommunityHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	h.setFriend(w, r, false)
}

func (h *CommunityHandler) setFriend(w http.ResponseWriter, r *http.Request, add bool) {
	name := chi.URLParam(r, "name")
	friend := chi.URLParam(r, "friend")

	if name == friend {
		http.Error(w, "Cannot befriend yourself", http.StatusBadRequest)
		return
	}

	if err := h.service.SetFriend(r.Context(), name, friend, add); err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to toggle friend edge", "name", name, "friend", friend, "add", add, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Friend edge toggled", "name", name, "friend", friend, "add", add)
	w.WriteHeader(http.StatusNoContent)
}

// ListUserGroups lists the full profiles of the groups a user belongs to
func (h *CommunityHandler) ListUserGroups(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	groups, err := h.service.UserGroups(r.Context(), name)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to list user groups", "name", name, "error", err)
		}
		writeError(w, r, err)
		return
	}
	if groups == nil {
		groups = []*commune.Group{}
	}
	render.JSON(w, r, groups)
}

// ListAvailableGroups lists the groups a user has not joined yet
func (h *CommunityHandler) ListAvailableGroups(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	groups, err := h.service.AvailableGroups(r.Context(), name)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to list available groups", "name", name, "error", err)
		}
		writeError(w, r, err)
		return
	}
	if groups == nil {
		groups = []*commune.Group{}
	}
	render.JSON(w, r, groups)
}

// CreateUserPost creates a post embedded in a user profile
func (h *CommunityHandler) CreateUserPost(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.createNestedPost(w, r, commune.ParentUser, name)
}

// ListUserPosts lists the posts embedded in a user profile
func (h *CommunityHandler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.listNestedPosts(w, r, commune.ParentUser, name)
}

// GetUserPost retrieves a single post embedded in a user profile
func (h *CommunityHandler) GetUserPost(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	slug := chi.URLParam(r, "slug")
	h.getNestedPost(w, r, commune.ParentUser, name, slug)
}

// CreateGroup creates a new group owned by the requesting user
func (h *CommunityHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req commune.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	if req.Owner == "" {
		http.Error(w, "Owner is required", http.StatusBadRequest)
		return
	}

	group, err := h.service.CreateGroup(r.Context(), req)
	if err != nil {
		if !commune.IsNotFound(err) && !commune.IsConflict(err) {
			slog.Error("Failed to create group", "name", req.Name, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Group created", "slug", group.Slug, "owner", group.Owner)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, group)
}

// ListGroups lists all groups without their posts
func (h *CommunityHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroups(r.Context())
	if err != nil {
		slog.Error("Failed to list groups", "error", err)
		writeError(w, r, err)
		return
	}
	if groups == nil {
		groups = []*commune.Group{}
	}
	render.JSON(w, r, groups)
}

// GetGroup retrieves a group by slug
func (h *CommunityHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	group, err := h.service.GetGroup(r.Context(), slug)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to get group", "slug", slug, "error", err)
		}
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, group)
}

// UpdateGroup applies a partial profile update to a group
func (h *CommunityHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var patch commune.GroupPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	group, err := h.service.UpdateGroupProfile(r.Context(), slug, patch)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to update group", "slug", slug, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Group updated", "slug", slug)
	render.JSON(w, r, group)
}

// AddMember adds a user to a group's member set
func (h *CommunityHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	h.setMembership(w, r, true)
}

// RemoveMember removes a user from a group's member set
func (h *CommunityHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.setMembership(w, r, false)
}

func (h *CommunityHandler) setMembership(w http.ResponseWriter, r *http.Request, add bool) {
	slug := chi.URLParam(r, "slug")
	name := chi.URLParam(r, "name")

	if err := h.service.SetMembership(r.Context(), name, slug, add); err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to toggle membership", "group", slug, "user", name, "add", add, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Membership toggled", "group", slug, "user", name, "add", add)
	w.WriteHeader(http.StatusNoContent)
}

// CreateGroupPost creates a post embedded in a group
func (h *CommunityHandler) CreateGroupPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	h.createNestedPost(w, r, commune.ParentGroup, slug)
}

// ListGroupPosts lists the posts embedded in a group
func (h *CommunityHandler) ListGroupPosts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	h.listNestedPosts(w, r, commune.ParentGroup, slug)
}

// GetGroupPost retrieves a single post embedded in a group
func (h *CommunityHandler) GetGroupPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	postSlug := chi.URLParam(r, "postSlug")
	h.getNestedPost(w, r, commune.ParentGroup, slug, postSlug)
}

func (h *CommunityHandler) createNestedPost(w http.ResponseWriter, r *http.Request, kind commune.ParentKind, parentKey string) {
	var req commune.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	post, err := h.service.CreateNestedPost(r.Context(), kind, parentKey, req)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to create nested post", "kind", kind, "parent", parentKey, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Nested post created", "kind", kind, "parent", parentKey, "slug", post.Slug)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

func (h *CommunityHandler) listNestedPosts(w http.ResponseWriter, r *http.Request, kind commune.ParentKind, parentKey string) {
	posts, err := h.service.ListNestedPosts(r.Context(), kind, parentKey)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to list nested posts", "kind", kind, "parent", parentKey, "error", err)
		}
		writeError(w, r, err)
		return
	}
	if posts == nil {
		posts = []commune.Post{}
	}
	render.JSON(w, r, posts)
}

func (h *CommunityHandler) getNestedPost(w http.ResponseWriter, r *http.Request, kind commune.ParentKind, parentKey, slug string) {
	post, err := h.service.GetNestedPost(r.Context(), kind, parentKey, slug)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to get nested post", "kind", kind, "parent", parentKey, "slug", slug, "error", err)
		}
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, post)
}
