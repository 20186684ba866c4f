package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/commune-dev/commune/pkg/commune"
)

// ContentHandler handles HTTP requests for pages and blog posts using
// pkg/commune
type ContentHandler struct {
	service commune.Service
}

// NewContentHandler creates a new content handler
func NewContentHandler(service commune.Service) *ContentHandler {
	return &ContentHandler{service: service}
}

// Routes returns the routes for pages and posts
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/pages", h.CreatePage)
	r.Get("/pages", h.ListPages)
	r.Get("/pages/{slug}", h.GetPage)
	r.Put("/pages/{slug}", h.UpdatePage)
	r.Delete("/pages/{slug}", h.DeletePage)

	r.Post("/posts", h.CreatePost)
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{slug}", h.GetPost)
	r.Put("/posts/{slug}", h.UpdatePost)
	r.Delete("/posts/{slug}", h.DeletePost)

	return r
}

// CreatePage creates a new page
func (h *ContentHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req commune.CreatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	page, err := h.service.CreatePage(r.Context(), req)
	if err != nil {
		slog.Error("Failed to create page", "title", req.Title, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Page created", "slug", page.Slug)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, page)
}

// ListPages lists all pages without their content
func (h *ContentHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ListPages(r.Context())
	if err != nil {
		slog.Error("Failed to list pages", "error", err)
		writeError(w, r, err)
		return
	}
	if pages == nil {
		pages = []*commune.Page{}
	}
	render.JSON(w, r, pages)
}

// GetPage retrieves a page by slug
func (h *ContentHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := h.service.GetPage(r.Context(), slug)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to get page", "slug", slug, "error", err)
		}
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// UpdatePage replaces a page's title and content
func (h *ContentHandler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req commune.UpdatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	page, err := h.service.UpdatePage(r.Context(), slug, req)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to update page", "slug", slug, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Page updated", "slug", slug, "new_slug", page.Slug)
	render.JSON(w, r, page)
}

// DeletePage deletes a page by slug
func (h *ContentHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := h.service.DeletePage(r.Context(), slug); err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to delete page", "slug", slug, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Page deleted", "slug", slug)
	w.WriteHeader(http.StatusNoContent)
}

// CreatePost creates a new top-level blog post
func (h *ContentHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req commune.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	post, err := h.service.CreatePost(r.Context(), req)
	if err != nil {
		slog.Error("Failed to create post", "title", req.Title, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Post created", "slug", post.Slug)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

// ListPosts lists all posts without their content, newest first
func (h *ContentHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		slog.Error("Failed to list posts", "error", err)
		writeError(w, r, err)
		return
	}
	if posts == nil {
		posts = []*commune.Post{}
	}
	render.JSON(w, r, posts)
}

// GetPost retrieves a post by slug
func (h *ContentHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.service.GetPost(r.Context(), slug)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to get post", "slug", slug, "error", err)
		}
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, post)
}

// UpdatePost replaces a post's title and content
func (h *ContentHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req commune.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	post, err := h.service.UpdatePost(r.Context(), slug, req)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to update post", "slug", slug, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Post updated", "slug", slug, "new_slug", post.Slug)
	render.JSON(w, r, post)
}

// DeletePost deletes a post by slug
func (h *ContentHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := h.service.DeletePost(r.Context(), slug); err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to delete post", "slug", slug, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Post deleted", "slug", slug)
	w.WriteHeader(http.StatusNoContent)
}
