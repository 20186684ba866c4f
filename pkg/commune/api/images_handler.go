package api

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/commune-dev/commune/pkg/commune"
)

const maxImageBytes = 10 << 20 // 10 MiB upload cap

// ImagesHandler handles profile and background image uploads backed by a
// commune.BlobStore
type ImagesHandler struct {
	store commune.BlobStore
}

// NewImagesHandler creates a new images handler
func NewImagesHandler(store commune.BlobStore) *ImagesHandler {
	return &ImagesHandler{store: store}
}

// Routes returns the routes for images
func (h *ImagesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	r.Get("/{key}", h.Download)
	r.Get("/{key}/meta", h.GetMeta)
	r.Delete("/{key}", h.Delete)
	return r
}

// UploadResponse is the response body for an uploaded image
type UploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// Upload stores a multipart image under a fresh object key. The original
// file name only contributes its extension; the key itself is a UUID so
// uploads never collide.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Missing image file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	objectKey := uuid.New().String() + filepath.Ext(header.Filename)

	if err := h.store.Upload(r.Context(), objectKey, file); err != nil {
		slog.Error("Failed to upload image", "key", objectKey, "error", err)
		http.Error(w, "Failed to store image", http.StatusInternalServerError)
		return
	}

	resp := UploadResponse{Key: objectKey}
	// A URL is backend-dependent; the memory backend has none and the
	// handler serves the bytes itself.
	if url, err := h.store.GetDownloadURL(r.Context(), objectKey); err == nil {
		resp.URL = url
	}

	slog.Info("Image uploaded", "key", objectKey, "size", header.Size)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// Download serves the stored image bytes. When the backend hands out URLs
// the client is redirected there instead.
func (h *ImagesHandler) Download(w http.ResponseWriter, r *http.Request) {
	objectKey := chi.URLParam(r, "key")

	if url, err := h.store.GetDownloadURL(r.Context(), objectKey); err == nil {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	meta, err := h.store.GetObjectMeta(r.Context(), objectKey)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to get image metadata", "key", objectKey, "error", err)
		}
		writeError(w, r, err)
		return
	}

	reader, err := h.store.Download(r.Context(), objectKey)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to download image", "key", objectKey, "error", err)
		}
		writeError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	if _, err := io.Copy(w, reader); err != nil {
		slog.Error("Failed to stream image", "key", objectKey, "error", err)
	}
}

// GetMeta retrieves metadata for a stored image
func (h *ImagesHandler) GetMeta(w http.ResponseWriter, r *http.Request) {
	objectKey := chi.URLParam(r, "key")

	meta, err := h.store.GetObjectMeta(r.Context(), objectKey)
	if err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to get image metadata", "key", objectKey, "error", err)
		}
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, meta)
}

// Delete removes a stored image
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	objectKey := chi.URLParam(r, "key")

	if err := h.store.Delete(r.Context(), objectKey); err != nil {
		if !commune.IsNotFound(err) {
			slog.Error("Failed to delete image", "key", objectKey, "error", err)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("Image deleted", "key", objectKey)
	w.WriteHeader(http.StatusNoContent)
}
