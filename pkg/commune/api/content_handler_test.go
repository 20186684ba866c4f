package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commune-dev/commune/pkg/commune"
	"github.com/commune-dev/commune/pkg/commune/repo/memory"
)

// setupContentHandlerTest creates a ContentHandler backed by the in-memory
// repository for testing
func setupContentHandlerTest(t *testing.T) (*ContentHandler, commune.Service) {
	service, err := commune.New(
		commune.WithRepository(memory.New()),
		commune.WithEventSink(commune.NewNoopEventSink()),
	)
	require.NoError(t, err)

	return NewContentHandler(service), service
}

func postJSON(t *testing.T, router http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestContentHandler_CreatePage_Success(t *testing.T) {
	handler, _ := setupContentHandlerTest(t)
	router := handler.Routes()

	w := postJSON(t, router, http.MethodPost, "/pages", commune.CreatePageRequest{
		Title:   "About Us",
		Content: "<p>Who we are</p>",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp commune.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "about-us", resp.Slug)
	assert.Equal(t, "About Us", resp.Title)
}

func TestContentHandler_CreatePage_MissingTitle(t *testing.T) {
	handler, _ := setupContentHandlerTest(t)
	router := handler.Routes()

	w := postJSON(t, router, http.MethodPost, "/pages", commune.CreatePageRequest{Content: "body"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Title is required")
}

func TestContentHandler_GetPage_Success(t *testing.T) {
	handler, service := setupContentHandlerTest(t)
	router := handler.Routes()

	_, err := service.CreatePage(context.Background(), commune.CreatePageRequest{
		Title:   "Contact",
		Content: "mail us",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/pages/contact", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp commune.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "mail us", resp.Content)
}

func TestContentHandler_GetPage_NotFound(t *testing.T) {
	handler, _ := setupContentHandlerTest(t)
	router := handler.Routes()

	req := httptest.NewRequest(http.MethodGet, "/pages/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentHandler_ListPages_OmitsContent(t *testing.T) {
	handler, service := setupContentHandlerTest(t)
	router := handler.Routes()

	_, err := service.CreatePage(context.Background(), commune.CreatePageRequest{
		Title:   "Rules",
		Content: "long body",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []commune.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Empty(t, resp[0].Content)
}

func TestContentHandler_UpdatePage_MovesSlug(t *testing.T) {
	handler, service := setupContentHandlerTest(t)
	router := handler.Routes()

	_, err := service.CreatePage(context.Background(), commune.CreatePageRequest{Title: "Old"})
	require.NoError(t, err)

	w := postJSON(t, router, http.MethodPut, "/pages/old", commune.UpdatePageRequest{
		Title:   "New Title",
		Content: "fresh",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp commune.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new-title", resp.Slug)
}

func TestContentHandler_DeletePage(t *testing.T) {
	handler, service := setupContentHandlerTest(t)
	router := handler.Routes()

	_, err := service.CreatePage(context.Background(), commune.CreatePageRequest{Title: "Ephemeral"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/pages/ephemeral", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err = service.GetPage(context.Background(), "ephemeral")
	assert.ErrorIs(t, err, commune.ErrPageNotFound)
}

func TestContentHandler_CreatePost_CollisionSuffix(t *testing.T) {
	handler, _ := setupContentHandlerTest(t)
	router := handler.Routes()

	first := postJSON(t, router, http.MethodPost, "/posts", commune.CreatePostRequest{Title: "Patch Notes"})
	second := postJSON(t, router, http.MethodPost, "/posts", commune.CreatePostRequest{Title: "Patch Notes"})

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)

	var p1, p2 commune.Post
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &p1))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &p2))
	assert.Equal(t, "patch-notes", p1.Slug)
	assert.Equal(t, "patch-notes-2", p2.Slug)
}

func TestContentHandler_GetPost_CarriesExcerptAndDate(t *testing.T) {
	handler, service := setupContentHandlerTest(t)
	router := handler.Routes()

	_, err := service.CreatePost(context.Background(), commune.CreatePostRequest{
		Title:   "Launch",
		Content: "<h1>We</h1> are live",
		Author:  "alice",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/posts/launch", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp commune.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "We are live", resp.Excerpt)
	assert.NotZero(t, resp.Date)
	assert.Equal(t, "alice", resp.Author)
}
