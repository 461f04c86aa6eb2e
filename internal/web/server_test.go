package web

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mleone/recipebook/internal/recipe"
	"github.com/mleone/recipebook/internal/store/memory"
	"github.com/mleone/recipebook/internal/upload"
)

func TestServer_ListRecipes_EmptyStore(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "No recipes yet")
	require.NotContains(t, rec.Body.String(), "Featured Recipe")
}

func TestServer_ListRecipes_ShowsFeatured(t *testing.T) {
	t.Parallel()

	server, store := newTestServer(t)
	require.NoError(t, store.Create(context.Background(), recipe.Recipe{
		Title: "Beef Stew", Slug: "beef-stew", Image: "1-stew.png",
	}))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Featured Recipe")
	require.Contains(t, rec.Body.String(), "Beef Stew")
	require.Contains(t, rec.Body.String(), "/recipe/beef-stew")
}

func TestServer_ListRecipes_StoreError(t *testing.T) {
	t.Parallel()

	server := newTestServerWithStore(t, &failingStore{findAllErr: errors.New("boom")})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Error fetching recipes")
}

func TestServer_ShowRecipe_Found(t *testing.T) {
	t.Parallel()

	server, store := newTestServer(t)
	require.NoError(t, store.Create(context.Background(), recipe.Recipe{
		Title:        "Spicy Chicken Soup!",
		Slug:         "spicy-chicken-soup",
		Ingredients:  []string{"chicken", "chili"},
		Instructions: "simmer",
		Image:        "1-soup.png",
	}))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recipe/spicy-chicken-soup", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Spicy Chicken Soup!")
	require.Contains(t, rec.Body.String(), "chili")
}

func TestServer_ShowRecipe_NotFound(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recipe/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Recipe not found")
}

func TestServer_ShowRecipe_StoreError(t *testing.T) {
	t.Parallel()

	server := newTestServerWithStore(t, &failingStore{findBySlugErr: errors.New("boom")})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recipe/any", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Error retrieving recipe")
}

func TestServer_CreateRecipe_EndToEnd(t *testing.T) {
	t.Parallel()

	uploadsDir := t.TempDir()
	store := memory.New()
	server := NewServer(store, newSaver(t, uploadsDir), Config{
		UploadsDir:     uploadsDir,
		AssetsDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
	}, zap.NewNop())

	body, contentType := multipartRecipe(t, map[string]string{
		"title":        "Mom's Pie!!",
		"description":  "x",
		"ingredients":  "flour,sugar,butter",
		"instructions": "bake",
	}, "pie.png", []byte("png bytes"))

	req := httptest.NewRequest(http.MethodPost, "/add-recipe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	stored, err := store.FindBySlug(context.Background(), "moms-pie")
	require.NoError(t, err)
	require.Equal(t, "Mom's Pie!!", stored.Title)
	require.Equal(t, []string{"flour", "sugar", "butter"}, stored.Ingredients)
	require.True(t, strings.HasSuffix(stored.Image, "-pie.png"), "image %q", stored.Image)

	// The upload landed in the content directory.
	data, err := os.ReadFile(filepath.Join(uploadsDir, stored.Image))
	require.NoError(t, err)
	require.Equal(t, "png bytes", string(data))

	// The detail page is reachable under the derived slug.
	detail := httptest.NewRecorder()
	server.Handler().ServeHTTP(detail, httptest.NewRequest(http.MethodGet, "/recipe/moms-pie", nil))
	require.Equal(t, http.StatusOK, detail.Code)
	require.Contains(t, detail.Body.String(), "Mom&#39;s Pie!!")
}

func TestServer_CreateRecipe_DuplicateSlug(t *testing.T) {
	t.Parallel()

	server, store := newTestServer(t)
	require.NoError(t, store.Create(context.Background(), recipe.Recipe{
		Title: "Moms Pie", Description: "first", Slug: "moms-pie",
	}))

	body, contentType := multipartRecipe(t, map[string]string{
		"title": "Mom's Pie!!",
	}, "pie.png", []byte("png"))

	req := httptest.NewRequest(http.MethodPost, "/add-recipe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Error adding recipe")

	// The original recipe is untouched.
	stored, err := store.FindBySlug(context.Background(), "moms-pie")
	require.NoError(t, err)
	require.Equal(t, "first", stored.Description)
}

func TestServer_CreateRecipe_MissingImage(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "No Image"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/add-recipe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Error adding recipe")
}

func TestServer_CreateRecipe_SaverError(t *testing.T) {
	t.Parallel()

	store := memory.New()
	server := NewServer(store, &failingSaver{}, Config{
		UploadsDir:     t.TempDir(),
		AssetsDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
	}, zap.NewNop())

	body, contentType := multipartRecipe(t, map[string]string{"title": "Broken"}, "x.png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/add-recipe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The recipe was discarded.
	all, err := store.FindAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestServer_ServesUploadedFiles(t *testing.T) {
	t.Parallel()

	uploadsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "1-pie.png"), []byte("pie"), 0o600))

	server := NewServer(memory.New(), newSaver(t, uploadsDir), Config{
		UploadsDir:     uploadsDir,
		AssetsDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/1-pie.png", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pie", rec.Body.String())
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestStatusForClassification(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusNotFound, statusFor(recipe.ErrNotFound))
	require.Equal(t, http.StatusInternalServerError, statusFor(recipe.ErrDuplicateSlug))
	require.Equal(t, http.StatusInternalServerError, statusFor(errors.New("connection reset")))
}

// --- helpers/fakes ---

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	uploadsDir := t.TempDir()
	server := NewServer(store, newSaver(t, uploadsDir), Config{
		UploadsDir:     uploadsDir,
		AssetsDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
	}, zap.NewNop())
	return server, store
}

func newTestServerWithStore(t *testing.T, store recipe.Store) *Server {
	t.Helper()
	uploadsDir := t.TempDir()
	return NewServer(store, newSaver(t, uploadsDir), Config{
		UploadsDir:     uploadsDir,
		AssetsDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
	}, zap.NewNop())
}

func newSaver(t *testing.T, dir string) *upload.Saver {
	t.Helper()
	saver, err := upload.New(upload.Config{Dir: dir})
	require.NoError(t, err)
	return saver
}

func multipartRecipe(t *testing.T, fields map[string]string, filename string, fileBytes []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(fileBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type failingStore struct {
	findAllErr    error
	findBySlugErr error
}

func (f *failingStore) Create(context.Context, recipe.Recipe) error {
	return errors.New("create failed")
}

func (f *failingStore) FindBySlug(context.Context, string) (recipe.Recipe, error) {
	return recipe.Recipe{}, f.findBySlugErr
}

func (f *failingStore) FindAll(context.Context) ([]recipe.Recipe, error) {
	return nil, f.findAllErr
}

func (f *failingStore) FindRandomOne(context.Context) (recipe.Recipe, error) {
	return recipe.Recipe{}, errors.New("sample failed")
}

func (f *failingStore) Close(context.Context) error { return nil }

type failingSaver struct{}

func (f *failingSaver) Save(string, io.Reader) (string, error) {
	return "", errors.New("disk full")
}
