package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/anatolykoptev/go_course/internal/engine"
	"github.com/anatolykoptev/go_course/internal/engine/course"
	"github.com/anatolykoptev/go_course/internal/engine/library"
	"github.com/anatolykoptev/go_course/internal/engine/sources"
)

type stubConverter struct {
	doc *course.Document
	err error
	got engine.CourseConvertInput
}

func (s *stubConverter) Convert(_ context.Context, in engine.CourseConvertInput) (*course.Document, error) {
	s.got = in
	return s.doc, s.err
}

type response struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Errors    []string        `json:"errors"`
	Timestamp string          `json:"timestamp"`
}

func newTestLibrary(t *testing.T) *library.Library {
	t.Helper()
	store, err := library.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	tokens, err := library.NewTokenIssuer("api-test-secret", time.Hour)
	require.NoError(t, err)
	return library.New(store, tokens, bcrypt.MinCost)
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestHealth(t *testing.T) {
	h := NewRouter(Config{}, Deps{})
	rec, resp := do(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Timestamp)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestNotFound(t *testing.T) {
	h := NewRouter(Config{}, Deps{})
	for _, path := range []string{"/nope", "/api/v1/nope?x=1"} {
		rec, resp := do(t, h, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.False(t, resp.Success)
		assert.Equal(t, "Route "+path+" not found", resp.Message)
	}
}

func TestConvert(t *testing.T) {
	conv := &stubConverter{doc: &course.Document{Title: "B", Slug: "b", Description: "D", Tags: []string{"t"}, CourseContent: "md", Presenter: "Jane"}}
	h := NewRouter(Config{}, Deps{Converter: conv})

	rec, resp := do(t, h, http.MethodPost, "/api/v1/users/convert",
		map[string]string{"youtubeUrl": "https://youtu.be/x", "title": "B", "presenter": "Jane"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "https://youtu.be/x", conv.got.YouTubeURL)

	var doc course.Document
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	assert.Equal(t, "Jane", doc.Presenter)
}

func TestConvertErrorMapping(t *testing.T) {
	_, invalid := course.ParseVideoReference("")
	_, upstream := course.GenerateDraft(context.Background(), failingGenerator{}, "i", "text")

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"invalid input", invalid, http.StatusBadRequest, course.MsgReferenceRequired},
		{"upstream", upstream, http.StatusServiceUnavailable, course.MsgGenerationUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Failed to convert YouTube URL to course"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRouter(Config{}, Deps{Converter: &stubConverter{err: tt.err}})
			rec, resp := do(t, h, http.MethodPost, "/api/v1/users/convert", map[string]string{}, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, resp.Message)
			assert.NotContains(t, rec.Body.String(), "secret-detail")
		})
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, course.GenerationRequest) (string, error) {
	return "", errors.New("secret-detail")
}

func TestUsersAndPrompts(t *testing.T) {
	h := NewRouter(Config{}, Deps{Library: newTestLibrary(t)})

	rec, resp := do(t, h, http.MethodPost, "/api/v1/users/signup",
		map[string]string{"name": "Jane", "email": "jane@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec, resp = do(t, h, http.MethodPost, "/api/v1/users/signup",
		map[string]string{"name": "Jane", "email": "jane@example.com", "password": "secret123"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already in use", resp.Message)

	rec, resp = do(t, h, http.MethodPost, "/api/v1/users/login",
		map[string]string{"email": "jane@example.com", "password": "wrong-one"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email or password", resp.Message)

	rec, resp = do(t, h, http.MethodPost, "/api/v1/users/login",
		map[string]string{"email": "jane@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var auth library.AuthResult
	require.NoError(t, json.Unmarshal(resp.Data, &auth))
	require.NotEmpty(t, auth.Token)

	rec, resp = do(t, h, http.MethodGet, "/api/v1/prompts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access denied. No token provided.", resp.Message)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/prompts", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp = do(t, h, http.MethodPost, "/api/v1/prompts",
		map[string]string{"title": "T"}, auth.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title and content are required", resp.Message)

	rec, resp = do(t, h, http.MethodPost, "/api/v1/prompts",
		map[string]string{"title": "Summary", "prompt": "Summarise"}, auth.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created library.Prompt
	require.NoError(t, json.Unmarshal(resp.Data, &created))

	rec, resp = do(t, h, http.MethodGet, "/api/v1/prompts", nil, auth.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []library.Prompt
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)

	path := "/api/v1/prompts/" + strconv.FormatInt(created.ID, 10)
	rec, resp = do(t, h, http.MethodPut, path, map[string]string{"title": "Renamed"}, auth.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated library.Prompt
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.Equal(t, "Renamed", updated.Title)

	rec, _ = do(t, h, http.MethodDelete, path, nil, auth.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, resp = do(t, h, http.MethodDelete, path, nil, auth.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Prompt not found", resp.Message)

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/prompts/abc", nil, auth.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPromptsWithoutLibrary(t *testing.T) {
	h := NewRouter(Config{}, Deps{})
	rec, _ := do(t, h, http.MethodGet, "/api/v1/prompts", nil, "x")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestYouTubeSearch(t *testing.T) {
	var got engine.YouTubeSearchInput
	h := NewRouter(Config{}, Deps{
		SearchYouTube: func(_ context.Context, in engine.YouTubeSearchInput) (engine.YouTubeSearchOutput, error) {
			got = in
			if in.Query == "" {
				return engine.YouTubeSearchOutput{}, sources.ErrQueryRequired
			}
			return engine.YouTubeSearchOutput{Query: in.Query, Videos: []engine.YouTubeVideo{{ID: "v1"}}}, nil
		},
	})

	rec, resp := do(t, h, http.MethodGet, "/api/v1/youtube/search?q=golang&maxResults=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, got.MaxResults)
	assert.Equal(t, "all", got.Language)
	var videos []engine.YouTubeVideo
	require.NoError(t, json.Unmarshal(resp.Data, &videos))
	assert.Len(t, videos, 1)

	rec, resp = do(t, h, http.MethodGet, "/api/v1/youtube/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `Query parameter "q" is required`, resp.Message)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/youtube/search?q=x&maxResults=many", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranslation(t *testing.T) {
	h := NewRouter(Config{}, Deps{
		Translate: func(_ context.Context, in engine.TranslateInput) (*engine.TranslateOutput, error) {
			if in.Text == "" {
				return nil, sources.ErrTextRequired
			}
			return &engine.TranslateOutput{TranslatedText: "Hallo", Target: in.Target}, nil
		},
		DetectLanguage: func(context.Context, engine.DetectInput) (*engine.DetectOutput, error) {
			return nil, sources.ErrTranslateKeyMissing
		},
	})

	rec, resp := do(t, h, http.MethodPost, "/api/v1/translation/translate", map[string]string{"text": "Hello", "target": "de"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Translation successful", resp.Message)

	rec, resp = do(t, h, http.MethodPost, "/api/v1/translation/translate", map[string]string{"target": "de"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `Field "text" is required`, resp.Message)

	rec, resp = do(t, h, http.MethodPost, "/api/v1/translation/detect", map[string]string{"text": "Hallo"}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Google Translate API key not configured", resp.Message)
}

func TestRateLimit(t *testing.T) {
	h := NewRouter(Config{RateLimit: 2, RateWindow: time.Minute}, Deps{Converter: &stubConverter{doc: &course.Document{}}})
	for i := 0; i < 2; i++ {
		rec, _ := do(t, h, http.MethodPost, "/api/v1/users/convert", map[string]string{}, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec, resp := do(t, h, http.MethodPost, "/api/v1/users/convert", map[string]string{}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec, _ = do(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "health is outside the limited /api/ prefix")
}

func TestCORS(t *testing.T) {
	h := NewRouter(Config{AllowedOrigins: []string{"https://app.example"}}, Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/convert", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverer(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
