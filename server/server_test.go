package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"musicapp/config"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	app       *App
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DBDriver:          "sqlite",
		DatabaseURL:       filepath.Join(dir, "data", "test.db"),
		JWTSecret:         "test-secret",
		JWTExpiresIn:      time.Hour,
		BcryptCost:        4,
		StorageDriver:     "local",
		UploadDir:         filepath.Join(dir, "uploads"),
		MaxUploadBytes:    16 << 20,
		WebDir:            filepath.Join(dir, "frontend"),
		AdminDir:          filepath.Join(dir, "admin"),
		CORSAllowedOrigin: "*",
	}

	app, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	srv := httptest.NewServer(NewRouter(app, cfg))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, app: app, uploadDir: cfg.UploadDir}
}

type apiResponse struct {
	status int
	body   map[string]interface{}
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) apiResponse {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := apiResponse{status: resp.StatusCode, body: map[string]interface{}{}}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out.body), string(data))
	}
	return out
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, payload interface{}) apiResponse {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return s.do(t, method, path, token, body, "application/json")
}

type filePart struct {
	field, filename, contentType, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	resp := s.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.status, resp.body)
	return resp.body["token"].(string)
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.app.Accounts.CreateAdmin(context.Background(), "Admin User", "admin@example.com", "admin123")
	require.NoError(t, err)
	resp := s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "admin123",
	})
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	return resp.body["token"].(string)
}

func (s *testServer) fetch(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(s.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestAuthGate(t *testing.T) {
	s := newTestServer(t)
	userToken := s.register(t, "Ada", "ada@example.com")
	adminToken := s.adminToken(t)

	tests := []struct {
		name   string
		token  string
		status int
		msg    string
	}{
		{"no token", "", http.StatusUnauthorized, "No token provided. Access denied."},
		{"bad token", "garbage", http.StatusUnauthorized, "Invalid token. Access denied."},
		{"non-admin", userToken, http.StatusForbidden, "Access denied. Admin only."},
		{"admin", adminToken, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.doJSON(t, http.MethodGet, "/api/admin/songs", tt.token, nil)
			assert.Equal(t, tt.status, resp.status)
			if tt.msg != "" {
				assert.Equal(t, false, resp.body["success"])
				assert.Equal(t, tt.msg, resp.body["message"])
			}
		})
	}

	resp := s.doJSON(t, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.doJSON(t, http.MethodGet, "/api/profile", userToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	profile := resp.body["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", profile["email"])
	assert.Equal(t, float64(0), profile["totalFavorites"])
	assert.NotContains(t, profile, "passwordHash")
}

func TestRegisterAndLoginErrors(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Ada", "ada@example.com")

	resp := s.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ADA@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "User already exists with this email", resp.body["message"])

	resp = s.do(t, http.MethodPost, "/api/auth/register", "", bytes.NewReader([]byte("{")), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "Invalid email or password", resp.body["message"])
}

func TestSongLifecycleScenario(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	// Ship the default cover the way a deployment would.
	defaultCover := filepath.Join(s.uploadDir, "images", "default-cover.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(defaultCover), 0755))
	require.NoError(t, os.WriteFile(defaultCover, []byte("default"), 0644))

	body, ct := multipartBody(t, map[string]string{"title": "Test", "artist": "T"},
		filePart{"audio", "test.mp3", "audio/mpeg", "ID3 fake mp3"})
	resp := s.do(t, http.MethodPost, "/api/admin/songs/upload", token, body, ct)
	require.Equal(t, http.StatusCreated, resp.status, resp.body)
	song := resp.body["song"].(map[string]interface{})
	id := song["id"].(string)
	audioURL := song["audioUrl"].(string)
	assert.Equal(t, "/uploads/images/default-cover.jpg", song["coverImage"])

	status, content := s.fetch(t, audioURL)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ID3 fake mp3", content)

	body, ct = multipartBody(t, map[string]string{"genre": "Rock"},
		filePart{"coverImage", "cover.png", "image/png", "png bytes"})
	resp = s.do(t, http.MethodPut, "/api/admin/songs/"+id, token, body, ct)
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	updated := resp.body["song"].(map[string]interface{})
	newCover := updated["coverImage"].(string)
	assert.NotEqual(t, "/uploads/images/default-cover.jpg", newCover)
	assert.Equal(t, "Rock", updated["genre"])
	assert.Equal(t, "Test", updated["title"])
	assert.FileExists(t, defaultCover, "default cover is never deleted")

	status, _ = s.fetch(t, newCover)
	assert.Equal(t, http.StatusOK, status)

	resp = s.doJSON(t, http.MethodDelete, "/api/admin/songs/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	assert.Equal(t, "Song deleted successfully", resp.body["message"])

	resp = s.doJSON(t, http.MethodGet, "/api/songs/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "Song not found", resp.body["message"])

	status, _ = s.fetch(t, audioURL)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.fetch(t, newCover)
	assert.Equal(t, http.StatusNotFound, status)
	assert.FileExists(t, defaultCover)

	resp = s.doJSON(t, http.MethodDelete, "/api/admin/songs/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestUploadRejections(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	tests := []struct {
		name   string
		fields map[string]string
		files  []filePart
		msg    string
	}{
		{"missing artist", map[string]string{"title": "T"}, []filePart{{"audio", "a.mp3", "audio/mpeg", "x"}}, "Title and artist are required"},
		{"missing audio", map[string]string{"title": "T", "artist": "A"}, nil, "Audio file is required"},
		{"wrong audio type", map[string]string{"title": "T", "artist": "A"}, []filePart{{"audio", "a.txt", "text/plain", "x"}}, "Invalid audio file type. Only MP3, WAV, and OGG files are allowed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, tt.files...)
			resp := s.do(t, http.MethodPost, "/api/admin/songs/upload", token, body, ct)
			assert.Equal(t, http.StatusBadRequest, resp.status)
			assert.Equal(t, tt.msg, resp.body["message"])
		})
	}

	entries, _ := os.ReadDir(filepath.Join(s.uploadDir, "audio"))
	assert.Empty(t, entries)

	resp := s.doJSON(t, http.MethodPut, "/api/admin/songs/missing", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status, "a non-multipart update is rejected")
}

func TestPublicQueriesAndFavorites(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.adminToken(t)
	userToken := s.register(t, "Ada", "ada@example.com")

	ids := map[string]string{}
	for _, song := range []struct{ title, artist string }{
		{"Stairway to Heaven", "Led Zeppelin"},
		{"Bohemian Rhapsody", "Queen"},
	} {
		body, ct := multipartBody(t, map[string]string{"title": song.title, "artist": song.artist},
			filePart{"audio", "a.mp3", "audio/mpeg", "x"})
		resp := s.do(t, http.MethodPost, "/api/admin/songs/upload", adminToken, body, ct)
		require.Equal(t, http.StatusCreated, resp.status, resp.body)
		ids[song.title] = resp.body["song"].(map[string]interface{})["id"].(string)
	}

	resp := s.doJSON(t, http.MethodGet, "/api/songs", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(2), resp.body["count"])

	resp = s.doJSON(t, http.MethodGet, "/api/songs/search?query=ZEP", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(1), resp.body["count"])

	resp = s.doJSON(t, http.MethodGet, "/api/songs/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Search query is required", resp.body["message"])

	stairway := ids["Stairway to Heaven"]

	resp = s.doJSON(t, http.MethodPost, "/api/favorites/"+stairway, userToken, nil)
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	assert.Equal(t, []interface{}{stairway}, resp.body["favorites"])

	resp = s.doJSON(t, http.MethodPost, "/api/favorites/"+stairway, userToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Song already in favorites", resp.body["message"])

	resp = s.doJSON(t, http.MethodPost, "/api/favorites/no-such-song", userToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = s.doJSON(t, http.MethodGet, "/api/favorites/check/"+stairway, userToken, nil)
	assert.Equal(t, true, resp.body["isFavorite"])

	resp = s.doJSON(t, http.MethodGet, "/api/favorites", userToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(1), resp.body["count"])

	// Deleting the song retracts it from every user's favorites.
	resp = s.doJSON(t, http.MethodDelete, "/api/admin/songs/"+stairway, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.status)

	resp = s.doJSON(t, http.MethodGet, "/api/favorites/check/"+stairway, userToken, nil)
	assert.Equal(t, false, resp.body["isFavorite"])

	resp = s.doJSON(t, http.MethodDelete, "/api/favorites/"+stairway, userToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Song not in favorites", resp.body["message"])
}

func TestCORSPreflightAndRequestID(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, s.URL+"/api/favorites/abc", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodGet, s.URL+"/api/songs", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}
