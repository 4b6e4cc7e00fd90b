package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/filemill/internal/blobstore"
	"github.com/dmitrijs2005/filemill/internal/dispatch"
	"github.com/dmitrijs2005/filemill/internal/files"
	"github.com/dmitrijs2005/filemill/internal/idgen"
	"github.com/dmitrijs2005/filemill/internal/logging"
	"github.com/dmitrijs2005/filemill/internal/processing"
	"github.com/dmitrijs2005/filemill/internal/queue"
	"github.com/dmitrijs2005/filemill/internal/session"
	"github.com/dmitrijs2005/filemill/internal/tools"
	"github.com/dmitrijs2005/filemill/internal/users"
	"github.com/dmitrijs2005/filemill/internal/worker"
)

const (
	adminEmail   = "admin@example.com"
	adminPass    = "admin-password-1"
	regularEmail = "user@example.com"
	regularPass  = "user-password-1"
)

type restFixture struct {
	ts    *httptest.Server
	users *users.Service
}

// newRestFixture assembles the whole stack on in-memory backends, with
// a live worker and dispatcher, and seeds one admin and one regular
// user.
func newRestFixture(t *testing.T) *restFixture {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	us := users.NewService(users.NewMemoryRepository(), idgen.NewGenerator(idgen.NewMemoryRepository()))
	_, err := us.AddUser(ctx, adminEmail, adminPass, true)
	require.NoError(t, err)
	_, err = us.AddUser(ctx, regularEmail, regularPass, false)
	require.NoError(t, err)

	broker := queue.NewMemoryBroker()
	opts := queue.Options{VisibilityTimeout: time.Second, MaxDeliveries: 5}
	requests := processing.NewProtocol(broker.Queue("requests", opts), broker.Queue("deadletter", opts), 5*time.Millisecond, logger)
	completions := processing.NewProtocol(broker.Queue("completions", opts), nil, 5*time.Millisecond, logger)

	filesStore := blobstore.NewMemoryStore("files")
	outputsStore := blobstore.NewMemoryStore("outputs")

	registry, err := tools.Builtin()
	require.NoError(t, err)

	dispatcher := dispatch.New(requests, completions, 5*time.Second, logger)
	w := worker.New(requests, completions, filesStore, outputsStore, registry, logger)

	runCtx, cancel := context.WithCancel(context.Background())
	go func() { _ = dispatcher.Run(runCtx) }()
	go func() { _ = w.Run(runCtx) }()
	t.Cleanup(cancel)

	fs := files.NewService(filesStore, outputsStore, dispatcher)
	sessions := session.NewManager(us)

	srv := NewServer("127.0.0.1:0", "test-secret", time.Hour, sessions, us, fs, registry, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &restFixture{ts: ts, users: us}
}

func (f *restFixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (f *restFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestLogin(t *testing.T) {
	f := newRestFixture(t)

	t.Run("success", func(t *testing.T) {
		f.login(t, adminEmail, adminPass)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": adminEmail, "password": "wrong-password",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed email", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "not-an-email", "password": "whatever1",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthRequired(t *testing.T) {
	f := newRestFixture(t)

	resp := f.do(t, http.MethodGet, "/api/files", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/files", "garbage-token", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	f := newRestFixture(t)
	token := f.login(t, adminEmail, adminPass)

	resp := f.do(t, http.MethodPost, "/api/logout", token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/files", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUserManagement(t *testing.T) {
	f := newRestFixture(t)
	adminToken := f.login(t, adminEmail, adminPass)
	userToken := f.login(t, regularEmail, regularPass)

	t.Run("admin creates user", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/users", adminToken, map[string]any{
			"email": "new@example.com", "password": "new-password-1", "isAdmin": false,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decodeBody[userResponse](t, resp)
		assert.Equal(t, "new@example.com", created.Email)
		assert.NotEmpty(t, created.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/users", adminToken, map[string]any{
			"email": regularEmail, "password": "whatever-123", "isAdmin": false,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/users", userToken, map[string]any{
			"email": "x@example.com", "password": "whatever-123",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("directory listing", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/users/admins", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		admins := decodeBody[[]string](t, resp)
		assert.Contains(t, admins, adminEmail)

		resp = f.do(t, http.MethodGet, "/api/users/common", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		common := decodeBody[[]string](t, resp)
		assert.Contains(t, common, regularEmail)
	})

	t.Run("cannot delete last admin", func(t *testing.T) {
		resp := f.do(t, http.MethodDelete, "/api/users/"+adminEmail, adminToken, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("delete user", func(t *testing.T) {
		resp := f.do(t, http.MethodDelete, "/api/users/new@example.com", adminToken, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = f.do(t, http.MethodDelete, "/api/users/new@example.com", adminToken, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestFileLifecycle(t *testing.T) {
	f := newRestFixture(t)
	token := f.login(t, regularEmail, regularPass)

	content := []byte("file body")

	resp := f.do(t, http.MethodPost, "/api/files", token, map[string]any{
		"name": "a.txt", "contentType": "text/plain", "content": content,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	added := decodeBody[addFileResponse](t, resp)
	assert.NotEmpty(t, added.URI)

	resp = f.do(t, http.MethodPost, "/api/files", token, map[string]any{
		"name": "a.txt", "contentType": "text/plain", "content": content,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/files", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	infos := decodeBody[[]files.FileInfo](t, resp)
	require.Len(t, infos, 1)
	assert.Equal(t, "a.txt", infos[0].Name)

	resp = f.do(t, http.MethodGet, "/api/files/content?name=a.txt", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	got, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, content, got)

	resp = f.do(t, http.MethodDelete, "/api/files?name=a.txt", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/files/content?name=a.txt", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListTools(t *testing.T) {
	f := newRestFixture(t)
	token := f.login(t, regularEmail, regularPass)

	resp := f.do(t, http.MethodGet, "/api/tools?contentType=text/plain", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[[]toolResponse](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, "hash", listed[0].Name)

	resp = f.do(t, http.MethodGet, "/api/tools?contentType=image/png", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed = decodeBody[[]toolResponse](t, resp)
	assert.Len(t, listed, 2)
}

func TestProcessEndToEnd(t *testing.T) {
	f := newRestFixture(t)
	token := f.login(t, regularEmail, regularPass)
	adminToken := f.login(t, adminEmail, adminPass)

	resp := f.do(t, http.MethodPost, "/api/files", token, map[string]any{
		"name": "data.txt", "contentType": "text/plain", "content": []byte("payload"),
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/process", token, map[string]string{
		"name": "data.txt", "tool": "hash",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[processResponse](t, resp)
	assert.NotEmpty(t, result.RequestID)
	assert.NotEmpty(t, result.OutputURI)
	assert.Equal(t, "hash", result.Tool)

	// the output repository is admin territory
	resp = f.do(t, http.MethodGet, "/api/outputs", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/outputs", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outputs := decodeBody[[]files.FileInfo](t, resp)
	require.Len(t, outputs, 1)
	assert.Contains(t, outputs[0].Name, result.RequestID)

	resp = f.do(t, http.MethodGet, "/api/outputs/content?name="+outputs[0].Name, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	digest, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Len(t, digest, 64)

	resp = f.do(t, http.MethodDelete, "/api/outputs?name="+outputs[0].Name, adminToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestProcessUnknownTool(t *testing.T) {
	f := newRestFixture(t)
	token := f.login(t, regularEmail, regularPass)

	resp := f.do(t, http.MethodPost, "/api/files", token, map[string]any{
		"name": "x.txt", "contentType": "text/plain", "content": []byte("x"),
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/process", token, map[string]string{
		"name": "x.txt", "tool": "no-such-tool",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
