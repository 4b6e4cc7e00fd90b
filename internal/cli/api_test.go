package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStubServer fakes the server side of the API: it issues a fixed
// token on login and requires it on every other route.
func newStubServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "correct-password" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "user not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "stub-token"})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer stub-token" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "not logged in"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("GET /api/tools", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]ToolInfo{{Name: "hash", BriefDescription: "SHA-256 digest"}})
	}))

	mux.HandleFunc("GET /api/files/content", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "a.txt" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "file not found"})
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("content"))
	}))

	mux.HandleFunc("POST /api/process", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ProcessResult{RequestID: "r1", OutputURI: "mem://outputs/x", Tool: "hash"})
	}))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_LoginAttachesToken(t *testing.T) {
	ts := newStubServer(t)
	c := NewClient(ts.URL)
	ctx := context.Background()

	// before login, authed routes fail
	_, err := c.Tools(ctx, "")
	assert.ErrorContains(t, err, "not logged in")

	require.NoError(t, c.Login(ctx, "a@example.com", "correct-password"))

	tools, err := c.Tools(ctx, "")
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "hash", tools[0].Name)
}

func TestClient_LoginFailureSurfacesServerError(t *testing.T) {
	ts := newStubServer(t)
	c := NewClient(ts.URL)

	err := c.Login(context.Background(), "a@example.com", "wrong")
	assert.ErrorContains(t, err, "user not found")
}

func TestClient_FileContent(t *testing.T) {
	ts := newStubServer(t)
	c := NewClient(ts.URL)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "a@example.com", "correct-password"))

	content, contentType, err := c.FileContent(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))
	assert.Equal(t, "text/plain", contentType)

	_, _, err = c.FileContent(ctx, "missing.txt")
	assert.ErrorContains(t, err, "file not found")
}

func TestClient_Process(t *testing.T) {
	ts := newStubServer(t)
	c := NewClient(ts.URL)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "a@example.com", "correct-password"))

	result, err := c.Process(ctx, "a.txt", "hash")
	require.NoError(t, err)
	assert.Equal(t, "r1", result.RequestID)
	assert.Equal(t, "mem://outputs/x", result.OutputURI)
}
