package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	var polls atomic.Int32

	reply := func(w http.ResponseWriter, status int, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 400, "data": data})
	}
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": map[string]string{"code": "AUTH_005", "message": "Invalid token"}})
			return false
		}
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{
			"token": map[string]any{"accessToken": "access-1", "refreshToken": "refresh-1"},
			"user":  map[string]any{"id": "u1", "email": "admin@example.com", "role": "admin"},
		})
	})
	mux.HandleFunc("GET /auth/user", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			reply(w, http.StatusOK, map[string]any{"id": "u1", "email": "admin@example.com", "role": "admin"})
		}
	})
	mux.HandleFunc("POST /api/certificates/batch", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			reply(w, http.StatusAccepted, map[string]any{"jobId": "job-1", "total": 2})
		}
	})
	mux.HandleFunc("GET /api/certificates/batch/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		status, done := "running", 1
		if polls.Add(1) > 1 {
			status, done = "completed", 2
		}
		reply(w, http.StatusOK, map[string]any{
			"id":       r.PathValue("id"),
			"status":   status,
			"progress": map[string]int{"done": done, "total": 2, "percent": done * 50, "succeeded": done},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).RunContext(context.Background(), append([]string{"lmsctl"}, args...))
	return out.String(), err
}

func TestLoginThenBatchWait(t *testing.T) {
	srv := fakeAPI(t)
	creds := filepath.Join(t.TempDir(), "credentials.json")
	common := []string{"--server", srv.URL, "--credentials", creds, "--retries", "0"}

	out, err := run(t, append(common, "login", "--email", "admin@example.com", "--password", "secret")...)
	require.NoError(t, err)
	assert.Contains(t, out, "admin@example.com")

	out, err = run(t, append(common, "whoami")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"role": "admin"`)

	out, err = run(t, append(common, "batch", "start", "--course", "c1", "--wait", "--interval", "10ms")...)
	require.NoError(t, err)
	assert.Contains(t, out, "job job-1 started with 2 items")
	assert.Contains(t, out, "100% 2/2")
	assert.Contains(t, out, `"status": "completed"`)
}

func TestCommandsRequireSession(t *testing.T) {
	srv := fakeAPI(t)
	common := []string{"--server", srv.URL, "--credentials", filepath.Join(t.TempDir(), "none.json"), "--retries", "0"}

	_, err := run(t, append(common, "batch", "status", "job-1")...)
	assert.Error(t, err)

	_, err = run(t, append(common, "batch", "status")...)
	assert.EqualError(t, err, "missing JOB_ID")
}
