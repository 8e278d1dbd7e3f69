package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sachima/sachima/internal/reply"
)

func TestCheckRelative(t *testing.T) {
	for _, p := range []string{"/etc/passwd", `\windows`, "/"} {
		assert.ErrorIs(t, checkRelative(p), reply.ErrIsAbsolute, p)
	}
	for _, p := range []string{"", "a", "a/b", "a/../b", ".hidden"} {
		assert.NoError(t, checkRelative(p), p)
	}
}

func TestCheckContained(t *testing.T) {
	for _, p := range []string{"..", "../x", "a/../../b", `a\..\b`, "a/.."} {
		assert.ErrorIs(t, checkContained(p), reply.ErrOutsideWorkspace, p)
	}
	for _, p := range []string{"", "a", "a/b", "...", "a/..b", "..c/d"} {
		assert.NoError(t, checkContained(p), p)
	}
}

func TestCheckNotRoot(t *testing.T) {
	for _, p := range []string{"", ".", "./", "a/.."} {
		assert.ErrorIs(t, checkNotRoot(p), reply.ErrWorkspaceRoot, p)
	}
	for _, p := range []string{"a", "...", "a/b"} {
		assert.NoError(t, checkNotRoot(p), p)
	}
}

func TestPathGateStopsAtFirstFailure(t *testing.T) {
	called := false
	h := pathGate(reply.WriteError, checkRelative, checkContained, checkNotRoot)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	serve := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/wk/w/mkdir/x", nil)
		req.SetPathValue("path", path)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("/abs/../x")
	assert.JSONEq(t, `{"status":2,"msg":"path is absolute"}`, rec.Body.String())
	assert.False(t, called)

	rec = serve("a/../..")
	assert.JSONEq(t, `{"status":13,"msg":"path escapes the workspace"}`, rec.Body.String())
	assert.False(t, called)

	rec = serve("")
	assert.JSONEq(t, `{"status":1,"msg":"try to operate the workspace root"}`, rec.Body.String())
	assert.False(t, called)

	serve("ok/dir")
	assert.True(t, called)
}

func TestPathGateTransportStatus(t *testing.T) {
	h := pathGate(reply.WriteStatus, checkRelative, checkContained)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/wk/r/file/x", nil)
	req.SetPathValue("path", "/etc/shadow")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
