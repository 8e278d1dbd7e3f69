package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wk/r/dir/{path...}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	h := Middleware(mux)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /wk/r/dir/{path...}", "202"))
	for _, p := range []string{"/wk/r/dir/a", "/wk/r/dir/b/c"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /wk/r/dir/{path...}", "202"))
	assert.Equal(t, 2.0, after-before)
}

func TestRecordWorkspaceOp(t *testing.T) {
	c := workspaceOpsTotal.WithLabelValues("mkdir", "rejected")
	before := testutil.ToFloat64(c)
	RecordWorkspaceOp("mkdir", "rejected")
	assert.Equal(t, 1.0, testutil.ToFloat64(c)-before)
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordAuthAttempt("login", false)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "sachima_auth_attempts_total"))
}
