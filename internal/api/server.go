// Package api exposes the workspace and the user endpoints over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sachima/sachima/internal/auth"
	"github.com/sachima/sachima/internal/config"
	"github.com/sachima/sachima/internal/logging"
	"github.com/sachima/sachima/internal/metrics"
	"github.com/sachima/sachima/internal/reply"
	"github.com/sachima/sachima/internal/workspace"
)

// Server holds the collaborators shared by every request. All of them are
// read-only after construction.
type Server struct {
	ws        *workspace.Workspace
	auth      *auth.Auth
	maxUpload config.ByteSize
}

// NewServer creates a new API server. maxUpload bounds the upload body.
func NewServer(ws *workspace.Workspace, a *auth.Auth, maxUpload config.ByteSize) *Server {
	return &Server{
		ws:        ws,
		auth:      a,
		maxUpload: maxUpload,
	}
}

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	protect := s.auth.Middleware

	mux.HandleFunc("GET /health", s.handleHealth)

	// Reads (no auth). Download failures use transport statuses.
	mux.Handle("GET /wk/r/file/{path...}",
		pathGate(reply.WriteStatus, checkRelative, checkContained)(http.HandlerFunc(s.handleDownload)))
	mux.Handle("GET /wk/r/dir/{path...}",
		pathGate(reply.WriteError, checkRelative, checkContained)(http.HandlerFunc(s.handleList)))

	// Writes
	writeGate := pathGate(reply.WriteError, checkRelative, checkContained, checkNotRoot)
	mux.Handle("POST /wk/w/upload/{path...}", protect(writeGate(http.HandlerFunc(s.handleUpload))))
	mux.Handle("PUT /wk/w/rename/{path...}", protect(writeGate(http.HandlerFunc(s.handleRename))))
	mux.Handle("DELETE /wk/w/remove/{path...}", protect(writeGate(http.HandlerFunc(s.handleRemove))))
	mux.Handle("POST /wk/w/mkdir/{path...}", protect(writeGate(http.HandlerFunc(s.handleMkdir))))

	// Users
	mux.HandleFunc("POST /user/register", s.handleRegister)
	mux.HandleFunc("POST /user/login", s.handleLogin)
	mux.Handle("GET /user/info", protect(http.HandlerFunc(s.handleInfo)))

	return logging.Middleware(metrics.Middleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// recordOp classifies err for the workspace operation counter.
func recordOp(op string, err error) {
	switch _, business := reply.AsBusiness(err); {
	case err == nil:
		metrics.RecordWorkspaceOp(op, "success")
	case business:
		metrics.RecordWorkspaceOp(op, "rejected")
	default:
		metrics.RecordWorkspaceOp(op, "error")
	}
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": message,
		"code":  code,
	})
}

// isTooLarge reports whether err came from a body over the upload limit.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
