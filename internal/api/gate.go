package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sachima/sachima/internal/reply"
)

// pathCheck validates the {path...} value of a workspace route.
type pathCheck func(rel string) error

func checkRelative(rel string) error {
	if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return reply.ErrIsAbsolute
	}
	return nil
}

// checkContained rejects any ".." segment, even one that would still
// resolve inside the workspace.
func checkContained(rel string) error {
	for _, seg := range strings.FieldsFunc(rel, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return reply.ErrOutsideWorkspace
		}
	}
	return nil
}

func checkNotRoot(rel string) error {
	if filepath.Clean(rel) == "." {
		return reply.ErrWorkspaceRoot
	}
	return nil
}

// pathGate runs checks in order against the request path and renders the
// first failure with render.
func pathGate(render func(http.ResponseWriter, *http.Request, error), checks ...pathCheck) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rel := r.PathValue("path")
			for _, check := range checks {
				if err := check(rel); err != nil {
					render(w, r, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
