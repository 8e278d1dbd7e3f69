package reply

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sachima/sachima/internal/logging"
)

type dataEnvelope struct {
	Status Code `json:"status"`
	Data   any  `json:"data"`
}

type errorEnvelope struct {
	Status Code   `json:"status"`
	Msg    string `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteData renders a successful envelope. A nil data is rendered as null.
func WriteData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dataEnvelope{Status: CodeOK, Data: data})
}

// WriteError renders err. Business errors become an envelope with their code
// under HTTP 200; anything else is logged and answered with a bare 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if be, ok := AsBusiness(err); ok {
		writeJSON(w, http.StatusOK, errorEnvelope{Status: be.Code, Msg: be.Msg})
		return
	}
	logging.WithContext(r.Context()).Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// HTTPStatus maps err to a transport status for routes that do not use the
// envelope on failure.
func HTTPStatus(err error) int {
	be, ok := AsBusiness(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch be.Code {
	case CodeWorkspaceRoot, CodeIsAbsolute, CodeOutsideWorkspace:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeIsADirectory, CodeNotRegularFile:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}

// WriteStatus renders err as a bare transport status. Internal causes are
// logged the same way WriteError does.
func WriteStatus(w http.ResponseWriter, r *http.Request, err error) {
	code := HTTPStatus(err)
	if code == http.StatusInternalServerError {
		logging.WithContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	http.Error(w, http.StatusText(code), code)
}
