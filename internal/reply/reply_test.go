package reply

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sachima/sachima/internal/config"
)

func TestCodesAreStable(t *testing.T) {
	cases := map[*Error]Code{
		ErrWorkspaceRoot:     1,
		ErrIsAbsolute:        2,
		ErrAlreadyExists:     3,
		ErrMissingParent:     4,
		ErrNotFound:          5,
		ErrNotADirectory:     6,
		ErrIsADirectory:      7,
		ErrUserNotFound:      8,
		ErrIncorrectPassword: 9,
		ErrFileExpected:      10,
		ErrMissingFileName:   11,
		ErrResourceTooLarge:  12,
		ErrOutsideWorkspace:  13,
		ErrInvalidName:       14,
		ErrNotRegularFile:    15,
	}
	for e, code := range cases {
		assert.Equal(t, code, e.Code, e.Msg)
	}
}

func TestResourceTooLargeMatchesSentinel(t *testing.T) {
	err := ResourceTooLarge(config.ByteSize(512 << 20))
	assert.ErrorIs(t, err, ErrResourceTooLarge)
	assert.Equal(t, "uploaded resource is larger than the upper limit 512M", err.Error())
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestInternal(t *testing.T) {
	assert.NoError(t, Internal(nil))
	assert.Same(t, ErrNotFound, Internal(ErrNotFound))

	cause := errors.New("disk on fire")
	err := Internal(fmt.Errorf("write x: %w", cause))
	assert.ErrorIs(t, err, cause)
	_, ok := AsBusiness(err)
	assert.False(t, ok)
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, map[string]string{"token": "t"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":0,"data":{"token":"t"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteData(rec, nil)
	assert.JSONEq(t, `{"status":0,"data":null}`, rec.Body.String())
}

func TestWriteErrorBusiness(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("ctx: %w", ErrAlreadyExists))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status Code   `json:"status"`
		Msg    string `json:"msg"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeAlreadyExists, body.Status)
	assert.Equal(t, "file has already existed", body.Msg)
}

func TestWriteErrorInternalHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), Internal(errors.New("secret path /etc")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrWorkspaceRoot))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrIsAbsolute))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrOutsideWorkspace))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusUnsupportedMediaType, HTTPStatus(ErrIsADirectory))
	assert.Equal(t, http.StatusUnsupportedMediaType, HTTPStatus(ErrNotRegularFile))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Internal(errors.New("io"))))
}
