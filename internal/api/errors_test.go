package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, ErrMessageTooLong)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MESSAGE_TOO_LONG", body["code"])
	assert.Equal(t, "Message too long (max 1000 characters)", body["error"])
	assert.NotContains(t, body, "Status")
}

func TestHandleError_WrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.Join(errors.New("context"), ErrTokenExpired))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TOKEN_EXPIRED", body["code"])
}

// Anything that is not an AppError must be masked; its text never reaches
// the client.
func TestHandleError_MasksUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("pq: connection refused at 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
