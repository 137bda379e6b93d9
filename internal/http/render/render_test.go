package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldError(t *testing.T) {
	rr := httptest.NewRecorder()
	FieldError(rr, "missing required fields", []string{"mobile"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "missing required fields", body.Error)
	assert.Equal(t, []string{"mobile"}, body.Fields)
}

func TestMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	Message(rr, http.StatusOK, "Deleted", "", nil)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"message": "Deleted"}, body)

	rr = httptest.NewRecorder()
	Message(rr, http.StatusCreated, "Created", "item", map[string]string{"id": "1"})
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Created", body["message"])
	assert.Equal(t, map[string]any{"id": "1"}, body["item"])
}
