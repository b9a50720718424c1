package responseformat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type csvPayload struct {
	payload
}

func (p csvPayload) WriteCSV(w io.Writer) error {
	_, err := io.WriteString(w, "name,value\nalpha,1.5\n")
	return err
}

func TestWriteResponseJSONDefault(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	err := NewFormatter().WriteResponse(rec, req, payload{Name: "alpha", Value: 1.5}, map[string]string{"X-Run-ID": "abc"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "abc", rec.Header().Get("X-Run-ID"))

	var got payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, payload{Name: "alpha", Value: 1.5}, got)
}

func TestWriteResponseMsgPack(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x?format=msgpack", nil)

	require.NoError(t, NewFormatter().WriteResponse(rec, req, payload{Name: "beta", Value: 2}, nil))
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "beta", got["name"])
}

func TestWriteResponseCSV(t *testing.T) {
	f := NewFormatter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x?format=csv", nil)
	require.NoError(t, f.WriteResponse(rec, req, csvPayload{}, nil))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "name,value\nalpha,1.5\n", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, f.WriteResponse(rec, req, payload{}, nil))
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrCSVUnsupported.Error())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x?format=csv", nil)

	require.NoError(t, NewFormatter().WriteError(rec, req, http.StatusBadRequest, errors.New("bad input")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bad input"}`, rec.Body.String())
}
