// Package responseformat encodes HTTP responses as JSON, MessagePack or CSV
// depending on the request's format query parameter.
package responseformat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Supported values of the format query parameter.
const (
	FormatJSON    = "json"
	FormatMsgPack = "msgpack"
	FormatCSV     = "csv"
)

// ErrCSVUnsupported is returned when CSV is requested for a payload that cannot render itself as CSV.
var ErrCSVUnsupported = errors.New("csv output not supported for this resource")

// CSVWriter is implemented by payloads that can render themselves as CSV
type CSVWriter interface {
	WriteCSV(w io.Writer) error
}

// Formatter handles encoding and writing responses
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// RequestedFormat returns the format named by the request, defaulting to JSON
func RequestedFormat(req *http.Request) string {
	switch req.URL.Query().Get("format") {
	case FormatMsgPack:
		return FormatMsgPack
	case FormatCSV:
		return FormatCSV
	default:
		return FormatJSON
	}
}

// WriteResponse writes data with a 200 status in the requested format.
// JSON is the default; format=msgpack selects MessagePack and format=csv
// selects CSV for payloads implementing CSVWriter.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) error {
	return f.WriteStatus(w, req, http.StatusOK, data, headers)
}

// WriteStatus is WriteResponse with an explicit status code
func (f *Formatter) WriteStatus(w http.ResponseWriter, req *http.Request, status int, data any, headers map[string]string) error {
	for k, v := range headers {
		w.Header().Set(k, v)
	}

	switch RequestedFormat(req) {
	case FormatMsgPack:
		return f.writeMsgPack(w, status, data)
	case FormatCSV:
		cw, ok := data.(CSVWriter)
		if !ok {
			return f.writeJSON(w, http.StatusNotAcceptable, ErrorBody{Error: ErrCSVUnsupported.Error()})
		}
		return f.writeCSV(w, status, cw)
	default:
		return f.writeJSON(w, status, data)
	}
}

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteError writes err as {"error": "..."}. CSV requests get JSON errors.
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, err error) error {
	body := ErrorBody{Error: err.Error()}
	if RequestedFormat(req) == FormatMsgPack {
		return f.writeMsgPack(w, status, body)
	}
	return f.writeJSON(w, status, body)
}

func (f *Formatter) writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/x-msgpack")
	w.WriteHeader(status)
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}

func (f *Formatter) writeCSV(w http.ResponseWriter, status int, data CSVWriter) error {
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(status)
	return data.WriteCSV(w)
}
