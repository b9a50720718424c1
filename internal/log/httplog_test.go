package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core).Sugar()

	tests := []struct {
		name      string
		status    int
		requestID string
		level     zapcore.Level
	}{
		{"ok", http.StatusOK, "run-1", zapcore.InfoLevel},
		{"client error", http.StatusBadRequest, "", zapcore.InfoLevel},
		{"server error", http.StatusInternalServerError, "run-3", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()

			h := HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			req := httptest.NewRequest(http.MethodGet, "/simulate", nil)
			if tt.requestID != "" {
				req.Header.Set(RequestIDHeader, tt.requestID)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)

			fields := entries[0].ContextMap()
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/simulate", fields["path"])
			assert.EqualValues(t, tt.status, fields["status"])
			assert.EqualValues(t, 4, fields["size"])
			if tt.requestID != "" {
				assert.Equal(t, tt.requestID, fields["request_id"])
			} else {
				assert.NotContains(t, fields, "request_id")
			}
		})
	}
}
