package log

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

// HTTPMiddleware logs one structured entry per request once the response
// has been written. Server errors are logged at error level.
func HTTPMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
			fields := []interface{}{
				"method", p.Request.Method,
				"path", p.URL.Path,
				"status", p.StatusCode,
				"size", p.Size,
				"remote_addr", p.Request.RemoteAddr,
				"user_agent", p.Request.UserAgent(),
			}
			if requestID := p.Request.Header.Get(RequestIDHeader); requestID != "" {
				fields = append(fields, "request_id", requestID)
			}

			if p.StatusCode >= http.StatusInternalServerError {
				logger.Errorw("http request", fields...)
				return
			}
			logger.Infow("http request", fields...)
		})
	}
}

// RequestIDHeader carries the identifier assigned to each request.
const RequestIDHeader = "X-Request-ID"
