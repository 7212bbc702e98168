package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
)

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// headers are already sent, only log
		Logger.Error().Err(err).Msg("Error encoding JSON response")
	}
}

// RespondError sends a JSON error response and logs the error to the provided logger.
// If logger is nil, it logs through Logger directly.
func RespondError(w http.ResponseWriter, logger *strings.Builder, message string, status int) {
	if logger != nil {
		AddToLogMessage(logger, message)
	} else {
		Logger.Warn().Int("status", status).Msg(message)
	}
	RespondJSON(w, status, map[string]string{"error": message})
}

// Presigner turns a stored object key into a temporary URL
type Presigner interface {
	PresignedURL(ctx context.Context, objectKey string) (string, error)
}

// PresignImageURL returns img unchanged when it is already an http(s) URL or
// cannot be signed; otherwise it returns a presigned URL for the key.
func PresignImageURL(ctx context.Context, p Presigner, img string) string {
	if img == "" || p == nil || strings.HasPrefix(img, "http") {
		return img
	}
	if url, err := p.PresignedURL(ctx, img); err == nil {
		return url
	}
	return img
}

// LatencyMiddleware logs the status and duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		Logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}
