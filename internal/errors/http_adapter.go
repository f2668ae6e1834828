package errors

import (
	"context"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter maps classified errors onto HTTP status codes and plaintext bodies.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// StatusFor returns the HTTP status for an error.
func (a *HTTPErrorAdapter) StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch GetCategory(err) {
	case CategoryNotFound, CategoryModuleNotFound:
		return http.StatusNotFound
	case CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Body returns the short plaintext body sent to the client for err.
func (a *HTTPErrorAdapter) Body(path string, err error) string {
	switch a.StatusFor(err) {
	case http.StatusNotFound:
		return path + " not found"
	case http.StatusBadRequest:
		return "bad request: " + err.Error()
	default:
		return "internal server error: " + err.Error()
	}
}

// Log records a request-level error; 404s are logged at debug level.
func (a *HTTPErrorAdapter) Log(ctx context.Context, path string, err error) {
	status := a.StatusFor(err)
	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelDebug
	}
	a.logger.Log(ctx, level, "Request failed",
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()))
}

// WriteErrorResponse writes a plaintext error response for err.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	a.Log(r.Context(), r.URL.Path, err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(a.StatusFor(err))
	_, _ = w.Write([]byte(a.Body(r.URL.Path, err)))
}
