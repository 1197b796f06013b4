package smartsheet

import (
	"log/slog"
	"net/http"

	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
)

// loggingRoundTripper logs requests and responses at trace level. Headers are never logged.
type loggingRoundTripper struct {
	logger *slog.Logger
	next   http.RoundTripper
}

// RoundTrip logs the request and response.
func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	l.logger.Log(req.Context(), helpers.LevelTrace, "sending request", slog.String("method", req.Method), slog.String("url", req.URL.String()))
	resp, err := l.next.RoundTrip(req)
	if err != nil {
		l.logger.Log(req.Context(), helpers.LevelTrace, "failed to send request", slog.Any("error", err))
		return nil, err
	}
	l.logger.Log(req.Context(), helpers.LevelTrace, "received response", slog.Int("status", resp.StatusCode), slog.String("url", req.URL.String()))
	return resp, nil
}
