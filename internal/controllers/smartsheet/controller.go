// Package smartsheet provides a Controller for the Smartsheet REST API operations the authorizer depends on.
package smartsheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
	"github.com/isometry/smartsheet-webhook-app/internal/metrics"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production Smartsheet API root.
	DefaultBaseURL = "https://api.smartsheet.com/2.0"
	// DefaultRequestsPerMinute matches the documented per-token Smartsheet rate limit.
	DefaultRequestsPerMinute = 300

	maxErrorBodySize = 64 << 10
)

// ErrInvalidWebhookID is returned for webhook ids that are not Smartsheet integer ids. No request is sent.
var ErrInvalidWebhookID = errors.New("invalid webhook id")

// Webhook is the Smartsheet webhook resource.
type Webhook struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name,omitempty"`
	APIClientID   string   `json:"apiClientId,omitempty"`
	Scope         string   `json:"scope,omitempty"`
	ScopeObjectID int64    `json:"scopeObjectId,omitempty"`
	Events        []string `json:"events,omitempty"`
	CallbackURL   string   `json:"callbackUrl,omitempty"`
	SharedSecret  string   `json:"sharedSecret,omitempty"`
	Enabled       bool     `json:"enabled"`
	Status        string   `json:"status,omitempty"`
	Version       int      `json:"version,omitempty"`
}

// Option is a functional option used to configure a Controller.
type Option func(*Controller)

// Controller holds the process-wide HTTP transport, rate limiter and circuit breaker shared by every Client.
type Controller struct {
	logger            *slog.Logger
	baseURL           *url.URL
	rawBaseURL        string
	timeout           time.Duration
	transport         http.RoundTripper
	requestsPerMinute int
	maxFailures       uint32
	breakerTimeout    time.Duration

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewController initializes a new Controller with the provided options, setting defaults where necessary.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{
		rawBaseURL:        DefaultBaseURL,
		timeout:           30 * time.Second,
		requestsPerMinute: DefaultRequestsPerMinute,
		maxFailures:       5,
		breakerTimeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "smartsheet")

	baseURL, err := url.Parse(strings.TrimSuffix(_inst.rawBaseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid Smartsheet base URL %q", _inst.rawBaseURL)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, errors.Errorf("invalid Smartsheet base URL %q", _inst.rawBaseURL)
	}
	_inst.baseURL = baseURL

	if _inst.transport == nil {
		_inst.transport = http.DefaultTransport
	}
	_inst.transport = &loggingRoundTripper{logger: _inst.logger, next: _inst.transport}

	if _inst.requestsPerMinute > 0 {
		_inst.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(_inst.requestsPerMinute)), 1)
	} else {
		_inst.limiter = rate.NewLimiter(rate.Inf, 0)
	}

	maxFailures := _inst.maxFailures
	logger := _inst.logger
	_inst.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "smartsheet-api",
		Timeout: _inst.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return maxFailures > 0 && counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// client errors say nothing about upstream health
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError && apiErr.StatusCode != http.StatusTooManyRequests)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return _inst, nil
}

// Client is an authenticated view of the Controller. Clients are cheap and may be created per invocation.
type Client struct {
	ctl        *Controller
	httpClient *http.Client
}

// Client returns a Client authenticating with the given access token.
func (c *Controller) Client(token string) *Client {
	return &Client{
		ctl: c,
		httpClient: &http.Client{
			Timeout: c.timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
				Base:   c.transport,
			},
		},
	}
}

// GetWebhook fetches the webhook identified by id, including its shared secret.
// API-level failures are returned as *APIError.
func (cl *Client) GetWebhook(ctx context.Context, id string) (*Webhook, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, errors.WithMessagef(ErrInvalidWebhookID, "%q", id)
	}
	var webhook Webhook
	if err := cl.do(ctx, "get_webhook", http.MethodGet, cl.ctl.baseURL.JoinPath("webhooks", id), &webhook); err != nil {
		return nil, errors.Wrapf(err, "failed to get webhook %s", id)
	}
	return &webhook, nil
}

func (cl *Client) do(ctx context.Context, operation, method string, u *url.URL, out any) error {
	if err := cl.ctl.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}
	_, err := cl.ctl.breaker.Execute(func() (any, error) {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := cl.httpClient.Do(req)
		if err != nil {
			metrics.APIRequestDuration.WithLabelValues(operation, "error").Observe(time.Since(start).Seconds())
			return nil, errors.Wrap(err, "failed to send request")
		}
		defer func() { _ = resp.Body.Close() }()
		metrics.APIRequestDuration.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, newAPIError(resp)
		}
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, errors.Wrap(err, "failed to decode response")
		}
		return nil, nil
	})
	return err
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = helpers.Truncate(strings.TrimSpace(string(body)), 256)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// APIError is a Smartsheet error response.
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  int    `json:"errorCode"`
	Message    string `json:"message"`
	RefID      string `json:"refId"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("smartsheet API error %d (HTTP %d): %s [refId=%s]", e.ErrorCode, e.StatusCode, e.Message, e.RefID)
}

// IsNotFound reports whether err carries a Smartsheet 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
