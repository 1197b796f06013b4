// Package secret provides the secret store adapter used to resolve access tokens and webhook shared secrets.
//
// The adapter never propagates backend failures: lookups degrade to "absent" and creates degrade to a
// logged no-op.
package secret

import (
	"context"
	"log/slog"

	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
	"github.com/isometry/smartsheet-webhook-app/internal/metrics"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned by a Backend when the named secret does not exist.
	ErrNotFound = errors.New("secret not found")
	// ErrAlreadyExists is returned by a Backend when creating a secret that already exists.
	ErrAlreadyExists = errors.New("secret already exists")
)

// Backend is a remote key-value secret service.
type Backend interface {
	GetSecret(ctx context.Context, name string) (string, error)
	CreateSecret(ctx context.Context, name, value string) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report swallowed backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store is the secret store adapter.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// NewStore wraps backend.
func NewStore(backend Backend, opts ...Option) *Store {
	_inst := &Store{backend: backend, logger: helpers.NewNoopLogger()}
	for _, opt := range opts {
		opt(_inst)
	}
	return _inst
}

// GetSecret returns the value stored under name. Any backend failure, not-found included, is logged and
// reported as absent.
func (s *Store) GetSecret(ctx context.Context, name string) (string, bool) {
	value, err := s.backend.GetSecret(ctx, name)
	if err != nil {
		metrics.SecretStoreFailures.WithLabelValues("get").Inc()
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("secret not found", slog.String("name", name))
		} else {
			s.logger.Error("unexpected error fetching secret", slog.String("name", name), slog.Any("error", err))
		}
		return "", false
	}
	return value, true
}

// CreateSecret stores value under name. Failures are logged and swallowed. A secret that already exists is
// left untouched, so concurrent first writers resolve to whichever create landed first.
func (s *Store) CreateSecret(ctx context.Context, name, value string) {
	err := s.backend.CreateSecret(ctx, name, value)
	switch {
	case err == nil:
		s.logger.Info("created secret", slog.String("name", name))
	case errors.Is(err, ErrAlreadyExists):
		s.logger.Info("secret already exists", slog.String("name", name))
	default:
		metrics.SecretStoreFailures.WithLabelValues("create").Inc()
		s.logger.Error("unexpected error creating secret", slog.String("name", name), slog.Any("error", err))
	}
}
