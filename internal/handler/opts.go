package handler

import (
	"log/slog"

	"github.com/isometry/smartsheet-webhook-app/internal/controllers/smartsheet"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithSecretStore sets the store holding the access token and the webhook shared secrets.
func WithSecretStore(store SecretStore) Option {
	return func(h *Handler) {
		h.secrets = store
	}
}

// WithWebhookClientFactory sets the factory used to build authenticated Smartsheet clients.
func WithWebhookClientFactory(factory WebhookClientFactory) Option {
	return func(h *Handler) {
		h.clients = factory
	}
}

// WithSmartsheetController builds Smartsheet clients from the shared controller.
func WithSmartsheetController(ctl *smartsheet.Controller) Option {
	return func(h *Handler) {
		h.clients = func(token string) WebhookClient {
			return ctl.Client(token)
		}
	}
}

// WithArchiver enables archiving of authorized callback bodies to bucket.
func WithArchiver(archiver Archiver, bucket string) Option {
	return func(h *Handler) {
		h.archiver = archiver
		h.archiveBucket = bucket
	}
}

// WithAccessTokenSecretName sets the secret name holding the Smartsheet access token.
func WithAccessTokenSecretName(name string) Option {
	return func(h *Handler) {
		h.accessTokenSecretName = name
	}
}

// WithFallbackToken sets the access token used when the access token secret cannot be resolved.
func WithFallbackToken(token string) Option {
	return func(h *Handler) {
		h.fallbackToken = token
	}
}

// WithSecretPrefix sets the namespace of the per-webhook shared secrets.
func WithSecretPrefix(prefix string) Option {
	return func(h *Handler) {
		if prefix != "" {
			h.secretPrefix = prefix
		}
	}
}

// WithDetailedStatusCodes maps each failure kind to its own status code.
func WithDetailedStatusCodes(enabled bool) Option {
	return func(h *Handler) {
		h.detailedStatusCodes = enabled
	}
}
