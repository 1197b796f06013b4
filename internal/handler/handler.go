// Package handler provides the Smartsheet webhook authorizer.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/isometry/smartsheet-webhook-app/internal/config"
	"github.com/isometry/smartsheet-webhook-app/internal/controllers/smartsheet"
	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
	"github.com/isometry/smartsheet-webhook-app/internal/metrics"
	"github.com/isometry/smartsheet-webhook-app/internal/models"
	"github.com/isometry/smartsheet-webhook-app/internal/validation"
	"github.com/pkg/errors"
)

const (
	// ChallengeHeader carries the verification challenge sent when a webhook is enabled.
	ChallengeHeader = "Smartsheet-Hook-Challenge"
	// ChallengeResponseHeader echoes the challenge back to Smartsheet.
	ChallengeResponseHeader = "Smartsheet-Hook-Response"
	// SignatureHeader carries the hex HMAC-SHA256 of the callback body.
	SignatureHeader = "Smartsheet-Hmac-SHA256"
)

// SecretStore resolves and persists secrets. Failures are reported as absent values.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, bool)
	CreateSecret(ctx context.Context, name, value string)
}

// WebhookClient fetches webhooks from the Smartsheet API.
type WebhookClient interface {
	GetWebhook(ctx context.Context, id string) (*smartsheet.Webhook, error)
}

// WebhookClientFactory returns a WebhookClient authenticated with token.
type WebhookClientFactory func(token string) WebhookClient

// Archiver stores authorized callback bodies.
type Archiver interface {
	PutS3Object(ctx context.Context, id string, bucket string, body []byte) error
}

// Option configures a Handler.
type Option func(*Handler)

// Handler authorizes Smartsheet webhook callbacks.
type Handler struct {
	logger        *slog.Logger
	secrets       SecretStore
	clients       WebhookClientFactory
	archiver      Archiver
	archiveBucket string

	accessTokenSecretName string
	fallbackToken         string
	secretPrefix          string
	detailedStatusCodes   bool
}

// NewHandler creates a Handler. A secret store and a webhook client factory are required.
func NewHandler(options ...Option) (*Handler, error) {
	_inst := &Handler{
		logger:       helpers.NewNoopLogger(),
		secretPrefix: "smartsheet-webhooks",
	}
	for _, opt := range options {
		opt(_inst)
	}

	if _inst.secrets == nil {
		return nil, errors.New("missing secret store")
	}
	if _inst.clients == nil {
		return nil, errors.New("missing Smartsheet client factory")
	}
	if _inst.accessTokenSecretName == "" && _inst.fallbackToken == "" {
		return nil, errors.New("missing Smartsheet access token secret name")
	}
	return _inst, nil
}

// Process authorizes a single callback. The returned response is always usable; the error, if any, explains
// a failure response and is never surfaced to the caller unless detailed status codes are enabled.
func (h *Handler) Process(ctx context.Context, request models.Request) (models.Response, error) {
	response := models.Response{StatusCode: http.StatusOK}

	outcome, err := h.process(ctx, request, &response)
	if err != nil {
		kind := KindOf(err)
		h.logger.Error("unexpected failure processing webhook callback",
			slog.String("kind", kind.String()),
			slog.Any("error", err),
			slog.String("trace", fmt.Sprintf("%+v", err)))
		metrics.Callbacks.WithLabelValues(kind.String()).Inc()
		return models.Response{StatusCode: kind.StatusCode(h.detailedStatusCodes)}, err
	}

	metrics.Callbacks.WithLabelValues(outcome).Inc()
	return response, nil
}

// DetailedStatusCodes reports whether failures are mapped to kind-specific status codes.
func (h *Handler) DetailedStatusCodes() bool {
	return h.detailedStatusCodes
}

func (h *Handler) process(ctx context.Context, request models.Request, response *models.Response) (string, error) {
	client := h.clients(h.accessToken(ctx))

	headers := helpers.LowerKeys(request.Headers)

	// Smartsheet sends a challenge when a webhook is enabled and expects it echoed back.
	if challenge, found := headers[strings.ToLower(ChallengeHeader)]; found {
		h.logger.Info("received webhook challenge. sending challenge response...")
		response.Headers = map[string]string{ChallengeResponseHeader: challenge}
		return "challenge", nil
	}

	signature, found := headers[strings.ToLower(SignatureHeader)]
	if !found {
		return "", newError(KindMalformedInput, errors.Errorf("missing %s header", SignatureHeader))
	}

	body := []byte(request.Body)
	callback, err := ParseCallback(body)
	if err != nil {
		return "", newError(KindMalformedInput, err)
	}
	webhookID := callback.WebhookID
	logger := h.logger.With(slog.String("webhookId", webhookID))

	sharedSecret, err := h.SharedSecret(ctx, client, webhookID)
	if err != nil {
		return "", err
	}

	if err = validation.SharedSecret(sharedSecret).ValidateSignature(body, signature); err != nil {
		return "", newError(KindSignatureMismatch, err)
	}
	logger.Debug("callback signature is valid")

	if callback.IsStatusChange() {
		logger.Info("webhook status changed", slog.String("status", callback.NewWebhookStatus))
	} else {
		logger.Info("authorized webhook callback", slog.String("scope", callback.Scope), slog.Int("events", len(callback.Events)))
	}

	h.archive(ctx, logger, webhookID, body)
	return "authorized", nil
}

// SharedSecret resolves the shared secret of webhookID from the secret store, provisioning it from the
// Smartsheet API on a miss.
func (h *Handler) SharedSecret(ctx context.Context, client WebhookClient, webhookID string) (string, error) {
	name := config.SecretName(h.secretPrefix, webhookID)
	if sharedSecret, found := h.secrets.GetSecret(ctx, name); found {
		metrics.SecretResolutions.WithLabelValues("store").Inc()
		return sharedSecret, nil
	}

	h.logger.Debug("shared secret not stored. fetching webhook...", slog.String("webhookId", webhookID))
	webhook, err := client.GetWebhook(ctx, webhookID)
	if err != nil {
		if smartsheet.IsNotFound(err) || errors.Is(err, smartsheet.ErrInvalidWebhookID) {
			return "", newError(KindMalformedInput, errors.Wrapf(err, "unknown webhook %s", webhookID))
		}
		return "", newError(KindUpstreamUnavailable, err)
	}
	if webhook.SharedSecret == "" {
		return "", newError(KindUpstreamUnavailable, errors.Errorf("webhook %s has no shared secret", webhookID))
	}
	metrics.SecretResolutions.WithLabelValues("api").Inc()

	h.secrets.CreateSecret(ctx, name, webhook.SharedSecret)
	return webhook.SharedSecret, nil
}

func (h *Handler) accessToken(ctx context.Context) string {
	if h.accessTokenSecretName != "" {
		if token, found := h.secrets.GetSecret(ctx, h.accessTokenSecretName); found {
			return token
		}
	}
	if h.fallbackToken == "" {
		h.logger.Warn("no Smartsheet access token available")
	}
	return h.fallbackToken
}

func (h *Handler) archive(ctx context.Context, logger *slog.Logger, webhookID string, body []byte) {
	if h.archiver == nil || h.archiveBucket == "" {
		return
	}
	if err := h.archiver.PutS3Object(ctx, webhookID, h.archiveBucket, body); err != nil {
		logger.Warn("failed to archive callback", slog.Any("error", err))
	}
}

// ParseCallback extracts the webhookId of a callback body, which must be a single JSON object. The id may
// be a JSON number or a non-empty string. The remaining fields are only decoded best-effort.
func ParseCallback(body []byte) (*models.Callback, error) {
	var envelope struct {
		WebhookID json.RawMessage `json:"webhookId"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to decode callback body")
	}
	webhookID, err := parseWebhookID(envelope.WebhookID)
	if err != nil {
		return nil, err
	}

	var callback models.Callback
	_ = json.Unmarshal(body, &callback)
	callback.WebhookID = webhookID
	return &callback, nil
}

func parseWebhookID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("callback body has no webhookId")
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", errors.Wrap(err, "invalid webhookId")
		}
		if id == "" {
			return "", errors.New("callback body has an empty webhookId")
		}
		return id, nil
	}
	var id json.Number
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", errors.Wrapf(err, "invalid webhookId %s", helpers.Truncate(string(raw), 64))
	}
	return id.String(), nil
}
