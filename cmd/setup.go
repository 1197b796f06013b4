package cmd

import (
	"context"
	"os"

	"github.com/isometry/smartsheet-webhook-app/internal/config"
	awsctl "github.com/isometry/smartsheet-webhook-app/internal/controllers/aws"
	"github.com/isometry/smartsheet-webhook-app/internal/controllers/smartsheet"
	"github.com/isometry/smartsheet-webhook-app/internal/handler"
	"github.com/isometry/smartsheet-webhook-app/internal/runtime"
	"github.com/isometry/smartsheet-webhook-app/internal/secret"
	"github.com/pkg/errors"
)

// setup wires the process-wide controllers into a runtime. It runs once per process; every invocation
// shares the resulting clients.
func setup(ctx context.Context) (*runtime.Runtime, error) {
	logger.Debug("creating AWS controller...")
	aws, err := awsctl.NewController(
		awsctl.WithContext(ctx),
		awsctl.WithRegion(config.AWS.Region),
		awsctl.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS controller")
	}

	backend, err := secretBackend(aws, config.AWS.SecretStore)
	if err != nil {
		return nil, err
	}
	store := secret.NewStore(backend,
		secret.WithLogger(logger.With("component", "secret-store", "backend", config.AWS.SecretStore)))

	logger.Debug("creating Smartsheet controller...")
	ss, err := smartsheet.NewController(
		smartsheet.WithLogger(logger),
		smartsheet.WithBaseURL(config.Smartsheet.BaseURL),
		smartsheet.WithTimeout(config.Smartsheet.Timeout),
		smartsheet.WithRequestsPerMinute(config.Smartsheet.RequestsPerMinute),
		smartsheet.WithCircuitBreaker(config.Smartsheet.CircuitBreaker.MaxFailures, config.Smartsheet.CircuitBreaker.Timeout))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Smartsheet controller")
	}

	opts := []handler.Option{
		handler.WithLogger(logger.With("component", "webhook-handler")),
		handler.WithSecretStore(store),
		handler.WithSmartsheetController(ss),
		handler.WithAccessTokenSecretName(config.Smartsheet.AccessTokenSecretName),
		handler.WithFallbackToken(os.Getenv("SMARTSHEET_ACCESS_TOKEN")),
		handler.WithSecretPrefix(config.Smartsheet.SecretPrefix),
		handler.WithDetailedStatusCodes(config.Responses.DetailedStatusCodes),
	}
	if config.Global.S3.Upload.Enabled {
		if config.Global.S3.Upload.BucketName == "" {
			return nil, errors.New("callback archiving is enabled but no S3 bucket is configured")
		}
		opts = append(opts, handler.WithArchiver(aws, config.Global.S3.Upload.BucketName))
	}

	logger.Debug("creating webhook handler...")
	hdl, err := handler.NewHandler(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create webhook handler")
	}

	logger.Debug("creating runtime...")
	rt, err := runtime.NewRuntime(hdl,
		runtime.WithLogger(logger.With("component", "runtime")),
		runtime.WithPayloadType(config.Lambda.PayloadType))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create runtime")
	}
	return rt, nil
}

func secretBackend(aws *awsctl.Controller, kind string) (secret.Backend, error) {
	switch kind {
	case config.SecretStoreSecretsManager:
		return aws.SecretsManager(), nil
	case config.SecretStoreSSM:
		return aws.SSM(), nil
	case config.SecretStoreMemory:
		logger.Warn("using in-memory secret store: shared secrets are lost on restart")
		return secret.NewMemoryBackend(nil), nil
	default:
		return nil, errors.Errorf("unsupported secret store: %s", kind)
	}
}
