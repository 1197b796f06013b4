package aws

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Controller) {
		a.logger = logger
	}
}

// WithContext sets a custom context used while loading the AWS configuration.
func WithContext(ctx context.Context) Option {
	return func(a *Controller) {
		a.ctx = ctx
	}
}

// WithRegion overrides the region resolved by the default configuration chain.
func WithRegion(region string) Option {
	return func(a *Controller) {
		a.region = region
	}
}

// WithConfig uses cfg instead of loading the default AWS configuration.
func WithConfig(cfg *aws.Config) Option {
	return func(a *Controller) {
		a.config = cfg
	}
}

// WithSecretsManagerClient injects the Secrets Manager client.
func WithSecretsManagerClient(client SecretsManagerAPI) Option {
	return func(a *Controller) {
		a.secretsClient = client
	}
}

// WithSSMClient injects the SSM client.
func WithSSMClient(client SSMAPI) Option {
	return func(a *Controller) {
		a.ssmClient = client
	}
}

// WithS3Client injects the S3 client.
func WithS3Client(client S3API) Option {
	return func(a *Controller) {
		a.s3Client = client
	}
}
