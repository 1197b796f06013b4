package aws

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
	"github.com/isometry/smartsheet-webhook-app/internal/secret"
	"github.com/pkg/errors"
)

var (
	notFoundCodes = map[string]bool{
		"ResourceNotFoundException": true, // secretsmanager
		"ParameterNotFound":         true, // ssm
	}
	alreadyExistsCodes = map[string]bool{
		"ResourceExistsException": true, // secretsmanager
		"ParameterAlreadyExists":  true, // ssm
	}
)

// classify maps well-known AWS API error codes onto the secret package sentinels.
func classify(err error, name string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.ErrorCode(); {
		case notFoundCodes[code]:
			return errors.WithMessagef(secret.ErrNotFound, "%s: %v", name, err)
		case alreadyExistsCodes[code]:
			return errors.WithMessagef(secret.ErrAlreadyExists, "%s: %v", name, err)
		}
	}
	return err
}

// SecretsManager returns a secret.Backend over AWS Secrets Manager.
func (a *Controller) SecretsManager() secret.Backend {
	return &secretsManagerBackend{client: a.secretsClient, logger: a.logger.With("backend", "secretsmanager")}
}

// SSM returns a secret.Backend over AWS SSM Parameter Store. Values are stored as SecureString parameters.
// Hierarchical names are qualified with a leading slash, so "smartsheet-webhooks/42" is stored as
// "/smartsheet-webhooks/42".
func (a *Controller) SSM() secret.Backend {
	return &ssmBackend{client: a.ssmClient, logger: a.logger.With("backend", "ssm")}
}

type secretsManagerBackend struct {
	client SecretsManagerAPI
	logger *slog.Logger
}

func (b *secretsManagerBackend) GetSecret(ctx context.Context, name string) (string, error) {
	b.logger.Debug("fetching secret...", slog.String("name", name))
	out, err := b.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", errors.Wrapf(classify(err, name), "failed to get secret value %s", name)
	}
	value := helpers.String(out.SecretString)
	if value == "" {
		return "", errors.WithMessagef(secret.ErrNotFound, "%s has no string value", name)
	}
	return value, nil
}

func (b *secretsManagerBackend) CreateSecret(ctx context.Context, name, value string) error {
	b.logger.Debug("creating secret...", slog.String("name", name))
	_, err := b.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		return errors.Wrapf(classify(err, name), "failed to create secret %s", name)
	}
	return nil
}

type ssmBackend struct {
	client SSMAPI
	logger *slog.Logger
}

// ParameterName returns the SSM parameter name for a secret name. SSM rejects hierarchical names without a
// leading slash.
func ParameterName(name string) string {
	if strings.Contains(name, "/") && !strings.HasPrefix(name, "/") {
		return "/" + name
	}
	return name
}

func (b *ssmBackend) GetSecret(ctx context.Context, name string) (string, error) {
	name = ParameterName(name)
	b.logger.Debug("fetching SSM parameter...", slog.String("name", name))
	out, err := b.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", errors.Wrapf(classify(err, name), "failed to load SSM parameter %s", name)
	}
	if out.Parameter == nil || helpers.String(out.Parameter.Value) == "" {
		return "", errors.WithMessagef(secret.ErrNotFound, "%s has no value", name)
	}
	return *out.Parameter.Value, nil
}

func (b *ssmBackend) CreateSecret(ctx context.Context, name, value string) error {
	name = ParameterName(name)
	b.logger.Debug("creating SSM parameter...", slog.String("name", name))
	_, err := b.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      ssmtypes.ParameterTypeSecureString,
		Overwrite: aws.Bool(false),
	})
	if err != nil {
		return errors.Wrapf(classify(err, name), "failed to put SSM parameter %s", name)
	}
	return nil
}
