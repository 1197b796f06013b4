// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"go.yaml.in/yaml/v3"
)

const (
	// ModeLambda runs the authorizer behind the AWS Lambda runtime.
	ModeLambda = "lambda"
	// ModeService runs the authorizer as a standalone HTTP service.
	ModeService = "service"

	// SecretStoreSecretsManager selects AWS Secrets Manager as the secret backend.
	SecretStoreSecretsManager = "secretsmanager"
	// SecretStoreSSM selects AWS SSM Parameter Store as the secret backend.
	SecretStoreSSM = "ssm"
	// SecretStoreMemory keeps secrets in process memory. Intended for local service mode only.
	SecretStoreMemory = "memory"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// AWS is a struct that contains the configuration for AWS clients.
	AWS aws
	// Smartsheet is a struct that contains the configuration for the Smartsheet integration.
	Smartsheet smartsheet
	// Responses is a struct that contains the configuration for response status codes.
	Responses responses
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"lambda"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
	// S3 is a struct that contains the configuration for archiving authorized callbacks.
	S3 struct {
		Upload struct {
			BucketName string `yaml:"bucketName,omitempty"`
			Enabled    bool   `yaml:"enabled,omitempty"`
		} `yaml:"upload,omitempty"`
	} `yaml:"s3,omitempty"`
}

type aws struct {
	// Region overrides the region resolved by the default AWS configuration chain.
	Region string `yaml:"region,omitempty"`
	// SecretStore is the backend holding access tokens and webhook shared secrets.
	SecretStore string `yaml:"secretStore,omitempty" default:"secretsmanager"`
}

type smartsheet struct {
	// AccessTokenSecretName is the secret holding the Smartsheet API access token.
	AccessTokenSecretName string `yaml:"accessTokenSecretName,omitempty"`
	// SecretPrefix namespaces the per-webhook shared secrets: <prefix>/<webhookId>.
	SecretPrefix string `yaml:"secretPrefix,omitempty" default:"smartsheet-webhooks"`
	// BaseURL is the Smartsheet API root.
	BaseURL string `yaml:"baseURL,omitempty" default:"https://api.smartsheet.com/2.0"`
	// Timeout bounds a single Smartsheet API request.
	Timeout time.Duration `yaml:"timeout,omitempty" default:"30s"`
	// RequestsPerMinute caps calls to the Smartsheet API per process.
	RequestsPerMinute int `yaml:"requestsPerMinute,omitempty" default:"300"`
	// CircuitBreaker trips after consecutive Smartsheet API failures.
	CircuitBreaker struct {
		MaxFailures uint32        `yaml:"maxFailures,omitempty" default:"5"`
		Timeout     time.Duration `yaml:"timeout,omitempty" default:"30s"`
	} `yaml:"circuitBreaker,omitempty"`
}

type responses struct {
	// DetailedStatusCodes maps each failure kind to its own status code instead of a generic 500.
	DetailedStatusCodes bool `yaml:"detailedStatusCodes,omitempty"`
}

type service struct {
	Path        string        `yaml:"path,omitempty" default:"/"`
	MetricsPath string        `yaml:"metricsPath,omitempty" default:"/metrics"`
	Addr        string        `yaml:"addr,omitempty"`
	Port        string        `yaml:"port,omitempty" default:"8080"`
	Timeout     time.Duration `yaml:"timeout,omitempty" default:"5s"`
}

type lambda struct {
	PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v2"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&AWS),
		defaults.Set(&Smartsheet),
		defaults.Set(&Responses),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
	)
}

// SecretName returns the secret store key holding the shared secret of webhookID.
func SecretName(prefix, webhookID string) string {
	return fmt.Sprintf("%s/%s", prefix, webhookID)
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global     global     `yaml:"global,omitempty"`
		AWS        aws        `yaml:"aws,omitempty"`
		Smartsheet smartsheet `yaml:"smartsheet,omitempty"`
		Responses  responses  `yaml:"responses,omitempty"`
		Service    service    `yaml:"service,omitempty"`
		Lambda     lambda     `yaml:"lambda,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	AWS = a.AWS
	Smartsheet = a.Smartsheet
	Responses = a.Responses
	Service = a.Service
	Lambda = a.Lambda

	return nil
}
