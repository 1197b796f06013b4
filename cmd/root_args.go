package cmd

import (
	"time"

	"github.com/isometry/smartsheet-webhook-app/internal/config"
	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'lambda' and 'service'",
		Short:       helpers.Ptr("m"),
	},
	&config.AWS.Region: {
		Name:        "aws-region",
		Description: "The AWS region of the secret store and archive bucket",
		Env:         helpers.Ptr("AWS_REGION"),
	},
	&config.AWS.SecretStore: {
		Name:        "secret-store",
		Description: "The secret store backend. Supported values are 'secretsmanager', 'ssm' and 'memory'",
		Short:       helpers.Ptr("s"),
	},
	&config.Smartsheet.AccessTokenSecretName: {
		Name:        "smartsheet-access-token-secret-name",
		Description: "The secret holding the Smartsheet API access token",
		Env:         helpers.Ptr("SECRET_NAME_SMARTSHEET_ACCESS_TOKEN"),
	},
	&config.Smartsheet.SecretPrefix: {
		Name:        "secret-prefix",
		Description: "The prefix of the per-webhook shared secret names",
		Env:         helpers.Ptr("SECRET_PREFIX"),
	},
	&config.Smartsheet.BaseURL: {
		Name:        "smartsheet-base-url",
		Description: "The Smartsheet API base URL",
		Hidden:      true,
	},
	&config.Global.S3.Upload.BucketName: {
		Name:        "callback-s3-upload-bucket",
		Description: "The S3 bucket to use when archiving authorized callbacks",
		Env:         helpers.Ptr("CALLBACK_S3_BUCKET"),
	},
	&config.Lambda.PayloadType: {
		Name:        "lambda-payload-type",
		Description: "The payload type to expect when running in Lambda mode. Supported values are 'api-gateway-v1', 'api-gateway-v2' and 'lambda-url'",
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
	&config.Responses.DetailedStatusCodes: {
		Name:        "detailed-status-codes",
		Description: "Respond 400/401/502 depending on the failure instead of a generic 500",
	},
	&config.Global.S3.Upload.Enabled: {
		Name:        "callback-s3-upload",
		Description: "Enable S3 archiving of authorized callbacks",
		Env:         helpers.Ptr("CALLBACK_S3_UPLOAD"),
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Smartsheet.Timeout: {
		Name:        "smartsheet-timeout",
		Description: "The timeout of a single Smartsheet API request",
	},
}
