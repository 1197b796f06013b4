package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/isometry/smartsheet-webhook-app/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	require.NoError(t, config.LoadFromFile(""))
	require.NoError(t, config.SetDefaults())

	assert.Equal(t, config.ModeLambda, config.Global.Mode)
	assert.Equal(t, config.SecretStoreSecretsManager, config.AWS.SecretStore)
	assert.Equal(t, "https://api.smartsheet.com/2.0", config.Smartsheet.BaseURL)
	assert.Equal(t, 300, config.Smartsheet.RequestsPerMinute)
	assert.Equal(t, 30*time.Second, config.Smartsheet.Timeout)
	assert.Equal(t, "api-gateway-v2", config.Lambda.PayloadType)
	assert.False(t, config.Responses.DetailedStatusCodes)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
global:
  mode: service
aws:
  region: eu-west-1
  secretStore: ssm
smartsheet:
  accessTokenSecretName: smartsheet/access-token
  secretPrefix: hooks
responses:
  detailedStatusCodes: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, config.LoadFromFile(path))
	require.NoError(t, config.SetDefaults())

	assert.Equal(t, config.ModeService, config.Global.Mode)
	assert.Equal(t, "eu-west-1", config.AWS.Region)
	assert.Equal(t, config.SecretStoreSSM, config.AWS.SecretStore)
	assert.Equal(t, "smartsheet/access-token", config.Smartsheet.AccessTokenSecretName)
	assert.Equal(t, "hooks", config.Smartsheet.SecretPrefix)
	assert.True(t, config.Responses.DetailedStatusCodes)
	// untouched sections still receive their defaults
	assert.Equal(t, "8080", config.Service.Port)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, config.LoadFromFile(dir), "directories are rejected")

	missing := filepath.Join(dir, "missing.yaml")
	assert.NoError(t, config.LoadFromFile(missing), "missing files are ignored")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("global: ["), 0o600))
	assert.Error(t, config.LoadFromFile(invalid))
}

func TestSecretName(t *testing.T) {
	assert.Equal(t, "prefix/42", config.SecretName("prefix", "42"))
}
