package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("SALESFORCE_USERNAME", "ops@example.com")
	t.Setenv("SALESFORCE_UPLOAD_TIMEOUT_SEC", "30")
	t.Setenv("TEMPLATE_DIR", "custom-templates")

	cfg := Load()

	assert.Equal(t, "ops@example.com", cfg.Salesforce.Username)
	assert.Equal(t, 30, cfg.Salesforce.UploadTimeoutSec)
	assert.Equal(t, "custom-templates", cfg.TemplateDir)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "value")

	assert.Equal(t, "value", getEnv("TEST_ENV_VAR", "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "42")
	assert.Equal(t, 42, getEnvInt("TEST_INT_VAR", 7))

	t.Setenv("TEST_INT_VAR", "invalid")
	assert.Equal(t, 7, getEnvInt("TEST_INT_VAR", 7))

	assert.Equal(t, 7, getEnvInt("NON_EXISTENT_INT", 7))
}
