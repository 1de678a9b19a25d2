package config

import (
	"os"
	"strconv"
)

// SalesforceConfig holds the credential set and connection settings for the
// Salesforce org that owns shipment data and stores generated documents.
type SalesforceConfig struct {
	Username         string
	Password         string
	SecurityToken    string
	ConsumerKey      string
	ConsumerSecret   string
	LoginURL         string
	APIVersion       string
	UploadTimeoutSec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	TemplateDir string
	OutputDir   string
	Salesforce  SalesforceConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", ""), // empty binds all interfaces
		Port:        getEnv("PORT", "8080"), // default only for non-sensitive value
		TemplateDir: getEnv("TEMPLATE_DIR", "templates"),
		OutputDir:   getEnv("OUTPUT_DIR", "output"),
		Salesforce: SalesforceConfig{
			Username:         getEnv("SALESFORCE_USERNAME", ""),
			Password:         getEnv("SALESFORCE_PASSWORD", ""),
			SecurityToken:    getEnv("SALESFORCE_SECURITY_TOKEN", ""),
			ConsumerKey:      getEnv("SALESFORCE_CONSUMER_KEY", ""),
			ConsumerSecret:   getEnv("SALESFORCE_CONSUMER_SECRET", ""),
			LoginURL:         getEnv("SALESFORCE_LOGIN_URL", "https://login.salesforce.com"),
			APIVersion:       getEnv("SALESFORCE_API_VERSION", ""),
			UploadTimeoutSec: getEnvInt("SALESFORCE_UPLOAD_TIMEOUT_SEC", 60),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
