// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	SecretName string

	Database DatabaseConfig

	// TLS fingerprint used for storefront calls: "chrome" or "go"
	StorefrontFingerprint string

	Secrets Secrets
}

// DatabaseConfig selects the gorm dialector and its connection string.
type DatabaseConfig struct {
	Driver string `json:"driver"` // "postgres" or "sqlite"
	DSN    string `json:"dsn"`
}

// Secrets holds payment and webhook credentials.
// Any of them may be empty at startup; the component that needs a missing
// secret answers with a configuration error instead.
type Secrets struct {
	StripeAPIKey  string `json:"stripe_api_key"`
	ACPSigningKey string `json:"acp_signing_key"`
	AP2PartnerKey string `json:"ap2_partner_key"`
	DatabaseDSN   string `json:"database_dsn,omitempty"` // overrides DATABASE_DSN in production
}

const (
	defaultDriver      = "sqlite"
	defaultSQLiteDSN   = "commerce-unify.db"
	defaultSecretName  = "commerce-unify"
	defaultFingerprint = "chrome"
)

// accessSecret fetches the payload of a Secret Manager version.
// Replaced in tests.
var accessSecret = func(ctx context.Context, name string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("accessing secret %s: %w", name, err)
	}
	return result.Payload.Data, nil
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) then ENV vars / Secret Manager.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		SecretName:  envOrDefault("SECRET_NAME", defaultSecretName),
		Database: DatabaseConfig{
			Driver: envOrDefault("DATABASE_DRIVER", defaultDriver),
			DSN:    os.Getenv("DATABASE_DSN"),
		},
		StorefrontFingerprint: envOrDefault("STOREFRONT_FINGERPRINT", defaultFingerprint),
		Secrets: Secrets{
			StripeAPIKey:  os.Getenv("STRIPE_API_KEY"),
			ACPSigningKey: os.Getenv("ACP_SIGNING_KEY"),
			AP2PartnerKey: os.Getenv("AP2_PARTNER_KEY"),
		},
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading secrets: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string         `json:"port"`
		Environment string         `json:"environment"`
		LogLevel    string         `json:"log_level"`
		Database    DatabaseConfig `json:"database"`
		Fingerprint string         `json:"storefront_fingerprint"`
		Secrets     Secrets        `json:"secrets"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:                  withDefault(fileConfig.Port, "8080"),
		Environment:           withDefault(fileConfig.Environment, "development"),
		LogLevel:              withDefault(fileConfig.LogLevel, "info"),
		Database:              fileConfig.Database,
		StorefrontFingerprint: withDefault(fileConfig.Fingerprint, defaultFingerprint),
		Secrets:               fileConfig.Secrets,
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches secrets from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_name}/versions/latest
// Non-empty values in the secret override those from the environment.
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretName)

	data, err := accessSecret(ctx, secretName)
	if err != nil {
		return err
	}

	var s Secrets
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	c.Secrets.StripeAPIKey = withDefault(s.StripeAPIKey, c.Secrets.StripeAPIKey)
	c.Secrets.ACPSigningKey = withDefault(s.ACPSigningKey, c.Secrets.ACPSigningKey)
	c.Secrets.AP2PartnerKey = withDefault(s.AP2PartnerKey, c.Secrets.AP2PartnerKey)
	c.Database.DSN = withDefault(s.DatabaseDSN, c.Database.DSN)
	return nil
}

func (c *Config) applyDefaults() {
	c.Database.Driver = withDefault(c.Database.Driver, defaultDriver)
	if c.Database.Driver == "sqlite" {
		c.Database.DSN = withDefault(c.Database.DSN, defaultSQLiteDSN)
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for postgres")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.StorefrontFingerprint {
	case "chrome", "go":
	default:
		return fmt.Errorf("unsupported storefront fingerprint: %s", c.StorefrontFingerprint)
	}

	return nil
}

// MissingSecrets lists the secrets that are not configured.
// Logged at startup; the service still starts.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if c.Secrets.StripeAPIKey == "" {
		missing = append(missing, "STRIPE_API_KEY")
	}
	if c.Secrets.ACPSigningKey == "" {
		missing = append(missing, "ACP_SIGNING_KEY")
	}
	if c.Secrets.AP2PartnerKey == "" {
		missing = append(missing, "AP2_PARTNER_KEY")
	}
	return missing
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
