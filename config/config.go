package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

/* Config is loaded from .env (toml) in the working directory.
 * Every key can be overridden by an environment variable of the same name.
 */

type Config struct {
	Port          string `mapstructure:"PORT"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	// Microsoft Entra ID app registration
	TenantID     string `mapstructure:"TENANT_ID"`
	ClientID     string `mapstructure:"CLIENT_ID"`
	ClientSecret string `mapstructure:"CLIENT_SECRET"`
	AuthorityURL string `mapstructure:"AUTHORITY_URL"`
	GraphBaseURL string `mapstructure:"GRAPH_BASE_URL"`

	// Change notifications
	EnableSubscriptions     bool   `mapstructure:"ENABLE_SUBSCRIPTIONS"`
	PublicURL               string `mapstructure:"PUBLIC_URL"`
	ClientState             string `mapstructure:"CLIENT_STATE"`
	VerifyClientState       *bool  `mapstructure:"VERIFY_CLIENT_STATE"`
	TokenRefreshMinutes     int    `mapstructure:"TOKEN_REFRESH_MINUTES"`
	SubscriptionSyncMinutes int    `mapstructure:"SUBSCRIPTION_SYNC_MINUTES"`

	// Consumers
	ConsumersFile     string `mapstructure:"CONSUMERS_FILE"`
	DeliveredTTLHours int    `mapstructure:"DELIVERED_TTL_HOURS"`
	FailedTTLHours    int    `mapstructure:"FAILED_TTL_HOURS"`

	// Tracing
	OTelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelInsecure    bool    `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTelSampleRatio float64 `mapstructure:"OTEL_SAMPLE_RATIO"`
}

const (
	defaultPort              = "8080"
	defaultRedisAddr         = "localhost:6379"
	defaultAuthorityURL      = "https://login.microsoftonline.com"
	defaultGraphBaseURL      = "https://graph.microsoft.com/v1.0"
	defaultClientState       = "teams-inbox"
	defaultConsumersFile     = "consumers.yaml"
	defaultTokenRefresh      = 50
	defaultSubscriptionSync  = 360
	defaultDeliveredTTLHours = 1
	defaultFailedTTLHours    = 24
)

func GetConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	bindEnv(v)
	err := v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	var config Config
	err = v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}

// bindEnv makes AutomaticEnv visible to Unmarshal for keys missing from the file.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"PORT", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "LOG_LEVEL",
		"TENANT_ID", "CLIENT_ID", "CLIENT_SECRET", "AUTHORITY_URL", "GRAPH_BASE_URL",
		"ENABLE_SUBSCRIPTIONS", "PUBLIC_URL", "CLIENT_STATE", "VERIFY_CLIENT_STATE",
		"TOKEN_REFRESH_MINUTES", "SUBSCRIPTION_SYNC_MINUTES",
		"CONSUMERS_FILE", "DELIVERED_TTL_HOURS", "FAILED_TTL_HOURS",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SAMPLE_RATIO",
	} {
		_ = v.BindEnv(key)
	}
}

// ValidateCredentials checks the app registration values needed to talk to Graph
func (c *Config) ValidateCredentials() error {
	if c.TenantID == "" {
		return fmt.Errorf("TENANT_ID is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("CLIENT_SECRET is required")
	}
	if c.EnableSubscriptions && c.PublicURL == "" {
		return fmt.Errorf("PUBLIC_URL is required when ENABLE_SUBSCRIPTIONS is set")
	}
	return nil
}

func (c *Config) GetPort() string {
	if c.Port == "" {
		return defaultPort
	}
	return c.Port
}

func (c *Config) GetRedisAddr() string {
	if c.RedisAddr == "" {
		return defaultRedisAddr
	}
	return c.RedisAddr
}

func (c *Config) GetAuthorityURL() string {
	if c.AuthorityURL == "" {
		return defaultAuthorityURL
	}
	return strings.TrimSuffix(c.AuthorityURL, "/")
}

func (c *Config) GetGraphBaseURL() string {
	if c.GraphBaseURL == "" {
		return defaultGraphBaseURL
	}
	return strings.TrimSuffix(c.GraphBaseURL, "/")
}

func (c *Config) GetClientState() string {
	if c.ClientState == "" {
		return defaultClientState
	}
	return c.ClientState
}

// ShouldVerifyClientState defaults to true when unset
func (c *Config) ShouldVerifyClientState() bool {
	if c.VerifyClientState == nil {
		return true
	}
	return *c.VerifyClientState
}

func (c *Config) GetConsumersFile() string {
	if c.ConsumersFile == "" {
		return defaultConsumersFile
	}
	return c.ConsumersFile
}

// NotificationURL is where Graph posts data notifications
func (c *Config) NotificationURL() string {
	return strings.TrimSuffix(c.PublicURL, "/") + "/webhook"
}

// LifecycleURL is where Graph posts lifecycle notifications
func (c *Config) LifecycleURL() string {
	return strings.TrimSuffix(c.PublicURL, "/") + "/lifecycle"
}

func (c *Config) GetTokenRefreshInterval() time.Duration {
	minutes := defaultTokenRefresh
	if c.TokenRefreshMinutes > 0 {
		minutes = c.TokenRefreshMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (c *Config) GetSubscriptionSyncInterval() time.Duration {
	minutes := defaultSubscriptionSync
	if c.SubscriptionSyncMinutes > 0 {
		minutes = c.SubscriptionSyncMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (c *Config) GetDeliveredTTL() time.Duration {
	hours := defaultDeliveredTTLHours
	if c.DeliveredTTLHours > 0 {
		hours = c.DeliveredTTLHours
	}
	return time.Duration(hours) * time.Hour
}

func (c *Config) GetFailedTTL() time.Duration {
	hours := defaultFailedTTLHours
	if c.FailedTTLHours > 0 {
		hours = c.FailedTTLHours
	}
	return time.Duration(hours) * time.Hour
}
