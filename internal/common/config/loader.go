// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads ./configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and validates the result for the API server.
func Load() (*Config, error) {
	v, err := readLayered()
	if err != nil {
		return nil, err
	}
	return decode(v, validateConfig)
}

// LoadClient is Load without the server-side requirements; cafectl only
// needs the client section.
func LoadClient() (*Config, error) {
	v, err := readLayered()
	if err != nil {
		return nil, err
	}
	return decode(v, validateClientConfig)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v, validateConfig)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func readLayered() (*viper.Viper, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return v, nil
}

func decode(v *viper.Viper, validate func(*Config) error) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known variables when the YAML left them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Auth.APIToken == "" {
		cfg.Auth.APIToken = os.Getenv("API_TOKEN")
	}
	if cfg.Client.APIToken == "" {
		cfg.Client.APIToken = os.Getenv("API_TOKEN")
	}
	if cfg.CORS.AppURL == "" {
		cfg.CORS.AppURL = os.Getenv("APP_URL")
	}
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if val := os.Getenv("CAFE_API_URL"); val != "" {
		cfg.Client.BaseURL = val
	}
}

// applyDefaults sets default values for optional configuration fields
// DefaultExternalPrefix mounts the token-gated read routes.
const DefaultExternalPrefix = "/external"

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cafe-directory"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Server.QueryTimeout == 0 {
		cfg.Server.QueryTimeout = 10000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Auth.SessionCookie == "" {
		cfg.Auth.SessionCookie = "session_token"
	}
	if cfg.Auth.SessionPrefix == "" {
		cfg.Auth.SessionPrefix = "session:"
	}
	if cfg.Auth.LoginPath == "" {
		cfg.Auth.LoginPath = "/login"
	}
	if cfg.Auth.DashboardPath == "" {
		cfg.Auth.DashboardPath = "/dashboard"
	}
	if cfg.Auth.ExternalPrefix == "" {
		cfg.Auth.ExternalPrefix = DefaultExternalPrefix
	}

	if cfg.CORS.MaxAge == 0 {
		cfg.CORS.MaxAge = 86400
	}

	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://localhost:8080"
	}
	if cfg.Client.ExternalPrefix == "" {
		cfg.Client.ExternalPrefix = cfg.Auth.ExternalPrefix
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 10000
	}
	if cfg.Client.CacheSize == 0 {
		cfg.Client.CacheSize = 64
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	if !strings.HasPrefix(cfg.Auth.ExternalPrefix, "/") {
		return fmt.Errorf("auth.external_prefix must start with /")
	}
	return validateClientConfig(cfg)
}

func validateClientConfig(cfg *Config) error {
	if cfg.Client.CacheSize < 0 {
		return fmt.Errorf("client.cache_size must not be negative")
	}
	if !strings.HasPrefix(cfg.Client.BaseURL, "http://") && !strings.HasPrefix(cfg.Client.BaseURL, "https://") {
		return fmt.Errorf("client.base_url must be an http(s) URL")
	}
	if !strings.HasPrefix(cfg.Client.ExternalPrefix, "/") {
		return fmt.Errorf("client.external_prefix must start with /")
	}
	return nil
}
