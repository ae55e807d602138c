package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the domain deliverability service.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	DNS          DNSConfig          `yaml:"dns"`
	Verification VerificationConfig `yaml:"verification"`
	Warmup       WarmupConfig       `yaml:"warmup"`
	Registrar    RegistrarConfig    `yaml:"registrar"`
	Route53      Route53Config      `yaml:"route53"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection.
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis settings used for distributed locking.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DNSConfig holds DNS prober settings.
type DNSConfig struct {
	// Resolver is an optional "host:port" of the recursive resolver to use.
	// Empty means the system resolver.
	Resolver            string `yaml:"resolver"`
	ProbeTimeoutSeconds int    `yaml:"probe_timeout_seconds"`
	DefaultSelector     string `yaml:"default_selector"`
}

// ProbeTimeout returns the per-probe timeout as a duration.
func (c DNSConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// VerificationConfig holds verification engine settings.
type VerificationConfig struct {
	// MaxAttempts is how many full verification runs a domain may fail
	// before its status becomes "failed". 0 disables the cap.
	MaxAttempts int `yaml:"max_attempts"`
}

// WarmupConfig holds warmup scheduler settings.
type WarmupConfig struct {
	SweepIntervalMinutes int     `yaml:"sweep_interval_minutes"`
	MaxDay               int     `yaml:"max_day"`
	Timezone             string  `yaml:"timezone"`
	BouncePauseThreshold float64 `yaml:"bounce_pause_threshold"`
}

// SweepInterval returns the sweep interval as a duration.
func (c WarmupConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// RegistrarConfig holds registrar gateway API settings.
type RegistrarConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c RegistrarConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Route53Config holds settings for the optional external zone manager.
type Route53Config struct {
	Enabled    bool   `yaml:"enabled"`
	Region     string `yaml:"region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override.
func (c Route53Config) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// Load reads and parses the configuration file. A missing file is not an
// error: defaults plus environment overrides are enough to run.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.DNS.ProbeTimeoutSeconds == 0 {
		cfg.DNS.ProbeTimeoutSeconds = 5
	}
	if cfg.DNS.DefaultSelector == "" {
		cfg.DNS.DefaultSelector = "mail"
	}
	if cfg.Verification.MaxAttempts == 0 {
		cfg.Verification.MaxAttempts = 5
	}
	if cfg.Warmup.SweepIntervalMinutes == 0 {
		cfg.Warmup.SweepIntervalMinutes = 60
	}
	if cfg.Warmup.MaxDay == 0 {
		cfg.Warmup.MaxDay = 30
	}
	if cfg.Warmup.Timezone == "" {
		cfg.Warmup.Timezone = "UTC"
	}
	if cfg.Warmup.BouncePauseThreshold == 0 {
		cfg.Warmup.BouncePauseThreshold = 0.05
	}
	if cfg.Registrar.TimeoutSeconds == 0 {
		cfg.Registrar.TimeoutSeconds = 30
	}
	if cfg.Registrar.Provider == "" {
		cfg.Registrar.Provider = "namepost"
	}
	if cfg.Route53.Region == "" {
		cfg.Route53.Region = "us-west-2"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if apiKey := os.Getenv("REGISTRAR_API_KEY"); apiKey != "" {
		cfg.Registrar.APIKey = apiKey
	}
	if baseURL := os.Getenv("REGISTRAR_BASE_URL"); baseURL != "" {
		cfg.Registrar.BaseURL = baseURL
	}
	if resolver := os.Getenv("DNS_RESOLVER"); resolver != "" {
		cfg.DNS.Resolver = resolver
	}

	return cfg, nil
}
