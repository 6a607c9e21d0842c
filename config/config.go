package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	MySQL       MySQLConfig       `yaml:"mysql"`
	Redis       RedisConfig       `yaml:"redis"`
	BloomFilter BloomFilterConfig `yaml:"bloom_filter"`
	Snowflake   SnowflakeConfig   `yaml:"snowflake"`
	Auth        AuthConfig        `yaml:"auth"`
	Credits     CreditsConfig     `yaml:"credits"`
	Links       LinksConfig       `yaml:"links"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port    int    `yaml:"port"`
	Mode    string `yaml:"mode"`
	BaseURL string `yaml:"base_url"`
}

// MySQLConfig represents MySQL configuration
type MySQLConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// BloomFilterConfig represents Bloom filter configuration
type BloomFilterConfig struct {
	Capacity          uint    `yaml:"capacity"`
	FalsePositiveRate float64 `yaml:"false_positive_rate"`
}

// SnowflakeConfig represents Snowflake ID generator configuration
type SnowflakeConfig struct {
	DatacenterID int64 `yaml:"datacenter_id"`
	WorkerID     int64 `yaml:"worker_id"`
}

// AuthConfig represents JWT session configuration
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// CreditsConfig represents the credit ledger configuration
type CreditsConfig struct {
	SignupBonus          int64 `yaml:"signup_bonus"`
	LinkCost             int64 `yaml:"link_cost"`
	CaseInsensitiveCodes bool  `yaml:"case_insensitive_codes"`
}

// LinksConfig represents link lifecycle configuration
type LinksConfig struct {
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	Enabled   bool                 `yaml:"enabled"`
	Strategy  string               `yaml:"strategy"`
	Global    RateLimitRule        `yaml:"global"`
	Endpoints []EndpointLimitEntry `yaml:"endpoints"`
}

// RateLimitRule is a limit/window pair (window in seconds)
type RateLimitRule struct {
	Limit  int `yaml:"limit"`
	Window int `yaml:"window"`
}

// EndpointLimitEntry binds a rate limit rule to a route path
type EndpointLimitEntry struct {
	Path   string `yaml:"path"`
	Limit  int    `yaml:"limit"`
	Window int    `yaml:"window"`
}

// DSN returns MySQL data source name
func (m *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// Addr returns Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

var globalConfig *Config

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	if host := os.Getenv("MYSQL_HOST"); host != "" {
		cfg.MySQL.Host = host
	}
	if pass := os.Getenv("MYSQL_PASSWORD"); pass != "" {
		cfg.MySQL.Password = pass
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Redis.Host = host
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if base := os.Getenv("BASE_URL"); base != "" {
		cfg.Server.BaseURL = base
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}
