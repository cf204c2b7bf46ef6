package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location, overridable with CONSOLE_CONFIG_PATH.
var ConfigPath = envOr("CONSOLE_CONFIG_PATH", "config.yaml")

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                          string   `yaml:"port"`
	LogLevel                      string   `yaml:"logLevel"`
	LogFormat                     string   `yaml:"logFormat"`
	CatalogURL                    string   `yaml:"catalogURL"`
	AgentURL                      string   `yaml:"agentURL"`
	RedisAddr                     string   `yaml:"redisAddr"`
	RedisPassword                 string   `yaml:"redisPassword"`
	AllowedOrigins                []string `yaml:"allowedOrigins"`
	OrdersPageSize                int      `yaml:"ordersPageSize"`
	ToastCapacity                 int      `yaml:"toastCapacity"`
	SessionCookieName             string   `yaml:"sessionCookieName"`
	SessionCookieSecure           bool     `yaml:"sessionCookieSecure"`
	SessionIdleTTL                string   `yaml:"sessionIdleTTL"`
	ChatRateLimitPerMinute        int      `yaml:"chatRateLimitPerMinute"`
	DescriptionRateLimitPerMinute int      `yaml:"descriptionRateLimitPerMinute"`
	MaxUploadBytes                int64    `yaml:"maxUploadBytes"`
}

// LoadDotEnv reads .env files into the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Load reads config from path (defaults to config.yaml), then applies env overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("CONSOLE_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("CONSOLE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("CONSOLE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.TrimSpace(v)
	}
	if v := os.Getenv("CONSOLE_CATALOG_URL"); v != "" {
		cfg.CatalogURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("CONSOLE_AGENT_URL"); v != "" {
		cfg.AgentURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("CONSOLE_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("CONSOLE_ORDERS_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.OrdersPageSize = n
		}
	}
	if v := os.Getenv("CONSOLE_SESSION_COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.SessionCookieSecure = b
		}
	}
	if v := os.Getenv("CONSOLE_SESSION_IDLE_TTL"); v != "" {
		cfg.SessionIdleTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("CONSOLE_CHAT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.ChatRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("CONSOLE_DESCRIPTION_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.DescriptionRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("CONSOLE_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OrdersPageSize == 0 {
		cfg.OrdersPageSize = 10
	}
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "console_session"
	}
	if cfg.SessionIdleTTL == "" {
		cfg.SessionIdleTTL = "2h"
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or CONSOLE_PORT)")
	}
	if err := validateURL("catalogURL", cfg.CatalogURL); err != nil {
		return err
	}
	if err := validateURL("agentURL", cfg.AgentURL); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required for rate limiting and theme storage")
	}
	if cfg.ChatRateLimitPerMinute < 0 || cfg.DescriptionRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if cfg.OrdersPageSize < 0 {
		return errors.New("config: ordersPageSize must be > 0")
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be > 0")
	}
	if _, err := ParseSessionIdleTTL(cfg.SessionIdleTTL); err != nil {
		return err
	}
	return nil
}

func validateURL(name, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("config: %s is required (set in config.yaml)", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: %s must be an absolute URL, got %q", name, raw)
	}
	return nil
}

// ParseSessionIdleTTL parses the workspace idle timeout.
func ParseSessionIdleTTL(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid sessionIdleTTL duration: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("config: sessionIdleTTL must be > 0")
	}
	return d, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
