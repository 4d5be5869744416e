package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for xrelay.
type Config struct {
	General  GeneralConfig  `json:"general" yaml:"general"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Resolver ResolverConfig `json:"resolver" yaml:"resolver"`
	Links    LinksConfig    `json:"links" yaml:"links"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel" yaml:"logLevel"` // debug | info | warn | error
}

// TelegramConfig configures the bot account and the inbound transport.
type TelegramConfig struct {
	Token     string `json:"token" yaml:"token"`
	ParseMode string `json:"parseMode" yaml:"parseMode"`
	Transport string `json:"transport" yaml:"transport"` // "webhook" | "polling"

	Webhook     WebhookConfig `json:"webhook" yaml:"webhook"`
	PollTimeout int           `json:"pollTimeoutSeconds" yaml:"pollTimeoutSeconds"`

	// UploadVideoBytes downloads videos and uploads them inline instead of
	// handing Telegram a reference URL. Needed when the variant URLs exceed
	// Telegram's server-side fetch limits.
	UploadVideoBytes bool `json:"uploadVideoBytes" yaml:"uploadVideoBytes"`

	// ErrorMessageTTLSeconds is how long relay-mode error messages stay in
	// the chat before their scheduled deletion.
	ErrorMessageTTLSeconds int `json:"errorMessageTtlSeconds" yaml:"errorMessageTtlSeconds"`
}

type WebhookConfig struct {
	Addr        string `json:"addr" yaml:"addr"`
	Path        string `json:"path" yaml:"path"`
	SecretToken string `json:"secretToken" yaml:"secretToken"`
}

// ResolverConfig points at the external tweet media resolver service.
type ResolverConfig struct {
	APIBase        string `json:"apiBase" yaml:"apiBase"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// LinksConfig lists the recognized platform and short-link hosts.
type LinksConfig struct {
	Domains    []string `json:"domains" yaml:"domains"`
	ShortHosts []string `json:"shortHosts" yaml:"shortHosts"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.xrelay).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xrelay"
	}
	return filepath.Join(home, ".xrelay")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads a config file (JSON, or YAML for .yaml/.yml paths), expands
// environment variables, applies defaults, and validates.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is
// unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	switch cfg.Telegram.Transport {
	case "webhook", "polling":
		// valid
	default:
		errs = append(errs, "telegram.transport must be one of: webhook, polling")
	}
	if cfg.Telegram.PollTimeout < 1 {
		errs = append(errs, "telegram.pollTimeoutSeconds must be >= 1")
	}
	if cfg.Telegram.ErrorMessageTTLSeconds < 1 {
		errs = append(errs, "telegram.errorMessageTtlSeconds must be >= 1")
	}

	if cfg.Resolver.APIBase == "" {
		errs = append(errs, "resolver.apiBase is required")
	}
	if cfg.Resolver.TimeoutSeconds < 1 {
		errs = append(errs, "resolver.timeoutSeconds must be >= 1")
	}

	if len(cfg.Links.Domains) == 0 {
		errs = append(errs, "links.domains must list at least one platform domain")
	}
	if len(cfg.Links.ShortHosts) == 0 {
		errs = append(errs, "links.shortHosts must list at least one short-link host")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Sanitize returns a copy with secrets redacted, for display.
func Sanitize(cfg *Config) *Config {
	out := *cfg
	if out.Telegram.Token != "" {
		out.Telegram.Token = "***"
	}
	if out.Telegram.Webhook.SecretToken != "" {
		out.Telegram.Webhook.SecretToken = "***"
	}
	return &out
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
