// Package config loads the bot configuration from the environment.
// Both endpoint forms (discrete vars or a structured list) normalize into
// the same []Endpoint so downstream code never checks which mode is active.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultEndpointName is the name assigned to the endpoint in
	// single-daemon mode, and the name multi-daemon mode must designate.
	DefaultEndpointName = "default"

	defaultTransmissionHost = "127.0.0.1"
	defaultTransmissionPort = 9091
	defaultCheckInterval    = 10 * time.Second
)

// Endpoint is one Transmission daemon target. Immutable after load.
type Endpoint struct {
	Name     string `json:"name" yaml:"name"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	HTTPS    bool   `json:"https" yaml:"https"`
}

// Config is the full runtime configuration.
type Config struct {
	Token                string
	Whitelist            []int64
	Endpoints            []Endpoint
	NotificationsEnabled bool
	CheckInterval        time.Duration
	OpsListen            string
}

// Load reads and validates the configuration from the environment.
// Any violation is fatal at startup; nothing here is retried.
func Load() (Config, error) {
	cfg := Config{
		NotificationsEnabled: getEnvBool("NOTIFICATIONS_ENABLED", true),
		OpsListen:            getEnv("OPS_LISTEN", ""),
	}

	cfg.Token = strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN"))
	if cfg.Token == "" {
		return Config{}, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	whitelist, err := parseWhitelist(os.Getenv("WHITELIST"))
	if err != nil {
		return Config{}, err
	}
	cfg.Whitelist = whitelist

	interval := getEnvInt("NOTIFICATION_CHECK_INTERVAL_SEC", int(defaultCheckInterval/time.Second))
	if interval <= 0 {
		return Config{}, fmt.Errorf("NOTIFICATION_CHECK_INTERVAL_SEC must be a positive integer, got %d", interval)
	}
	cfg.CheckInterval = time.Duration(interval) * time.Second

	endpoints, err := loadEndpoints()
	if err != nil {
		return Config{}, err
	}
	cfg.Endpoints = endpoints

	return cfg, nil
}

func parseWhitelist(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("WHITELIST is required (comma-separated Telegram user ids)")
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid WHITELIST entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("WHITELIST is required (comma-separated Telegram user ids)")
	}
	return ids, nil
}

// loadEndpoints normalizes the two configuration forms into one list.
// TRANSMISSION_ENDPOINTS (inline JSON) and TRANSMISSION_ENDPOINTS_FILE
// (YAML file) are mutually exclusive and win over the discrete vars.
func loadEndpoints() ([]Endpoint, error) {
	inline := strings.TrimSpace(os.Getenv("TRANSMISSION_ENDPOINTS"))
	file := strings.TrimSpace(os.Getenv("TRANSMISSION_ENDPOINTS_FILE"))

	if inline != "" && file != "" {
		return nil, fmt.Errorf("TRANSMISSION_ENDPOINTS and TRANSMISSION_ENDPOINTS_FILE are mutually exclusive")
	}

	var endpoints []Endpoint
	switch {
	case inline != "":
		if err := json.Unmarshal([]byte(inline), &endpoints); err != nil {
			return nil, fmt.Errorf("invalid TRANSMISSION_ENDPOINTS: %w", err)
		}
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read TRANSMISSION_ENDPOINTS_FILE: %w", err)
		}
		if err := yaml.Unmarshal(data, &endpoints); err != nil {
			return nil, fmt.Errorf("invalid endpoints file %s: %w", file, err)
		}
	default:
		endpoints = []Endpoint{{
			Name:     DefaultEndpointName,
			Host:     getEnv("TRANSMISSION_HOST", defaultTransmissionHost),
			Port:     getEnvInt("TRANSMISSION_PORT", defaultTransmissionPort),
			Username: os.Getenv("TRANSMISSION_USERNAME"),
			Password: os.Getenv("TRANSMISSION_PASSWORD"),
		}}
	}

	return validateEndpoints(endpoints)
}

func validateEndpoints(endpoints []Endpoint) ([]Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint must be configured")
	}

	if len(endpoints) == 1 && endpoints[0].Name == "" {
		endpoints[0].Name = DefaultEndpointName
	}

	seen := make(map[string]bool, len(endpoints))
	hasDefault := false
	for i := range endpoints {
		ep := &endpoints[i]
		if ep.Name == "" {
			return nil, fmt.Errorf("endpoint %d: name is required", i)
		}
		if seen[ep.Name] {
			return nil, fmt.Errorf("duplicate endpoint name %q", ep.Name)
		}
		seen[ep.Name] = true
		if ep.Name == DefaultEndpointName {
			hasDefault = true
		}
		if ep.Host == "" {
			return nil, fmt.Errorf("endpoint %q: host is required", ep.Name)
		}
		if ep.Port <= 0 || ep.Port > 65535 {
			return nil, fmt.Errorf("endpoint %q: invalid port %d", ep.Name, ep.Port)
		}
	}

	// With a single endpoint its name doesn't matter; with several, one of
	// them must be the designated default.
	if len(endpoints) > 1 && !hasDefault {
		return nil, fmt.Errorf("multi-endpoint configuration requires an endpoint named %q", DefaultEndpointName)
	}

	return endpoints, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
