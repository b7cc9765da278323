package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every variable Load looks at so tests start clean.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "WHITELIST",
		"TRANSMISSION_HOST", "TRANSMISSION_PORT",
		"TRANSMISSION_USERNAME", "TRANSMISSION_PASSWORD",
		"TRANSMISSION_ENDPOINTS", "TRANSMISSION_ENDPOINTS_FILE",
		"NOTIFICATIONS_ENABLED", "NOTIFICATION_CHECK_INTERVAL_SEC",
		"OPS_LISTEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadSingleEndpointDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("WHITELIST", "42, 43")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(cfg.Endpoints))
	}
	ep := cfg.Endpoints[0]
	if ep.Name != DefaultEndpointName || ep.Host != "127.0.0.1" || ep.Port != 9091 {
		t.Errorf("unexpected default endpoint: %+v", ep)
	}
	if len(cfg.Whitelist) != 2 || cfg.Whitelist[0] != 42 || cfg.Whitelist[1] != 43 {
		t.Errorf("unexpected whitelist: %v", cfg.Whitelist)
	}
	if !cfg.NotificationsEnabled {
		t.Error("notifications should default to enabled")
	}
	if cfg.CheckInterval != 10*time.Second {
		t.Errorf("expected default interval 10s, got %v", cfg.CheckInterval)
	}
}

func TestLoadRequiredVars(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{"WHITELIST": "1"}},
		{"missing whitelist", map[string]string{"TELEGRAM_TOKEN": "123:abc"}},
		{"malformed whitelist", map[string]string{"TELEGRAM_TOKEN": "123:abc", "WHITELIST": "1,bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadMultiEndpointJSON(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("WHITELIST", "42")
	t.Setenv("TRANSMISSION_ENDPOINTS",
		`[{"name":"default","host":"nas.local","port":9091},{"name":"seedbox","host":"sb.example.com","port":443,"https":true}]`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(cfg.Endpoints))
	}
	if cfg.Endpoints[1].Name != "seedbox" || !cfg.Endpoints[1].HTTPS {
		t.Errorf("unexpected second endpoint: %+v", cfg.Endpoints[1])
	}
}

func TestLoadMultiEndpointYAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "endpoints.yml")
	data := "- name: default\n  host: nas.local\n  port: 9091\n- name: remote\n  host: remote.example.com\n  port: 9092\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("WHITELIST", "42")
	t.Setenv("TRANSMISSION_ENDPOINTS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Endpoints) != 2 || cfg.Endpoints[1].Name != "remote" {
		t.Errorf("unexpected endpoints: %+v", cfg.Endpoints)
	}
}

func TestLoadEndpointValidation(t *testing.T) {
	tests := []struct {
		name      string
		endpoints string
	}{
		{"empty list", `[]`},
		{"multi without default", `[{"name":"a","host":"h","port":1},{"name":"b","host":"h","port":2}]`},
		{"duplicate names", `[{"name":"default","host":"h","port":1},{"name":"default","host":"h","port":2}]`},
		{"missing host", `[{"name":"default","port":9091}]`},
		{"bad port", `[{"name":"default","host":"h","port":70000}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TELEGRAM_TOKEN", "123:abc")
			t.Setenv("WHITELIST", "42")
			t.Setenv("TRANSMISSION_ENDPOINTS", tt.endpoints)
			if _, err := Load(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadSingleUnnamedEndpointGetsDefaultName(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("WHITELIST", "42")
	t.Setenv("TRANSMISSION_ENDPOINTS", `[{"host":"nas.local","port":9091}]`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Endpoints[0].Name != DefaultEndpointName {
		t.Errorf("expected name %q, got %q", DefaultEndpointName, cfg.Endpoints[0].Name)
	}
}

func TestLoadMutuallyExclusiveForms(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("WHITELIST", "42")
	t.Setenv("TRANSMISSION_ENDPOINTS", `[{"name":"default","host":"h","port":1}]`)
	t.Setenv("TRANSMISSION_ENDPOINTS_FILE", "/tmp/endpoints.yml")

	if _, err := Load(); err == nil {
		t.Error("expected error when both endpoint forms are set")
	}
}

func TestLoadInvalidInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("WHITELIST", "42")
	t.Setenv("NOTIFICATION_CHECK_INTERVAL_SEC", "-5")

	if _, err := Load(); err == nil {
		t.Error("expected error for non-positive interval")
	}
}

func TestLoadNotificationsDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("WHITELIST", "42")
	t.Setenv("NOTIFICATIONS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.NotificationsEnabled {
		t.Error("expected notifications disabled")
	}
}
