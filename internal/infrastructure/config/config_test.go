package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "kanban-test-secret-at-least-32-chars"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/kanban-test.db"
api:
  port: 9090
  cors:
    allowed_origins: ["https://boards.example.com"]
security:
  jwt:
    secret: "`+testSecret+`"
mqtt:
  enabled: true
  broker:
    host: "broker.local"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/kanban-test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/kanban-test.db")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if len(cfg.API.CORS.AllowedOrigins) != 1 || cfg.API.CORS.AllowedOrigins[0] != "https://boards.example.com" {
		t.Errorf("API.CORS.AllowedOrigins = %v", cfg.API.CORS.AllowedOrigins)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT = %+v, want enabled with host broker.local", cfg.MQTT)
	}
	// Defaults survive for keys the file does not set.
	if cfg.Security.JWT.Issuer != "kanban-api" {
		t.Errorf("Security.JWT.Issuer = %q, want %q", cfg.Security.JWT.Issuer, "kanban-api")
	}
	if got := cfg.GetAccessTokenTTL(); got != 2*time.Hour {
		t.Errorf("GetAccessTokenTTL() = %v, want 2h", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv("KANBAN_JWT_SECRET", "")
	path := writeConfig(t, `
database:
  path: "/tmp/kanban-test.db"
`)

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected validation error for missing jwt secret, got nil")
	}
}

func TestLoad_SecretFromEnvironment(t *testing.T) {
	t.Setenv("KANBAN_JWT_SECRET", testSecret)
	path := writeConfig(t, "api:\n  port: 8081\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Security.JWT.Secret != testSecret {
		t.Errorf("Security.JWT.Secret = %q, want env value", cfg.Security.JWT.Secret)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWT.Secret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "missing JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: true},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{name: "missing issuer", mutate: func(c *Config) { c.Security.JWT.Issuer = "" }, wantErr: true},
		{name: "zero token ttl", mutate: func(c *Config) { c.Security.JWT.AccessTokenTTL = 0 }, wantErr: true},
		{name: "rate limit without budget", mutate: func(c *Config) { c.Security.RateLimit.RequestsPerMinute = 0 }, wantErr: true},
		{
			name: "rate limit disabled without budget",
			mutate: func(c *Config) {
				c.Security.RateLimit.Enabled = false
				c.Security.RateLimit.RequestsPerMinute = 0
			},
		},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "influx enabled without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{Read: 30, Write: 45, Idle: 60},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("KANBAN_DATABASE_PATH", "/custom/path.db")
	t.Setenv("KANBAN_API_HOST", "127.0.0.1")
	t.Setenv("KANBAN_API_PORT", "9443")
	t.Setenv("KANBAN_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("KANBAN_MQTT_HOST", "mqtt.example.com")
	t.Setenv("KANBAN_MQTT_USERNAME", "testuser")
	t.Setenv("KANBAN_MQTT_PASSWORD", "testpass")
	t.Setenv("KANBAN_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("KANBAN_LOG_LEVEL", "debug")
	t.Setenv("KANBAN_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 9443 {
		t.Errorf("API.Port = %d, want 9443", cfg.API.Port)
	}
	if len(cfg.API.CORS.AllowedOrigins) != 2 || cfg.API.CORS.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("API.CORS.AllowedOrigins = %v", cfg.API.CORS.AllowedOrigins)
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v", cfg.MQTT.Auth)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("KANBAN_API_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want default 8080", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.Security.JWT.Secret != "" {
		t.Error("defaultConfig must not ship a JWT secret")
	}
	if cfg.Security.JWT.AccessTokenTTL != 120 {
		t.Errorf("defaultConfig AccessTokenTTL = %d, want 120", cfg.Security.JWT.AccessTokenTTL)
	}
	if cfg.MQTT.Enabled {
		t.Error("defaultConfig should leave MQTT disabled")
	}
	if len(cfg.API.CORS.AllowedOrigins) != 1 || cfg.API.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("defaultConfig CORS origins = %v", cfg.API.CORS.AllowedOrigins)
	}
}
