package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
interval_seconds: 30
pihole:
  aliases: "primary,secondary"
  addresses: "http://10.0.0.2:80,http://10.0.0.3:80"
  passwords: "hunter2"
  num_top_items: 5
  num_top_clients: 5
influxdb:
  url: "http://influxdb:8086"
  token: "test-token"
  org: "home"
  bucket: "pihole"
  create_bucket: true
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IntervalSeconds != 30 {
		t.Errorf("IntervalSeconds = %d, want 30", cfg.IntervalSeconds)
	}
	if cfg.Pihole.Aliases != "primary,secondary" {
		t.Errorf("Pihole.Aliases = %q, want %q", cfg.Pihole.Aliases, "primary,secondary")
	}
	if !cfg.InfluxDB.CreateBucket {
		t.Error("InfluxDB.CreateBucket = false, want true")
	}
	if !cfg.InfluxDB.VerifySSL {
		t.Error("InfluxDB.VerifySSL = false, want true (default)")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	content := `
interval_seconds: 30
influxdb:
  token: "file-token"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("INTERVAL_SECONDS", "120")
	t.Setenv("INFLUXDB_TOKEN", "env-token")
	t.Setenv("INFLUXDB_VERIFY_SSL", "false")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IntervalSeconds != 120 {
		t.Errorf("IntervalSeconds = %d, want 120 (env overrides file)", cfg.IntervalSeconds)
	}
	if cfg.InfluxDB.Token != "env-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "env-token")
	}
	if cfg.InfluxDB.VerifySSL {
		t.Error("InfluxDB.VerifySSL = true, want false (env override)")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.InfluxDB.Token = "test-token"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name:    "zero interval",
			mutate:  func(cfg *Config) { cfg.IntervalSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "negative interval",
			mutate:  func(cfg *Config) { cfg.IntervalSeconds = -5 },
			wantErr: true,
		},
		{
			name:    "no addresses",
			mutate:  func(cfg *Config) { cfg.Pihole.Addresses = "" },
			wantErr: true,
		},
		{
			name:    "zero top items",
			mutate:  func(cfg *Config) { cfg.Pihole.NumTopItems = 0 },
			wantErr: true,
		},
		{
			name:    "zero top clients",
			mutate:  func(cfg *Config) { cfg.Pihole.NumTopClients = 0 },
			wantErr: true,
		},
		{
			name:    "missing influxdb token",
			mutate:  func(cfg *Config) { cfg.InfluxDB.Token = "" },
			wantErr: true,
		},
		{
			name:    "missing influxdb url",
			mutate:  func(cfg *Config) { cfg.InfluxDB.URL = "" },
			wantErr: true,
		},
		{
			name:    "missing influxdb bucket",
			mutate:  func(cfg *Config) { cfg.InfluxDB.Bucket = "" },
			wantErr: true,
		},
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

func TestConfig_RequestTimeout(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		want     time.Duration
	}{
		{name: "short interval", interval: 20, want: 10 * time.Second},
		{name: "default interval", interval: 60, want: 30 * time.Second},
		{name: "long interval capped", interval: 300, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{IntervalSeconds: tt.interval}
			if got := cfg.RequestTimeout(); got != tt.want {
				t.Errorf("RequestTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "yes", "on", " True "}
	for _, v := range truthy {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false, want true", v)
		}
	}
	falsy := []string{"0", "false", "no", "off", "anything-else"}
	for _, v := range falsy {
		if parseBool(v) {
			t.Errorf("parseBool(%q) = true, want false", v)
		}
	}
}
