package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/platedesk/internal/core"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Backend: BackendConfig{URL: "http://localhost:5000", Timeout: time.Minute},
		Upload:  UploadConfig{MaxFileSize: 1, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Edit:    EditConfig{MissingFields: "blank"},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, BackendLimit: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Set only required env var
	os.Setenv("BACKEND_URL", "http://localhost:5000")
	defer os.Unsetenv("BACKEND_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Backend.UploadPath != "/upload" || cfg.Backend.DownloadPath != "/download" {
		t.Errorf("Backend paths = %q, %q", cfg.Backend.UploadPath, cfg.Backend.DownloadPath)
	}
	if cfg.Backend.Timeout != 60*time.Second {
		t.Errorf("Backend.Timeout = %v, want %v", cfg.Backend.Timeout, 60*time.Second)
	}
	if cfg.Upload.MaxConcurrent != 1 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 1)
	}
	if cfg.Upload.MaxFileSize != 16<<20 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 16<<20)
	}
	if cfg.MissingFieldPolicy() != core.MissingBlank {
		t.Errorf("MissingFieldPolicy = %v, want blank", cfg.MissingFieldPolicy())
	}
	if cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 100)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	os.Setenv("BACKEND_URL", "http://localhost:5000")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("UPLOAD_MAX_CONCURRENT", "2")
	os.Setenv("EDIT_MISSING_FIELDS", "keep")
	os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("BACKEND_URL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("UPLOAD_MAX_CONCURRENT")
		os.Unsetenv("EDIT_MISSING_FIELDS")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 2 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 2)
	}
	if cfg.MissingFieldPolicy() != core.MissingKeep {
		t.Errorf("MissingFieldPolicy = %v, want keep", cfg.MissingFieldPolicy())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	// BACKEND_API_URL works as fallback
	os.Setenv("BACKEND_API_URL", "http://backend:5000")
	defer os.Unsetenv("BACKEND_API_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.URL != "http://backend:5000" {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, "http://backend:5000")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("BACKEND_URL")
	os.Unsetenv("BACKEND_API_URL")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing BACKEND_URL")
	}
}

func TestLoad_Duration(t *testing.T) {
	os.Setenv("BACKEND_URL", "http://localhost:5000")
	os.Setenv("BACKEND_TIMEOUT", "45s")
	os.Setenv("UPLOAD_MAX_WAIT_TIME", "1m30s")
	defer func() {
		os.Unsetenv("BACKEND_URL")
		os.Unsetenv("BACKEND_TIMEOUT")
		os.Unsetenv("UPLOAD_MAX_WAIT_TIME")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.Timeout != 45*time.Second {
		t.Errorf("Backend.Timeout = %v, want %v", cfg.Backend.Timeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	os.Setenv("BACKEND_URL", "http://localhost:5000")
	os.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")
	defer func() {
		os.Unsetenv("BACKEND_URL")
		os.Unsetenv("TRUSTED_PROXIES")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	os.Setenv("BACKEND_URL", "http://localhost:5000")
	os.Setenv("BACKEND_TIMEOUT", "soon")
	defer func() {
		os.Unsetenv("BACKEND_URL")
		os.Unsetenv("BACKEND_TIMEOUT")
	}()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "BACKEND_TIMEOUT") {
		t.Fatalf("Load() error = %v, want mention of BACKEND_TIMEOUT", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"relative backend url", func(c *Config) { c.Backend.URL = "localhost:5000" }, "BACKEND_URL"},
		{"zero backend timeout", func(c *Config) { c.Backend.Timeout = 0 }, "BACKEND_TIMEOUT"},
		{"unknown edit policy", func(c *Config) { c.Edit.MissingFields = "drop" }, "EDIT_MISSING_FIELDS"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"api key required without keys", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"rate limit disabled ignores zero", func(c *Config) { c.Rate = RateLimitConfig{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %s: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_ListsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.APIKey = "s3cret-key"
	cfg.Security.APIKeys = []string{"client-key"}

	str := cfg.String()
	if strings.Contains(str, "s3cret-key") || strings.Contains(str, "client-key") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
	if !strings.Contains(str, "http://localhost:5000") {
		t.Error("String() should show the backend URL")
	}
}
