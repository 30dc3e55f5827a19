package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zolaterm.yaml")
	yaml := "api_base_url: \"http://yaml-host:1/api\"\nlog_level: \"debug\"\nmax_upload_size_mb: 5\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("API_BASE_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("MAX_UPLOAD_SIZE_MB", "")

	cfg := Load()
	if cfg.APIBaseURL != "http://yaml-host:1/api" {
		t.Fatalf("api base url = %q", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want the YAML value", cfg.LogLevel)
	}
	if cfg.MaxUploadSizeMB != 5 || cfg.MaxUploadSize() != 5<<20 {
		t.Fatalf("upload cap = %d MB (%d bytes)", cfg.MaxUploadSizeMB, cfg.MaxUploadSize())
	}
	// Fields the file omits keep their defaults.
	if cfg.SocketURL == "" {
		t.Fatalf("socket url default lost")
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zolaterm.yaml")
	if err := os.WriteFile(path, []byte("log_level: \"info\"\n"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want the env override", cfg.LogLevel)
	}
}
