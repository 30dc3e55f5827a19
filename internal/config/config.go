// Package config loads client settings with the precedence
// environment > YAML file > defaults. A .env file is honored outside of
// production so local development needs no exported variables.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/vinhng/zolaterm/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds everything the client needs to reach the backend.
type Config struct {
	// APIBaseURL is the REST endpoint root, e.g. "https://chat.example.com/api".
	APIBaseURL string `yaml:"api_base_url"`
	// SocketURL is the websocket endpoint, e.g. "wss://chat.example.com/ws".
	SocketURL string `yaml:"socket_url"`
	// MediaUploadURL receives multipart file uploads.
	MediaUploadURL string `yaml:"media_upload_url"`

	// SessionFile is where the logged-in session is persisted.
	SessionFile string `yaml:"session_file"`
	// LogFile receives the log output (the TUI owns stdout).
	LogFile string `yaml:"log_file"`

	MaxUploadSizeMB int    `yaml:"max_upload_size_mb"`
	LogLevel        string `yaml:"log_level"`
}

// MaxUploadSize returns the upload cap in bytes.
func (c *Config) MaxUploadSize() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

// Load reads configuration. Paths tried for the YAML file:
// CONFIG_PATH, then config/zolaterm.yaml.
func Load() *Config {
	if os.Getenv("APP_ENV") != "production" {
		// Missing .env is fine.
		_ = godotenv.Load()
	}

	cfg := &Config{
		APIBaseURL:      "http://localhost:8080/api",
		SocketURL:       "ws://localhost:8080/ws",
		MediaUploadURL:  "http://localhost:8080/upload",
		SessionFile:     defaultSessionFile(),
		LogFile:         "zolaterm.log",
		MaxUploadSizeMB: 20,
		LogLevel:        "info",
	}

	for _, path := range []string{os.Getenv("CONFIG_PATH"), "config/zolaterm.yaml"} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			logger.Errorf("config: parse %s: %v (keeping defaults)", path, err)
		} else {
			logger.Infof("config: loaded %s", path)
		}
		break
	}

	cfg.APIBaseURL = envStr("API_BASE_URL", cfg.APIBaseURL)
	cfg.SocketURL = envStr("SOCKET_URL", cfg.SocketURL)
	cfg.MediaUploadURL = envStr("MEDIA_UPLOAD_URL", cfg.MediaUploadURL)
	cfg.SessionFile = envStr("SESSION_FILE", cfg.SessionFile)
	cfg.LogFile = envStr("ZOLATERM_LOG_FILE", cfg.LogFile)
	cfg.MaxUploadSizeMB = envInt("MAX_UPLOAD_SIZE_MB", cfg.MaxUploadSizeMB)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	if cfg.MaxUploadSizeMB <= 0 {
		cfg.MaxUploadSizeMB = 20
	}

	return cfg
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".zolaterm-session.json"
	}
	return dir + "/zolaterm/session.json"
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
