package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the process-wide settings. Values come from an optional
// config.yaml inside the data directory, overridden by environment variables
// (a .env file next to the working directory is honored when present).
type Config struct {
	DataDir        string        `yaml:"data_dir"`
	APIBaseURL     string        `yaml:"api_base_url"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisChannel   string        `yaml:"redis_channel"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	DBPath string `yaml:"-"`
}

func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}

	cfg := Config{
		DataDir:        dataDir,
		APIBaseURL:     "http://localhost:8087",
		RedisChannel:   "focustrack:events",
		ProbeInterval:  15 * time.Second,
		RequestTimeout: 10 * time.Second,
	}

	raw, err := os.ReadFile(filepath.Join(dataDir, "config.yaml"))
	if err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config.yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config.yaml: %w", err)
	}

	_ = godotenv.Load()
	if v := os.Getenv("FOCUSTRACK_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("FOCUSTRACK_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("FOCUSTRACK_REDIS_CHANNEL"); v != "" {
		cfg.RedisChannel = v
	}

	cfg.DataDir = dataDir
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 15 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	cfg.DBPath = filepath.Join(dataDir, ".focustrack", "history.db")
	return cfg, nil
}
