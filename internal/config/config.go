package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration. Values come from the optional
// YAML file first, then environment variables override individual fields.
type Config struct {
	ListenAddr        string   `yaml:"listen_addr"`
	DBPath            string   `yaml:"db_path"`
	Workers           int      `yaml:"workers"`
	JobTimeoutSeconds int      `yaml:"job_timeout_seconds"`
	SyncStopThreshold int      `yaml:"sync_stop_threshold"`
	NominatimBaseURL  string   `yaml:"nominatim_base_url"`
	CORSOrigins       []string `yaml:"cors_origins"`
}

// JobTimeout returns the job execution budget as a duration
func (c Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		ListenAddr:        ":8080",
		DBPath:            "data/estimator.db",
		Workers:           4,
		JobTimeoutSeconds: 60,
		SyncStopThreshold: 6,
		CORSOrigins:       []string{"*"},
	}
}

// Load reads configuration from path (skipped when the file is absent)
// and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			log.Printf("[CONFIG] Loaded configuration from %s", path)
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Workers < 1 {
		return cfg, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.JobTimeoutSeconds < 1 {
		return cfg, fmt.Errorf("job_timeout_seconds must be positive, got %d", cfg.JobTimeoutSeconds)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	} else if v := os.Getenv("PORT"); v != "" {
		c.ListenAddr = ":" + v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv("JOB_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.JobTimeoutSeconds = n
		}
	}
	if v := os.Getenv("SYNC_STOP_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SyncStopThreshold = n
		}
	}
	if v := os.Getenv("NOMINATIM_BASE_URL"); v != "" {
		c.NominatimBaseURL = v
	}
}
