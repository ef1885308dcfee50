package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/scheduler"
)

type Config struct {
	Scheduler scheduler.Config `yaml:"scheduler"`

	Jobs struct {
		// DeadlineSyncSpec is the cron expression for the timer reconciliation
		// sweep that picks up deadline edits between cache invalidations.
		DeadlineSyncSpec string `yaml:"deadline_sync_spec"`
		// DraftReminderSpec is the cron expression for the daily reminder job.
		DraftReminderSpec string `yaml:"draft_reminder_spec"`
	} `yaml:"jobs"`

	Admin struct {
		Addr string `yaml:"addr"`
	} `yaml:"admin"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Seasons struct {
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"seasons"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Scheduler.Timezone = "America/New_York"
	cfg.Jobs.DeadlineSyncSpec = "@every 1m"
	cfg.Jobs.DraftReminderSpec = "0 9 * * *"
	cfg.Admin.Addr = fmt.Sprintf(":%s", getEnv("PORT", "8080"))
	cfg.NATS.URL = getEnv("NATS_URL", "")
	cfg.NATS.SubjectPrefix = "survivor"
	cfg.Seasons.CacheTTL = 5 * time.Minute
	return cfg
}

// loadConfig reads the YAML config file, falling back to defaults when the
// file does not exist. Settings present in the file override defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
