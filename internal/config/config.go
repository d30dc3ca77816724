// Package config loads service settings from an optional yaml file with
// environment-variable overrides. Everything has a working default so
// the binary runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr        = "127.0.0.1:8090"
	defaultDBPath            = "stratapilot-ads.db"
	defaultSchedulerInterval = time.Hour
	defaultStaleness         = 24 * time.Hour
	defaultWindowDays        = 3
)

type fileConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`
	Scheduler  struct {
		Interval   string `yaml:"interval"`
		Staleness  string `yaml:"staleness"`
		WindowDays int    `yaml:"window_days"`
	} `yaml:"scheduler"`
}

// Config holds the resolved runtime settings.
type Config struct {
	ListenAddr        string
	DBPath            string
	SchedulerInterval time.Duration
	Staleness         time.Duration
	WindowDays        int
}

// Load reads the config file at path (missing file is fine), then
// applies STRATAPILOT_* environment overrides, then defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr:        defaultListenAddr,
		DBPath:            defaultDBPath,
		SchedulerInterval: defaultSchedulerInterval,
		Staleness:         defaultStaleness,
		WindowDays:        defaultWindowDays,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			applyFile(cfg, fc)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if d, err := time.ParseDuration(fc.Scheduler.Interval); err == nil && d > 0 {
		cfg.SchedulerInterval = d
	}
	if d, err := time.ParseDuration(fc.Scheduler.Staleness); err == nil && d > 0 {
		cfg.Staleness = d
	}
	if fc.Scheduler.WindowDays > 0 {
		cfg.WindowDays = fc.Scheduler.WindowDays
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STRATAPILOT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("STRATAPILOT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("STRATAPILOT_SCHEDULER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SchedulerInterval = d
		}
	}
	if v := os.Getenv("STRATAPILOT_STALENESS"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Staleness = d
		}
	}
	if v := os.Getenv("STRATAPILOT_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WindowDays = n
		}
	}
}
