package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Service struct {
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
	} `yaml:"service"`

	Poll struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"poll"`

	UI struct {
		Color   *bool `yaml:"color"`
		Spinner *bool `yaml:"spinner"`
	} `yaml:"ui"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// LoadConfig reads path, or the first config file found in the default
// locations, then layers .env, environment variables and defaults on top.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"pdfchat.yaml",
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/pdfchat/config.yaml"),
			"/etc/pdfchat/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Service.BaseURL == "" {
		config.Service.BaseURL = "http://127.0.0.1:5000"
	}
	if config.Service.Timeout == 0 {
		config.Service.Timeout = 30 * time.Second
	}
	if config.Service.UserAgent == "" {
		config.Service.UserAgent = "pdfchat/" + Version
	}

	if config.Poll.Interval == 0 {
		config.Poll.Interval = 2 * time.Second
	}

	if config.UI.Color == nil {
		config.UI.Color = boolPtr(true)
	}
	if config.UI.Spinner == nil {
		config.UI.Spinner = boolPtr(true)
	}

	if config.Log.Level == "" {
		config.Log.Level = "warn"
	}
	if config.Log.Format == "" {
		config.Log.Format = "logfmt"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("PDFCHAT_BASE_URL"); baseURL != "" {
		config.Service.BaseURL = baseURL
	}
	if interval := os.Getenv("PDFCHAT_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Poll.Interval = d
		}
	}
	if lvl := os.Getenv("PDFCHAT_LOG_LEVEL"); lvl != "" {
		config.Log.Level = lvl
	}
	// https://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		config.UI.Color = boolPtr(false)
	}
}

func (c *Config) ColorEnabled() bool {
	return c.UI.Color == nil || *c.UI.Color
}

func (c *Config) SpinnerEnabled() bool {
	return c.UI.Spinner == nil || *c.UI.Spinner
}

func boolPtr(b bool) *bool {
	return &b
}
