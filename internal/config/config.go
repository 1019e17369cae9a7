package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the update-client settings shared by the clipfeed binaries.
type Config struct {
	// Sources maps update channel names to "owner/repository" release sources.
	Sources map[string]string `yaml:"sources"`
	// APIBaseURL is the base URL of the release metadata API.
	APIBaseURL string `yaml:"api_base_url"`
	// Timeout is the duration for network operations.
	Timeout time.Duration `yaml:"timeout"`
	// Variant optionally overrides packaging variant detection.
	Variant string `yaml:"variant"`
	// UpdateHint optionally replaces the self-update availability message.
	UpdateHint string `yaml:"update_hint"`
}

const (
	// DefaultConfigFilename is the default filename for update settings.
	DefaultConfigFilename = "clipfeed-settings.yaml"

	// DefaultAPIBaseURL is the release metadata API used when none is configured.
	DefaultAPIBaseURL = "https://api.github.com/repos"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// defaultSources are the built-in release channels.
func defaultSources() map[string]string {
	return map[string]string{
		"stable":  "clipfeed/clipfeed",
		"nightly": "clipfeed/clipfeed-nightly",
	}
}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBadSourceFormat is returned when a channel source is not "owner/repository".
	errBadSourceFormat = errors.New("channel source must be in owner/repository form")
)

// Default returns a configuration populated with the built-in channels and limits.
func Default() *Config {
	return &Config{
		Sources:    defaultSources(),
		APIBaseURL: DefaultAPIBaseURL,
		Timeout:    DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: the updater must work in a bare install,
// so defaults are returned instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling defaults for anything left unset.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultSources()
	}

	for channel, source := range cfg.Sources {
		owner, repo, found := strings.Cut(source, "/")
		if !found || owner == "" || repo == "" {
			return fmt.Errorf("channel %s: %w", channel, errBadSourceFormat)
		}
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}

// Channels returns the configured channel names in sorted order.
func (c *Config) Channels() []string {
	channels := make([]string, 0, len(c.Sources))
	for channel := range c.Sources {
		channels = append(channels, channel)
	}

	sort.Strings(channels)

	return channels
}

// HasChannel reports whether the given name is a configured update channel.
func (c *Config) HasChannel(name string) bool {
	_, ok := c.Sources[name]
	return ok
}
