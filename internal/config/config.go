package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the config file looked up in the source root when no
// --config flag is given. The file is optional: every field has a default
// matching the conventional site layout, so a bare `sitegen` run works
// without any configuration at all.
const DefaultConfigName = "sitegen.yaml"

// Config represents the application configuration.
type Config struct {
	Site      SiteConfig    `yaml:"site"`
	Paths     PathsConfig   `yaml:"paths"`
	Converter string        `yaml:"converter,omitempty"` // "pandoc" (default) or "goldmark"
	Pandoc    PandocConfig  `yaml:"pandoc"`
	Content   ContentConfig `yaml:"content"`
	Serve     ServeConfig   `yaml:"serve"`
	Links     LinksConfig   `yaml:"links"`
	Metrics   MetricsConfig `yaml:"metrics"`
	Notify    NotifyConfig  `yaml:"notify"`
}

// SiteConfig carries site-wide presentation values.
type SiteConfig struct {
	Title   string `yaml:"title"`
	Author  string `yaml:"author,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// PathsConfig names every directory the generator touches. All entries except
// Source are relative to Source.
type PathsConfig struct {
	Source    string `yaml:"source"`
	Posts     string `yaml:"posts"`
	Projects  string `yaml:"projects"`
	Pages     string `yaml:"pages"`
	Static    string `yaml:"static"`
	Output    string `yaml:"output"`
	State     string `yaml:"state"`
	Templates string `yaml:"templates"`
}

// PandocConfig controls the external converter invocation.
type PandocConfig struct {
	Binary string   `yaml:"binary,omitempty"` // overrides $PANDOC_BINARY and the PATH lookup
	Args   []string `yaml:"args,omitempty"`   // extra args appended to every invocation
}

// ContentConfig points at a separate content repository. When Repository is
// set, posts and projects are read from a managed checkout instead of the
// source tree. Transient sync failures are retried with backoff; MaxRetries
// counts retries after the first attempt.
type ContentConfig struct {
	Repository        string           `yaml:"repository,omitempty"`
	Branch            string           `yaml:"branch,omitempty"`
	TokenEnv          string           `yaml:"token_env,omitempty"` // name of an env var holding an access token
	MaxRetries        int              `yaml:"max_retries,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay time.Duration    `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     time.Duration    `yaml:"retry_max_delay,omitempty"`
}

// ServeConfig configures the local preview server.
type ServeConfig struct {
	Addr         string        `yaml:"addr"`
	LiveReload   *bool         `yaml:"live_reload,omitempty"`
	SyncInterval time.Duration `yaml:"sync_interval,omitempty"` // 0 disables periodic content sync
}

// LiveReloadEnabled reports whether the preview server should inject and
// serve the livereload endpoint. Defaults to true when unset.
func (s ServeConfig) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// LinksConfig controls internal link verification of the generated site.
type LinksConfig struct {
	Check  bool     `yaml:"check"`
	Strict bool     `yaml:"strict,omitempty"` // broken links fail the build instead of warning
	Ignore []string `yaml:"ignore,omitempty"` // link glob patterns to skip
}

// MetricsConfig controls the Prometheus recorder.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace,omitempty"`
}

// NotifyConfig configures build-completion events. An empty URL disables
// publishing entirely.
type NotifyConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads the configuration file at configPath. An empty configPath means
// "use sitegen.yaml if present, otherwise defaults"; an explicit path that
// does not exist is an error.
func Load(configPath string) (*Config, error) {
	// Pick up a .env next to the invocation before expanding the config.
	// Missing files are fine.
	_ = godotenv.Load()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigName
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		cfg := Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content before decoding.
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if configPath == "" {
		configPath = DefaultConfigName
	}
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.Site = SiteConfig{
		Title:   "My Site",
		Author:  "Your Name",
		BaseURL: "https://example.org",
	}
	example.Content = ContentConfig{
		Repository: "https://git.example.org/you/site-content.git",
		Branch:     "main",
		TokenEnv:   "SITE_CONTENT_TOKEN",
	}
	example.Notify = NotifyConfig{
		URL:     "nats://127.0.0.1:4222",
		Subject: defaultNotifySubject,
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
