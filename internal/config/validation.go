package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for problems a build would otherwise hit
// halfway through. All findings are reported together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Converter {
	case ConverterPandoc, ConverterGoldmark:
	default:
		errs = append(errs, fmt.Errorf("converter must be %q or %q, got %q",
			ConverterPandoc, ConverterGoldmark, c.Converter))
	}

	if c.Paths.Output == "" {
		errs = append(errs, errors.New("paths.output cannot be empty"))
	}
	if c.Paths.Posts == "" {
		errs = append(errs, errors.New("paths.posts cannot be empty"))
	}
	if cleaned := strings.TrimSpace(c.Paths.Output); cleaned == "." || cleaned == "/" {
		errs = append(errs, fmt.Errorf("paths.output %q would overwrite the source tree", c.Paths.Output))
	}

	if c.Content.Repository != "" {
		if !strings.Contains(c.Content.Repository, "://") && !strings.Contains(c.Content.Repository, "@") {
			errs = append(errs, fmt.Errorf("content.repository %q is not a URL or SSH remote", c.Content.Repository))
		}
		if c.Content.TokenEnv != "" && strings.ContainsAny(c.Content.TokenEnv, " \t") {
			errs = append(errs, fmt.Errorf("content.token_env %q is not an environment variable name", c.Content.TokenEnv))
		}
	}

	if c.Serve.SyncInterval < 0 {
		errs = append(errs, fmt.Errorf("serve.sync_interval cannot be negative: %s", c.Serve.SyncInterval))
	}
	if c.Serve.SyncInterval > 0 && c.Content.Repository == "" {
		errs = append(errs, errors.New("serve.sync_interval requires content.repository"))
	}

	if c.Notify.URL != "" && c.Notify.Subject == "" {
		errs = append(errs, errors.New("notify.subject cannot be empty when notify.url is set"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}
