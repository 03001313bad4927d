package config

import (
	"path/filepath"
	"time"
)

// Directory defaults match the conventional content layout consumed by the
// original site: posts in blog_posts/, projects in projects/, template pages
// and site-wide assets under site_src/, output in site_out/.
const (
	defaultPostsDir      = "blog_posts"
	defaultProjectsDir   = "projects"
	defaultPagesDir      = "site_src"
	defaultStaticDir     = "site_src/static"
	defaultOutputDir     = "site_out"
	defaultStateDir      = ".sitegen"
	defaultTemplatesDir  = "templates"
	defaultServeAddr     = "127.0.0.1:8080"
	defaultBranch        = "main"
	defaultNamespace     = "sitegen"
	defaultNotifySubject = "sitegen.builds"
)

// Content sync retry defaults: 2 retries (3 attempts total), linear backoff.
const (
	defaultSyncRetries      = 2
	defaultRetryInitialWait = time.Second
	defaultRetryMaxWait     = 30 * time.Second
)

// ConverterPandoc and ConverterGoldmark are the accepted engine selectors.
const (
	ConverterPandoc   = "pandoc"
	ConverterGoldmark = "goldmark"
)

// Default returns a configuration with every field set to its default value.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title: "Site",
		},
		Paths: PathsConfig{
			Source:    ".",
			Posts:     defaultPostsDir,
			Projects:  defaultProjectsDir,
			Pages:     defaultPagesDir,
			Static:    defaultStaticDir,
			Output:    defaultOutputDir,
			State:     defaultStateDir,
			Templates: defaultTemplatesDir,
		},
		Converter: ConverterPandoc,
		Content: ContentConfig{
			MaxRetries:        defaultSyncRetries,
			RetryBackoff:      RetryBackoffLinear,
			RetryInitialDelay: defaultRetryInitialWait,
			RetryMaxDelay:     defaultRetryMaxWait,
		},
		Serve: ServeConfig{
			Addr: defaultServeAddr,
		},
		Links: LinksConfig{
			Check: true,
		},
		Metrics: MetricsConfig{
			Namespace: defaultNamespace,
		},
		Notify: NotifyConfig{
			Subject: defaultNotifySubject,
		},
	}
}

// applyDefaults fills fields the YAML left empty. Unmarshal writes over the
// Default() seed, so only zero values need patching up afterwards.
func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Site"
	}
	if c.Paths.Source == "" {
		c.Paths.Source = "."
	}
	if c.Paths.Posts == "" {
		c.Paths.Posts = defaultPostsDir
	}
	if c.Paths.Projects == "" {
		c.Paths.Projects = defaultProjectsDir
	}
	if c.Paths.Pages == "" {
		c.Paths.Pages = defaultPagesDir
	}
	if c.Paths.Static == "" {
		c.Paths.Static = defaultStaticDir
	}
	if c.Paths.Output == "" {
		c.Paths.Output = defaultOutputDir
	}
	if c.Paths.State == "" {
		c.Paths.State = defaultStateDir
	}
	if c.Paths.Templates == "" {
		c.Paths.Templates = defaultTemplatesDir
	}
	if c.Converter == "" {
		c.Converter = ConverterPandoc
	}
	if c.Content.Repository != "" && c.Content.Branch == "" {
		c.Content.Branch = defaultBranch
	}
	if c.Content.MaxRetries <= 0 {
		c.Content.MaxRetries = defaultSyncRetries
	}
	if mode := NormalizeRetryBackoff(string(c.Content.RetryBackoff)); mode != "" {
		c.Content.RetryBackoff = mode
	} else {
		c.Content.RetryBackoff = RetryBackoffLinear
	}
	if c.Content.RetryInitialDelay <= 0 {
		c.Content.RetryInitialDelay = defaultRetryInitialWait
	}
	if c.Content.RetryMaxDelay <= 0 {
		c.Content.RetryMaxDelay = defaultRetryMaxWait
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = defaultServeAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = defaultNamespace
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = defaultNotifySubject
	}
}

// Path helpers resolve the configured names against the source root.

func (p PathsConfig) PostsRoot() string     { return filepath.Join(p.Source, p.Posts) }
func (p PathsConfig) ProjectsRoot() string  { return filepath.Join(p.Source, p.Projects) }
func (p PathsConfig) PagesRoot() string     { return filepath.Join(p.Source, p.Pages) }
func (p PathsConfig) StaticRoot() string    { return filepath.Join(p.Source, p.Static) }
func (p PathsConfig) OutputRoot() string    { return filepath.Join(p.Source, p.Output) }
func (p PathsConfig) StateRoot() string     { return filepath.Join(p.Source, p.State) }
func (p PathsConfig) TemplatesRoot() string { return filepath.Join(p.Source, p.Templates) }
