// Package templates renders the site's HTML through a fixed set of named
// templates. Every kind ships as an embedded default and can be overridden
// per file by dropping <kind>.html.tmpl into the site's templates directory.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/alescoulie/sitegen/internal/logfields"
)

// Template kinds. The names double as override file stems.
const (
	KindHeader       = "header"
	KindNavbar       = "navbar"
	KindPage         = "page"
	KindPost         = "post"
	KindPostBlock    = "post_block"
	KindTag          = "tag"
	KindBlog         = "blog"
	KindProjectPage  = "project_page"
	KindProjectBlock = "project_block"
	KindProjects     = "projects"
)

//go:embed assets/*.html.tmpl
var builtin embed.FS

// Sources reported by Usage.
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
)

// Set loads and caches the site's templates.
type Set struct {
	overrideDir string

	mu    sync.Mutex
	cache map[string]*template.Template
	usage map[string]string
}

// NewSet returns a template set. overrideDir may be empty to use only the
// embedded defaults.
func NewSet(overrideDir string) *Set {
	return &Set{
		overrideDir: overrideDir,
		cache:       make(map[string]*template.Template),
		usage:       make(map[string]string),
	}
}

// Render executes the template of the given kind. The result is trusted
// HTML: callers compose rendered fragments into one another.
func (s *Set) Render(kind string, data any) (template.HTML, error) {
	tmpl, err := s.load(kind)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", kind, err)
	}
	return template.HTML(buf.String()), nil
}

// Usage reports where each rendered kind came from, for the build report.
func (s *Set) Usage() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.usage))
	for k, v := range s.usage {
		out[k] = v
	}
	return out
}

func (s *Set) load(kind string) (*template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tmpl, ok := s.cache[kind]; ok {
		return tmpl, nil
	}

	body, source, err := s.templateBody(kind)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(kind).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template (%s): %w", kind, source, err)
	}
	s.cache[kind] = tmpl
	s.usage[kind] = source
	return tmpl, nil
}

func (s *Set) templateBody(kind string) (string, string, error) {
	if s.overrideDir != "" {
		path := filepath.Join(s.overrideDir, kind+".html.tmpl")
		// #nosec G304 - path is the configured templates dir plus a fixed kind name
		if b, err := os.ReadFile(path); err == nil {
			slog.Debug("Loaded template override", logfields.Path(path))
			return string(b), SourceFile, nil
		}
	}

	b, err := builtin.ReadFile("assets/" + kind + ".html.tmpl")
	if err != nil {
		// Embedded defaults cover every kind; a miss is a programmer error.
		panic(fmt.Sprintf("embedded default template missing for kind %s: %v", kind, err))
	}
	return string(b), SourceEmbedded, nil
}

// Data shapes consumed by the builtin templates. Overrides receive the same
// values.

// HeaderData opens the document: head block plus body start.
type HeaderData struct {
	Title string
	Root  string // "../" chain from the page back to the site root
}

// NavLink is one navbar entry, already prefixed for the page's depth.
type NavLink struct {
	Href  string
	Label string
}

// NavbarData renders the site navigation.
type NavbarData struct {
	Links []NavLink
}

// TagData renders one inline tag link.
type TagData struct {
	Href  string
	Label string
}

// PageData frames a rendered markdown or template page body.
type PageData struct {
	Header  template.HTML
	Navbar  template.HTML
	Content template.HTML
}

// PostData renders a full post page.
type PostData struct {
	Header  template.HTML
	Navbar  template.HTML
	Title   string
	Author  string
	Date    string
	Content template.HTML
}

// PostBlockData renders one entry of a post listing.
type PostBlockData struct {
	Title   string
	Link    string
	ImgLink string
	Date    string
	Author  string
	Summary string
	Tags    template.HTML
}

// BlogData renders a post listing page (the blog index and tag pages).
type BlogData struct {
	Header template.HTML
	Navbar template.HTML
	Title  string
	Posts  template.HTML
}

// ProjectPageData renders a single project's page.
type ProjectPageData struct {
	Header  template.HTML
	Navbar  template.HTML
	Name    string
	Content template.HTML
	Posts   template.HTML
}

// ProjectBlockData renders one entry of the projects index.
type ProjectBlockData struct {
	Title   string
	Link    string
	ImgLink string
	Date    string
	Summary string
}

// ProjectsData renders the projects index page.
type ProjectsData struct {
	Header   template.HTML
	Navbar   template.HTML
	Projects template.HTML
}
