// Package scaffold creates skeleton content entries: a post or project
// directory with seeded metadata and a document stub, or a standalone
// markdown page with front matter. Everything it writes builds cleanly, so
// a fresh entry shows up on the site before a single field is edited.
package scaffold

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alescoulie/sitegen/internal/config"
	"github.com/alescoulie/sitegen/internal/content"
	"github.com/alescoulie/sitegen/internal/frontmatter"
)

var (
	// ErrEntryExists indicates the target post, project or page already
	// exists. Scaffolding never overwrites content.
	ErrEntryExists = errors.New("entry already exists")

	// ErrBadName indicates the entry name would not survive as a directory
	// or file name.
	ErrBadName = errors.New("invalid entry name")
)

// Document stubs seeded into new entries. Fixed names keep the metadata's
// file_path stable whatever the entry is called.
const (
	postDocName = "post.md"
	projDocName = "proj.md"
	seedFormat  = "markdown"
	seedBody    = "Write your post here.\n"
)

var titleCaser = cases.Title(language.English)

// Scaffolder creates content entries under the configured roots.
type Scaffolder struct {
	paths  config.PathsConfig
	author string

	// now is swappable so tests get stable dates.
	now func() time.Time
}

// New returns a scaffolder for the configured layout. The site author seeds
// the authors list of new posts; empty falls back to a placeholder.
func New(cfg *config.Config) *Scaffolder {
	return &Scaffolder{
		paths:  cfg.Paths,
		author: cfg.Site.Author,
		now:    time.Now,
	}
}

// seedPost mirrors the on-disk post.json contract in write order.
type seedPost struct {
	FilePath    string   `json:"file_path"`
	PostDir     string   `json:"post_dir"`
	Format      string   `json:"format"`
	StaticDir   string   `json:"static_dir"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Day         int      `json:"day"`
	Month       int      `json:"month"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	Projects    []string `json:"projects"`
	Tags        []string `json:"tags"`
}

type seedProject struct {
	FilePath    string `json:"file_path"`
	ProjDir     string `json:"proj_dir"`
	Format      string `json:"format"`
	StaticDir   string `json:"static_dir"`
	Thumbnail   string `json:"thumbnail"`
	Project     string `json:"project"`
	Day         int    `json:"day"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Description string `json:"description"`
}

// Post creates blog_posts/<name> with a static dir, seeded post.json and a
// markdown stub. It returns the created directory.
func (s *Scaffolder) Post(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	dir := filepath.Join(s.paths.PostsRoot(), name)
	if err := s.makeEntryDirs(dir); err != nil {
		return "", err
	}

	now := s.now()
	meta := seedPost{
		FilePath:    postDocName,
		PostDir:     name,
		Format:      seedFormat,
		StaticDir:   content.PublishedStaticDir,
		Title:       displayName(name),
		Authors:     []string{s.authorName()},
		Day:         now.Day(),
		Month:       int(now.Month()),
		Year:        now.Year(),
		Description: "",
		Thumbnail:   "static/thumb.png",
		Projects:    nil,
		Tags:        []string{},
	}
	if err := writeSeed(filepath.Join(dir, content.MetaFileName), meta); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, postDocName), []byte(seedBody), 0o644); err != nil {
		return "", fmt.Errorf("write document stub: %w", err)
	}
	return dir, nil
}

// Project creates projects/<name> with a static dir, seeded proj.json and a
// markdown stub. It returns the created directory.
func (s *Scaffolder) Project(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	dir := filepath.Join(s.paths.ProjectsRoot(), name)
	if err := s.makeEntryDirs(dir); err != nil {
		return "", err
	}

	now := s.now()
	meta := seedProject{
		FilePath:    projDocName,
		ProjDir:     name,
		Format:      seedFormat,
		StaticDir:   content.PublishedStaticDir,
		Thumbnail:   "static/thumb.png",
		Project:     displayName(name),
		Day:         now.Day(),
		Month:       int(now.Month()),
		Year:        now.Year(),
		Description: "",
	}
	if err := writeSeed(filepath.Join(dir, content.ProjectMetaFileName), meta); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, projDocName), []byte(seedBody), 0o644); err != nil {
		return "", fmt.Errorf("write document stub: %w", err)
	}
	return dir, nil
}

// Page creates <pages>/<name>.md with title front matter. It returns the
// created file path.
func (s *Scaffolder) Page(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.paths.PagesRoot(), name+".md")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrEntryExists, path)
	}
	if err := os.MkdirAll(s.paths.PagesRoot(), 0o755); err != nil {
		return "", fmt.Errorf("create pages directory: %w", err)
	}

	body, err := frontmatter.Compose(map[string]any{"title": displayName(name)}, []byte(seedBody))
	if err != nil {
		return "", fmt.Errorf("compose page: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write page: %w", err)
	}
	return path, nil
}

// makeEntryDirs creates the entry directory and its static subdirectory,
// refusing a directory that already exists.
func (s *Scaffolder) makeEntryDirs(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrEntryExists, dir)
	}
	if err := os.MkdirAll(filepath.Join(dir, content.PublishedStaticDir), 0o755); err != nil {
		return fmt.Errorf("create entry directory: %w", err)
	}
	return nil
}

func (s *Scaffolder) authorName() string {
	if s.author != "" {
		return s.author
	}
	return "Author"
}

// writeSeed marshals the metadata with stable field order and indentation,
// matching what authors hand-edit afterwards.
func writeSeed(path string, meta any) error {
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// displayName derives a human title from an entry name:
// "my-first-post" becomes "My First Post".
func displayName(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(cleaned)
}

// checkName rejects names that would escape the content root or vanish
// entirely.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q must not contain path separators", ErrBadName, name)
	}
	return nil
}
