package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cerrors "github.com/alescoulie/sitegen/internal/content/errors"
)

// MetaFileName is the metadata file expected in every post directory.
const MetaFileName = "post.json"

// PublishedStaticDir is the fixed name assets publish under inside an
// entry's output directory, whatever the source directory was called.
// Thumbnail and in-document references rely on it.
const PublishedStaticDir = "static"

// Post is one blog entry parsed from a post.json and its sibling document.
type Post struct {
	FilePath    string    // document file name from the metadata, relative to Dir
	Dir         string    // entry directory name under the posts root
	Format      string    // source markup format, passed to the converter
	StaticDir   string    // optional assets directory relative to Dir, empty when absent
	Title       string
	Authors     []string
	Date        time.Time
	Description string
	Thumbnail   string   // image path relative to the published post directory
	Projects    []string // project names this post belongs to, may be empty
	Tags        []string

	SourcePath string // absolute path of the document to convert
	MetaPath   string // absolute path of the metadata file
}

// rawPost mirrors the on-disk post.json contract. static_dir and projects are
// nullable in existing content repositories.
type rawPost struct {
	FilePath    string   `json:"file_path"`
	PostDir     string   `json:"post_dir"`
	Format      string   `json:"format"`
	StaticDir   *string  `json:"static_dir"`
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

// ParsePost reads and validates the metadata file at metaPath. The entry
// directory is derived from the metadata's post_dir field resolved against
// postsRoot.
func ParsePost(metaPath, postsRoot string) (Post, error) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return Post{}, fmt.Errorf("%w: %s: %v", cerrors.ErrMetadataRead, metaPath, err)
	}

	var raw rawPost
	if err := json.Unmarshal(data, &raw); err != nil {
		return Post{}, fmt.Errorf("%w: %s: %v", cerrors.ErrMetadataInvalid, metaPath, err)
	}

	if raw.FilePath == "" || raw.PostDir == "" || raw.Title == "" || raw.Format == "" {
		return Post{}, fmt.Errorf("%w: %s: file_path, post_dir, format and title are required", cerrors.ErrMetadataInvalid, metaPath)
	}
	if len(raw.Authors) == 0 {
		return Post{}, fmt.Errorf("%w: %s", cerrors.ErrNoAuthors, metaPath)
	}

	date, err := dateOf(raw.Year, raw.Month, raw.Day)
	if err != nil {
		return Post{}, fmt.Errorf("%s: %w", metaPath, err)
	}

	post := Post{
		FilePath:    raw.FilePath,
		Dir:         raw.PostDir,
		Format:      raw.Format,
		Title:       raw.Title,
		Authors:     raw.Authors,
		Date:        date,
		Description: raw.Description,
		Thumbnail:   raw.Thumbnail,
		Projects:    raw.Projects,
		Tags:        raw.Tags,
		MetaPath:    metaPath,
		SourcePath:  filepath.Join(postsRoot, raw.PostDir, raw.FilePath),
	}
	if raw.StaticDir != nil {
		post.StaticDir = *raw.StaticDir
	}

	if _, err := os.Stat(post.SourcePath); err != nil {
		return Post{}, fmt.Errorf("%w: %s", cerrors.ErrSourceMissing, post.SourcePath)
	}
	return post, nil
}

// Stem returns the document file name without its extension, the base name of
// the published page.
func (p Post) Stem() string {
	base := filepath.Base(p.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputName is the file name of the rendered post page.
func (p Post) OutputName() string { return p.Stem() + ".html" }

// DateString renders the post date in the long form used across the site.
func (p Post) DateString() string { return p.Date.Format("January 2, 2006") }

// AuthorsString joins the author list into prose: "A", "A and B",
// "A, B, and C".
func (p Post) AuthorsString() string { return joinAuthors(p.Authors) }

func joinAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return strings.Join(authors[:len(authors)-1], ", ") + ", and " + authors[len(authors)-1]
	}
}

// dateOf builds a date from calendar components, rejecting values that
// time.Date would silently normalize (month 13, day 32).
func dateOf(year, month, day int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", cerrors.ErrDateInvalid, year, month, day)
	}
	return t, nil
}
