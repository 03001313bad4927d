package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cerrors "github.com/alescoulie/sitegen/internal/content/errors"
)

// ProjectMetaFileName is the metadata file expected in every project directory.
const ProjectMetaFileName = "proj.json"

// Project is one portfolio project parsed from a proj.json and its sibling
// description document.
type Project struct {
	FilePath    string // description document relative to Dir
	Dir         string // entry directory name under the projects root
	Format      string
	StaticDir   string // optional assets directory, empty when absent
	Thumbnail   string
	Name        string // display name, also the key posts reference in their projects list
	Date        time.Time
	Description string

	SourcePath string
	MetaPath   string
}

type rawProject struct {
	FilePath    string  `json:"file_path"`
	ProjDir     string  `json:"proj_dir"`
	Format      string  `json:"format"`
	StaticDir   *string `json:"static_dir"`
	Thumbnail   string  `json:"thumbnail"`
	Project     string  `json:"project"`
	Day         int     `json:"day"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	Description string  `json:"description"`
}

// ParseProject reads and validates the metadata file at metaPath.
func ParseProject(metaPath, projectsRoot string) (Project, error) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return Project{}, fmt.Errorf("%w: %s: %v", cerrors.ErrMetadataRead, metaPath, err)
	}

	var raw rawProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return Project{}, fmt.Errorf("%w: %s: %v", cerrors.ErrMetadataInvalid, metaPath, err)
	}

	if raw.FilePath == "" || raw.ProjDir == "" || raw.Project == "" || raw.Format == "" {
		return Project{}, fmt.Errorf("%w: %s: file_path, proj_dir, format and project are required", cerrors.ErrMetadataInvalid, metaPath)
	}

	date, err := dateOf(raw.Year, raw.Month, raw.Day)
	if err != nil {
		return Project{}, fmt.Errorf("%s: %w", metaPath, err)
	}

	proj := Project{
		FilePath:    raw.FilePath,
		Dir:         raw.ProjDir,
		Format:      raw.Format,
		Thumbnail:   raw.Thumbnail,
		Name:        raw.Project,
		Date:        date,
		Description: raw.Description,
		MetaPath:    metaPath,
		SourcePath:  filepath.Join(projectsRoot, raw.ProjDir, raw.FilePath),
	}
	if raw.StaticDir != nil {
		proj.StaticDir = *raw.StaticDir
	}

	if _, err := os.Stat(proj.SourcePath); err != nil {
		return Project{}, fmt.Errorf("%w: %s", cerrors.ErrSourceMissing, proj.SourcePath)
	}
	return proj, nil
}

// Stem returns the description file name without its extension.
func (p Project) Stem() string {
	base := filepath.Base(p.FilePath)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// OutputName is the file name of the rendered project page.
func (p Project) OutputName() string { return p.Stem() + ".html" }

// DateString renders the project date in the long form used across the site.
func (p Project) DateString() string { return p.Date.Format("January 2, 2006") }

// Contains reports whether the post lists this project by name.
func (p Project) Contains(post Post) bool {
	for _, name := range post.Projects {
		if name == p.Name {
			return true
		}
	}
	return false
}
