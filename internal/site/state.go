package site

import (
	"html/template"
	"time"

	"github.com/alescoulie/sitegen/internal/content"
)

// BuildState carries mutable state across stages. Discovery fills the content
// slices, conversion fills the body maps, and the render stages consume them.
type BuildState struct {
	Generator *Generator
	Report    *BuildReport

	Posts    []content.Post
	Projects []content.Project
	Pages    []Page

	// Converted document bodies keyed by entry directory name.
	PostBodies    map[string]template.HTML
	ProjectBodies map[string]template.HTML

	Timings map[StageName]time.Duration

	// fallbackNoted keeps the converter fallback from being reported more
	// than once per build.
	fallbackNoted bool
}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{
		Generator:     g,
		Report:        report,
		PostBodies:    make(map[string]template.HTML),
		ProjectBodies: make(map[string]template.HTML),
		Timings:       make(map[StageName]time.Duration),
	}
}
