package site

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"strings"

	"github.com/alescoulie/sitegen/internal/content"
	"github.com/alescoulie/sitegen/internal/logfields"
	"github.com/alescoulie/sitegen/internal/templates"
)

const projectDepth = 2 // projects/<dir>/<page>.html

// stageRenderProjects writes one page per project plus the projects index.
func stageRenderProjects(_ context.Context, bs *BuildState) error {
	g := bs.Generator

	var missingStatic int
	for _, proj := range bs.Projects {
		header, navbar, err := g.chrome(bs, proj.Name+" - "+g.cfg.Site.Title, projectDepth)
		if err != nil {
			return newFatalStageError(StageRenderProjects, err)
		}
		posts, err := g.postBlocks(content.PostsForProject(proj, bs.Posts), projectDepth, false)
		if err != nil {
			return newFatalStageError(StageRenderProjects, fmt.Errorf("project %s: %w", proj.Dir, err))
		}
		page, err := g.templates.Render(templates.KindProjectPage, templates.ProjectPageData{
			Header:  header,
			Navbar:  navbar,
			Name:    proj.Name,
			Content: bs.ProjectBodies[proj.Dir],
			Posts:   posts,
		})
		if err != nil {
			return newFatalStageError(StageRenderProjects, fmt.Errorf("render project %s: %w", proj.Dir, err))
		}
		if err := g.writeOutput(bs, path.Join("projects", proj.Dir, proj.OutputName()), page); err != nil {
			return newFatalStageError(StageRenderProjects, err)
		}

		copied, err := g.copyEntryStatic(bs, StageRenderProjects, g.projectsRoot, proj.Dir, proj.StaticDir, path.Join("projects", proj.Dir))
		if err != nil {
			return newFatalStageError(StageRenderProjects, err)
		}
		if !copied && proj.StaticDir != "" {
			missingStatic++
		}
		slog.Debug("Rendered project", logfields.Project(proj.Dir))
	}

	if err := g.renderProjectsIndex(bs); err != nil {
		return newFatalStageError(StageRenderProjects, err)
	}

	if missingStatic > 0 {
		return newWarnStageError(StageRenderProjects,
			fmt.Errorf("%d projects reference a missing static directory", missingStatic))
	}
	return nil
}

// renderProjectsIndex writes projects.html with entries oldest first, so the
// list reads as a chronology.
func (g *Generator) renderProjectsIndex(bs *BuildState) error {
	header, navbar, err := g.chrome(bs, "Projects - "+g.cfg.Site.Title, 0)
	if err != nil {
		return err
	}

	sorted := make([]content.Project, len(bs.Projects))
	copy(sorted, bs.Projects)
	content.SortProjectsByDate(sorted)

	blocks := make([]string, 0, len(sorted))
	for _, proj := range sorted {
		block, err := g.templates.Render(templates.KindProjectBlock, templates.ProjectBlockData{
			Title:   proj.Name,
			Link:    path.Join("projects", proj.Dir, proj.OutputName()),
			ImgLink: path.Join("projects", proj.Dir, proj.Thumbnail),
			Date:    proj.DateString(),
			Summary: proj.Description,
		})
		if err != nil {
			return fmt.Errorf("render project block %s: %w", proj.Dir, err)
		}
		blocks = append(blocks, string(block))
	}

	page, err := g.templates.Render(templates.KindProjects, templates.ProjectsData{
		Header:   header,
		Navbar:   navbar,
		Projects: template.HTML(strings.Join(blocks, "\n")),
	})
	if err != nil {
		return err
	}
	return g.writeOutput(bs, "projects.html", page)
}
