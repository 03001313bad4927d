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

// tagLinks renders the inline comma-joined tag list for one post. Tag pages
// live at the site root under their slug.
func (g *Generator) tagLinks(tags []string, depth int) (template.HTML, error) {
	prefix := strings.Repeat("../", depth)
	rendered := make([]string, 0, len(tags))
	for _, tag := range tags {
		link, err := g.templates.Render(templates.KindTag, templates.TagData{
			Href:  prefix + Slugify(tag) + ".html",
			Label: tag,
		})
		if err != nil {
			return "", fmt.Errorf("render tag %s: %w", tag, err)
		}
		rendered = append(rendered, string(link))
	}
	return template.HTML(strings.Join(rendered, ", ")), nil
}

// postBlocks renders listing entries for posts at the given depth below the
// site root.
func (g *Generator) postBlocks(posts []content.Post, depth int, newestFirst bool) (template.HTML, error) {
	sorted := make([]content.Post, len(posts))
	copy(sorted, posts)
	content.SortPostsByDate(sorted, newestFirst)

	prefix := strings.Repeat("../", depth)
	blocks := make([]string, 0, len(sorted))
	for _, post := range sorted {
		tags, err := g.tagLinks(post.Tags, depth)
		if err != nil {
			return "", err
		}
		block, err := g.templates.Render(templates.KindPostBlock, templates.PostBlockData{
			Title:   post.Title,
			Link:    prefix + path.Join("posts", post.Dir, post.OutputName()),
			ImgLink: prefix + path.Join("posts", post.Dir, post.Thumbnail),
			Date:    post.DateString(),
			Author:  post.AuthorsString(),
			Summary: post.Description,
			Tags:    tags,
		})
		if err != nil {
			return "", fmt.Errorf("render post block %s: %w", post.Dir, err)
		}
		blocks = append(blocks, string(block))
	}
	return template.HTML(strings.Join(blocks, "\n")), nil
}

// listingPage renders one blog-style listing. The header title is always
// "Blog"; heading is the on-page h1 and varies per tag page.
func (g *Generator) listingPage(bs *BuildState, heading string, posts []content.Post) (template.HTML, error) {
	header, navbar, err := g.chrome(bs, "Blog", 0)
	if err != nil {
		return "", err
	}
	blocks, err := g.postBlocks(posts, 0, true)
	if err != nil {
		return "", err
	}
	return g.templates.Render(templates.KindBlog, templates.BlogData{
		Header: header,
		Navbar: navbar,
		Title:  heading,
		Posts:  blocks,
	})
}

// stageRenderBlog writes the blog index and one listing page per tag. An
// empty site still gets a blog.html so navigation never dangles.
func stageRenderBlog(_ context.Context, bs *BuildState) error {
	g := bs.Generator

	page, err := g.listingPage(bs, "Blog", bs.Posts)
	if err != nil {
		return newFatalStageError(StageRenderBlog, err)
	}
	if err := g.writeOutput(bs, "blog.html", page); err != nil {
		return newFatalStageError(StageRenderBlog, err)
	}

	names, byTag := content.Tags(bs.Posts)
	for _, tag := range names {
		page, err := g.listingPage(bs, tag+" Blog Posts", byTag[tag])
		if err != nil {
			return newFatalStageError(StageRenderBlog, fmt.Errorf("tag %s: %w", tag, err))
		}
		if err := g.writeOutput(bs, Slugify(tag)+".html", page); err != nil {
			return newFatalStageError(StageRenderBlog, err)
		}
		bs.Report.TagPages++
		slog.Debug("Rendered tag page", logfields.Tag(tag))
	}
	return nil
}
