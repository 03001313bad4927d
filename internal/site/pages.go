package site

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alescoulie/sitegen/internal/frontmatter"
	"github.com/alescoulie/sitegen/internal/templates"
)

// Page template and markdown page suffixes within the pages directory.
const (
	pageTemplateSuffix = ".html.tmpl"
	pageMarkdownSuffix = ".md"
)

var titleCaser = cases.Title(language.English)

// Page is one standalone page from the pages directory: either a full HTML
// template the author controls, or a markdown document framed by the page
// template.
type Page struct {
	FileName string // source file name within the pages root
	Stem     string // output name without .html
	Markdown bool
	Title    string // full title used in the header
	NavLabel string // short label used in the navbar
	Hidden   bool   // excluded from the navbar
}

// OutputName is the file written into the site root.
func (p Page) OutputName() string { return p.Stem + ".html" }

// listPages enumerates the pages directory. A missing directory yields no
// pages; the site may consist of posts alone.
func listPages(root, siteTitle string) ([]Page, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pages dir: %w", err)
	}

	var pages []Page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, pageTemplateSuffix):
			stem := strings.TrimSuffix(name, pageTemplateSuffix)
			label := titleCaser.String(strings.ReplaceAll(stem, "-", " "))
			pages = append(pages, Page{
				FileName: name,
				Stem:     stem,
				Title:    pageTitle(stem, label, siteTitle),
				NavLabel: label,
			})
		case strings.HasSuffix(name, pageMarkdownSuffix):
			page, err := markdownPage(root, name, siteTitle)
			if err != nil {
				return nil, err
			}
			pages = append(pages, page)
		}
	}
	return pages, nil
}

func markdownPage(root, name, siteTitle string) (Page, error) {
	raw, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		return Page{}, fmt.Errorf("read page %s: %w", name, err)
	}
	metaRaw, _, had, err := frontmatter.Split(raw)
	if err != nil {
		return Page{}, fmt.Errorf("parse page %s: %w", name, err)
	}
	var meta frontmatter.Meta
	if had {
		if meta, err = frontmatter.Parse(metaRaw); err != nil {
			return Page{}, fmt.Errorf("parse page %s: %w", name, err)
		}
	}

	stem := strings.TrimSuffix(name, pageMarkdownSuffix)
	label := meta.Title
	if label == "" {
		label = titleCaser.String(strings.ReplaceAll(stem, "-", " "))
	}
	return Page{
		FileName: name,
		Stem:     stem,
		Markdown: true,
		Title:    pageTitle(stem, label, siteTitle),
		NavLabel: label,
		Hidden:   meta.Hidden,
	}, nil
}

// pageTitle derives the header title. The index page carries the site title
// alone; every other page gets "<label> - <site title>".
func pageTitle(stem, label, siteTitle string) string {
	if stem == "index" {
		return siteTitle
	}
	return label + " - " + siteTitle
}

// navLinks builds the navigation for a page at the given depth below the
// site root. The fixed entries come first; visible pages follow sorted by
// label.
func navLinks(pages []Page, depth int) []templates.NavLink {
	prefix := strings.Repeat("../", depth)
	links := []templates.NavLink{
		{Href: prefix + "index.html", Label: "Home"},
		{Href: prefix + "blog.html", Label: "Blog"},
		{Href: prefix + "projects.html", Label: "Projects"},
	}

	var extra []templates.NavLink
	for _, p := range pages {
		if p.Hidden || p.Stem == "index" {
			continue
		}
		extra = append(extra, templates.NavLink{Href: prefix + p.OutputName(), Label: p.NavLabel})
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Label < extra[j].Label })
	return append(links, extra...)
}

// chrome renders the shared header and navbar fragments for a page.
func (g *Generator) chrome(bs *BuildState, title string, depth int) (header, navbar template.HTML, err error) {
	prefix := strings.Repeat("../", depth)
	header, err = g.templates.Render(templates.KindHeader, templates.HeaderData{Title: title, Root: prefix})
	if err != nil {
		return "", "", fmt.Errorf("render header: %w", err)
	}
	navbar, err = g.templates.Render(templates.KindNavbar, templates.NavbarData{Links: navLinks(bs.Pages, depth)})
	if err != nil {
		return "", "", fmt.Errorf("render navbar: %w", err)
	}
	return header, navbar, nil
}

// stageRenderPages renders every standalone page into the staging root.
func stageRenderPages(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	for _, page := range bs.Pages {
		header, navbar, err := g.chrome(bs, page.Title, 0)
		if err != nil {
			return newFatalStageError(StageRenderPages, err)
		}

		var body template.HTML
		if page.Markdown {
			body, err = g.renderMarkdownPage(page, header, navbar)
		} else {
			body, err = g.renderTemplatePage(page, header, navbar)
		}
		if err != nil {
			return newFatalStageError(StageRenderPages, fmt.Errorf("render page %s: %w", page.FileName, err))
		}

		if err := g.writeOutput(bs, page.OutputName(), body); err != nil {
			return newFatalStageError(StageRenderPages, err)
		}
		bs.Report.Pages++
	}
	return nil
}

// renderTemplatePage executes an author-supplied page template with the
// shared chrome. The author's template is the whole document.
func (g *Generator) renderTemplatePage(page Page, header, navbar template.HTML) (template.HTML, error) {
	raw, err := os.ReadFile(filepath.Join(g.pagesRoot, page.FileName))
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(page.FileName).Parse(string(raw))
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, templates.PageData{Header: header, Navbar: navbar}); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// renderMarkdownPage converts the markdown body and frames it in the page
// template. Markdown pages always use the built-in engine: front matter has
// to be stripped before conversion, which rules out path-based converters.
func (g *Generator) renderMarkdownPage(page Page, header, navbar template.HTML) (template.HTML, error) {
	raw, err := os.ReadFile(filepath.Join(g.pagesRoot, page.FileName))
	if err != nil {
		return "", err
	}
	_, body, _, err := frontmatter.Split(raw)
	if err != nil {
		return "", err
	}
	res, err := g.markdown.ConvertBytes(body)
	if err != nil {
		return "", err
	}
	return g.templates.Render(templates.KindPage, templates.PageData{
		Header:  header,
		Navbar:  navbar,
		Content: template.HTML(res.HTML),
	})
}

// writeOutput writes one rendered document under the staging root.
func (g *Generator) writeOutput(bs *BuildState, rel string, body template.HTML) error {
	path := filepath.Join(g.stageDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	bs.Report.OutputFiles++
	return nil
}
