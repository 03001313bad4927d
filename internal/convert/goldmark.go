package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// markdownFormats are format selectors the native engine accepts. Anything
// else needs pandoc.
var markdownFormats = map[string]bool{
	"markdown":        true,
	"md":              true,
	"gfm":             true,
	"commonmark":      true,
	"markdown_strict": true,
}

// Goldmark renders markdown documents without an external process.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark builds the native engine. Raw HTML passes through unchanged,
// matching pandoc's treatment of inline HTML in markdown.
func NewGoldmark() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (g *Goldmark) Name() string { return "goldmark" }

// Available always holds: the engine is compiled in.
func (g *Goldmark) Available() bool { return true }

// Supports reports whether the format selector names a markdown dialect.
func (g *Goldmark) Supports(format string) bool { return markdownFormats[format] }

// Convert renders the markdown document to an HTML fragment.
func (g *Goldmark) Convert(ctx context.Context, req Request) (Result, error) {
	if !g.Supports(req.Format) {
		return Result{}, fmt.Errorf("%w: %q is not a markdown format", ErrUnsupportedFormat, req.Format)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	src, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrConvertFailed, err)
	}
	res, err := g.ConvertBytes(src)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", req.SourcePath, err)
	}
	return res, nil
}

// ConvertBytes renders in-memory markdown, for callers that strip front
// matter before conversion.
func (g *Goldmark) ConvertBytes(src []byte) (Result, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(src, &buf); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrConvertFailed, err)
	}
	return Result{HTML: buf.String(), Engine: g.Name()}, nil
}
