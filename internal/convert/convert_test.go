package convert

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alescoulie/sitegen/internal/config"
)

func writeDoc(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// fakePandoc installs a shell script that echoes a marker and its arguments,
// and points $PANDOC_BINARY at it.
func fakePandoc(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake converter script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "pandoc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestGoldmarkConvert(t *testing.T) {
	doc := writeDoc(t, "post.md", "# Heading\n\nSome *markdown* text.\n")

	g := NewGoldmark()
	res, err := g.Convert(context.Background(), Request{SourcePath: doc, Format: "markdown"})
	require.NoError(t, err)
	assert.Equal(t, "goldmark", res.Engine)
	assert.Contains(t, res.HTML, "<h1 id=\"heading\">Heading</h1>")
	assert.Contains(t, res.HTML, "<em>markdown</em>")
}

func TestGoldmarkPassesRawHTMLThrough(t *testing.T) {
	doc := writeDoc(t, "post.md", "before\n\n<div class=\"figure\">x</div>\n")

	res, err := NewGoldmark().Convert(context.Background(), Request{SourcePath: doc, Format: "markdown"})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "<div class=\"figure\">x</div>")
}

func TestGoldmarkRejectsNonMarkdown(t *testing.T) {
	doc := writeDoc(t, "post.tex", `\section{x}`)

	_, err := NewGoldmark().Convert(context.Background(), Request{SourcePath: doc, Format: "latex"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPandocResolutionOrder(t *testing.T) {
	configured := fakePandoc(t, "echo configured")
	fromEnv := fakePandoc(t, "echo env")
	t.Setenv(BinaryEnv, fromEnv)

	// Explicit configuration wins over the environment.
	p := NewPandoc(configured, nil)
	require.True(t, p.Available())
	res, err := p.Convert(context.Background(), Request{SourcePath: "in.md", Format: "markdown"})
	require.NoError(t, err)
	assert.Equal(t, "configured\n", res.HTML)

	// Without configuration the environment override applies.
	p = NewPandoc("", nil)
	require.True(t, p.Available())
	res, err = p.Convert(context.Background(), Request{SourcePath: "in.md", Format: "markdown"})
	require.NoError(t, err)
	assert.Equal(t, "env\n", res.HTML)
}

func TestPandocUnavailable(t *testing.T) {
	p := NewPandoc(filepath.Join(t.TempDir(), "missing-binary"), nil)
	assert.False(t, p.Available())

	_, err := p.Convert(context.Background(), Request{SourcePath: "in.md", Format: "markdown"})
	assert.ErrorIs(t, err, ErrConverterUnavailable)
}

func TestPandocFailureCapturesStderr(t *testing.T) {
	bin := fakePandoc(t, "echo 'bad input' >&2; exit 64")

	p := NewPandoc(bin, nil)
	_, err := p.Convert(context.Background(), Request{SourcePath: "in.rst", Format: "rst"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConvertFailed)
	assert.Contains(t, err.Error(), "bad input")
}

func TestPandocArgumentOrder(t *testing.T) {
	bin := fakePandoc(t, `echo "$@"`)

	p := NewPandoc(bin, []string{"--mathjax"})
	res, err := p.Convert(context.Background(), Request{SourcePath: "doc.rst", Format: "rst"})
	require.NoError(t, err)
	assert.Equal(t, "--from rst --to html --mathjax doc.rst\n", res.HTML)
}

func TestDispatcherFallsBackToGoldmark(t *testing.T) {
	t.Setenv(BinaryEnv, filepath.Join(t.TempDir(), "nope"))
	cfg := config.Default()
	cfg.Pandoc.Binary = filepath.Join(t.TempDir(), "also-nope")

	d := NewDispatcher(cfg)

	name, fellBack, err := d.EngineFor("markdown")
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.Equal(t, "goldmark", name)

	_, _, err = d.EngineFor("rst")
	assert.ErrorIs(t, err, ErrConverterUnavailable)

	doc := writeDoc(t, "post.md", "plain text\n")
	res, err := d.Convert(context.Background(), Request{SourcePath: doc, Format: "markdown"})
	require.NoError(t, err)
	assert.Equal(t, "goldmark", res.Engine)
}

func TestDispatcherGoldmarkEngineRejectsOtherFormats(t *testing.T) {
	cfg := config.Default()
	cfg.Converter = config.ConverterGoldmark

	d := NewDispatcher(cfg)
	_, _, err := d.EngineFor("rst")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	name, fellBack, err := d.EngineFor("md")
	require.NoError(t, err)
	assert.False(t, fellBack)
	assert.Equal(t, "goldmark", name)
}
