// Package convert turns post and project documents into HTML fragments.
// Conversion is delegated to pandoc for arbitrary markup formats, with a
// native goldmark engine for markdown.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alescoulie/sitegen/internal/config"
	"github.com/alescoulie/sitegen/internal/logfields"
)

var (
	// ErrConverterUnavailable indicates no engine can handle a document
	// because the external converter is not resolvable.
	ErrConverterUnavailable = errors.New("document converter not available")

	// ErrConvertFailed indicates the converter ran and rejected the document.
	ErrConvertFailed = errors.New("document conversion failed")

	// ErrUnsupportedFormat indicates the selected engine cannot read the
	// document's markup format.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Request names one document to convert.
type Request struct {
	SourcePath string
	Format     string
}

// Result carries the converted HTML fragment.
type Result struct {
	HTML   string
	Engine string
}

// Converter is a single conversion engine.
type Converter interface {
	Name() string
	Available() bool
	Convert(ctx context.Context, req Request) (Result, error)
}

// Dispatcher routes each document to an engine. With the pandoc engine
// configured, markdown documents fall back to goldmark when pandoc is not
// resolvable, so a plain-markdown site builds without the external tool.
type Dispatcher struct {
	engine   string
	pandoc   *Pandoc
	goldmark *Goldmark

	warnOnce sync.Once
}

// NewDispatcher builds the engine set from the configuration.
func NewDispatcher(cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		engine:   cfg.Converter,
		pandoc:   NewPandoc(cfg.Pandoc.Binary, cfg.Pandoc.Args),
		goldmark: NewGoldmark(),
	}
}

// EngineFor reports which engine would convert a document of the given
// format, without converting anything. FellBack is set when pandoc is
// configured but unavailable and goldmark covers the format instead.
func (d *Dispatcher) EngineFor(format string) (name string, fellBack bool, err error) {
	switch d.engine {
	case config.ConverterGoldmark:
		if !d.goldmark.Supports(format) {
			return "", false, fmt.Errorf("%w: %q requires the pandoc engine", ErrUnsupportedFormat, format)
		}
		return d.goldmark.Name(), false, nil
	default:
		if d.pandoc.Available() {
			return d.pandoc.Name(), false, nil
		}
		if d.goldmark.Supports(format) {
			return d.goldmark.Name(), true, nil
		}
		return "", false, fmt.Errorf("%w: %q needs pandoc on PATH (or $%s)", ErrConverterUnavailable, format, BinaryEnv)
	}
}

// Convert routes the request to the engine EngineFor selects.
func (d *Dispatcher) Convert(ctx context.Context, req Request) (Result, error) {
	name, fellBack, err := d.EngineFor(req.Format)
	if err != nil {
		return Result{}, err
	}
	if fellBack {
		d.warnOnce.Do(func() {
			slog.Warn("pandoc not found, converting markdown with the native engine",
				logfields.Engine(d.goldmark.Name()))
		})
	}
	switch name {
	case d.goldmark.Name():
		return d.goldmark.Convert(ctx, req)
	default:
		return d.pandoc.Convert(ctx, req)
	}
}
