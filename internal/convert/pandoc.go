package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// BinaryEnv overrides the pandoc executable path, taking precedence over the
// PATH lookup but not over an explicitly configured binary.
const BinaryEnv = "PANDOC_BINARY"

// Pandoc shells out to the external document converter.
type Pandoc struct {
	binary string // resolved executable, empty when unresolvable
	args   []string
}

// NewPandoc resolves the executable once: configured path, then $PANDOC_BINARY,
// then a PATH lookup. extraArgs are appended to every invocation.
func NewPandoc(configured string, extraArgs []string) *Pandoc {
	return &Pandoc{binary: resolveBinary(configured), args: extraArgs}
}

func resolveBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv(BinaryEnv); env != "" {
		return env
	}
	path, err := exec.LookPath("pandoc")
	if err != nil {
		return ""
	}
	return path
}

func (p *Pandoc) Name() string { return "pandoc" }

// Available reports whether the resolved binary exists and is executable.
// Configured and env paths are verified here rather than at resolve time so a
// bad override surfaces as "converter unavailable", not a cryptic exec error.
func (p *Pandoc) Available() bool {
	if p.binary == "" {
		return false
	}
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// Convert runs pandoc --from <format> --to html on the document and returns
// captured stdout. stderr is folded into the error on failure.
func (p *Pandoc) Convert(ctx context.Context, req Request) (Result, error) {
	if !p.Available() {
		return Result{}, fmt.Errorf("%w: %s", ErrConverterUnavailable, p.describe())
	}

	args := []string{"--from", req.Format, "--to", "html"}
	args = append(args, p.args...)
	args = append(args, req.SourcePath)

	cmd := exec.CommandContext(ctx, p.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return Result{}, fmt.Errorf("%w: %s: %s", ErrConvertFailed, filepath.Base(req.SourcePath), msg)
	}
	return Result{HTML: stdout.String(), Engine: p.Name()}, nil
}

func (p *Pandoc) describe() string {
	if p.binary == "" {
		return "pandoc not on PATH"
	}
	return p.binary
}
