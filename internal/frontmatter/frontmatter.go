// Package frontmatter handles the optional YAML header on markdown pages:
// a `---` delimited block before the body carrying presentation fields.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates a page started with a front matter
// delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter opening delimiter found but closing delimiter is missing")

// Meta are the fields a page may set in its front matter.
type Meta struct {
	Title  string `yaml:"title"`
	Hidden bool   `yaml:"hidden"` // hidden pages render but stay out of the navbar
}

// Split separates the YAML front matter from the page body. When the page
// does not open with a delimiter, had is false and body is the full input.
// Both \n and \r\n authored pages are accepted.
func Split(content []byte) (meta, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	// An immediately closed block is legal: empty front matter.
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// A file may end right at the closing delimiter.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(rest, tail) {
			return rest[:len(rest)-len(tail)+len(nl)], nil, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// Parse decodes the raw front matter block into page metadata.
func Parse(meta []byte) (Meta, error) {
	var m Meta
	if len(meta) == 0 {
		return m, nil
	}
	if err := yaml.Unmarshal(meta, &m); err != nil {
		return Meta{}, fmt.Errorf("parsing front matter: %w", err)
	}
	return m, nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
