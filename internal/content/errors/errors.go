// Package errors provides sentinel errors for content discovery and parsing.
// These enable consistent classification of discovery stage failures.
package errors

import "errors"

var (
	// ErrPostsDirMissing indicates the posts directory does not exist. A site
	// without its posts tree is a broken invocation, not an empty site.
	ErrPostsDirMissing = errors.New("posts directory not found")

	// ErrMetadataRead indicates a post.json or proj.json file could not be read.
	ErrMetadataRead = errors.New("metadata file read failed")

	// ErrMetadataInvalid indicates a metadata file failed to decode or is
	// missing required fields.
	ErrMetadataInvalid = errors.New("metadata file invalid")

	// ErrDateInvalid indicates day/month/year fields do not form a real date.
	ErrDateInvalid = errors.New("invalid date")

	// ErrNoAuthors indicates a post declared an empty author list.
	ErrNoAuthors = errors.New("no authors provided")

	// ErrSourceMissing indicates the document named by file_path does not
	// exist in the entry directory.
	ErrSourceMissing = errors.New("source document not found")
)
