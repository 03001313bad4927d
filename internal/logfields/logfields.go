package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyDir        = "dir"
	KeyPost       = "post"
	KeyProject    = "project"
	KeyPage       = "page"
	KeyTag        = "tag"
	KeyFormat     = "format"
	KeyEngine     = "engine"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyBuildID    = "build_id"
	KeySignature  = "signature"
	KeyURL        = "url"
	KeyAddr       = "addr"
	KeySubject    = "subject"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Post(p string) slog.Attr         { return slog.String(KeyPost, p) }
func Project(p string) slog.Attr      { return slog.String(KeyProject, p) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Engine(e string) slog.Attr       { return slog.String(KeyEngine, e) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Signature(s string) slog.Attr    { return slog.String(KeySignature, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
