package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/alescoulie/sitegen/internal/version"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// SkipReasonUnchanged marks a build short-circuited because the input
// signature matched the previous successful build.
const SkipReasonUnchanged = "unchanged_input"

// BuildReport captures metrics about a site generation run. It is persisted
// to the state directory, never the published output, so rebuilding identical
// inputs yields byte-identical site files.
type BuildReport struct {
	SchemaVersion    int // explicit schema version for forward-compatible consumers
	BuildID          string
	GeneratorVersion string
	Signature        string // input signature this build was computed from

	Posts              int // posts discovered with valid metadata
	Projects           int
	Pages              int // standalone pages rendered from the pages directory
	TagPages           int
	ConvertedDocuments int // documents run through a conversion engine
	CacheHits          int // conversions served from the build cache
	SkippedEntries     int // content entries dropped for invalid metadata
	OutputFiles        int // files written into the published output

	Start    time.Time
	End      time.Time
	Errors   []error // fatal errors causing build abortion (at most one today)
	Warnings []error // non-fatal issues recorded along the way

	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount

	Outcome  string       // derived overall outcome (string form for JSON)
	OutcomeT BuildOutcome // typed outcome mirror (source of truth)

	// Issues captures structured machine-parsable taxonomy entries for automation.
	Issues []ReportIssue
	// SkipReason indicates why the pipeline was short-circuited. Empty if the full pipeline ran.
	SkipReason string
	// Templates records which source served each template kind (embedded or an override file).
	Templates map[string]string
}

// ReportIssueCode enumerates machine-parseable issue identifiers.
// These codes are stable contract and should only be appended (no reuse on removal).
type ReportIssueCode string

const (
	IssuePostsDirMissing   ReportIssueCode = "POSTS_DIR_MISSING"
	IssueBrokenMetadata    ReportIssueCode = "BROKEN_METADATA"
	IssueNoPosts           ReportIssueCode = "NO_POSTS"
	IssueConvertFailure    ReportIssueCode = "CONVERT_FAILURE"
	IssueConverterFallback ReportIssueCode = "CONVERTER_FALLBACK"
	IssueStaticMissing     ReportIssueCode = "STATIC_MISSING"
	IssueSyncFailure       ReportIssueCode = "SYNC_FAILURE"
	IssueBrokenLinks       ReportIssueCode = "BROKEN_LINKS"
	IssueCanceled          ReportIssueCode = "BUILD_CANCELED"
	IssueCacheUnavailable  ReportIssueCode = "CACHE_UNAVAILABLE"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured taxonomy entry describing a discrete problem.
// Message is human-friendly; Code + Stage allow automated handling; Transient
// hints retry suitability.
type ReportIssue struct {
	Code      ReportIssueCode `json:"code"`
	Stage     StageName       `json:"stage"`
	Severity  IssueSeverity   `json:"severity"`
	Message   string          `json:"message"`
	Transient bool            `json:"transient"`
}

// StageCount aggregates outcome counts for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		SchemaVersion:    1,
		BuildID:          uuid.NewString(),
		GeneratorVersion: version.Version,
		Start:            time.Now(),
		StageDurations:   make(map[string]time.Duration),
		StageErrorKinds:  make(map[StageName]StageErrorKind),
		StageCounts:      make(map[StageName]StageCount),
		Templates:        make(map[string]string),
	}
}

func (r *BuildReport) finish() { r.End = time.Now() }

// AddIssue appends a structured issue and mirrors it into the Errors/Warnings
// slices based on severity. Provide err=nil for purely informational issues.
func (r *BuildReport) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, msg string, transient bool, err error) {
	issue := ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg, Transient: transient}
	r.Issues = append(r.Issues, issue)
	if err != nil {
		switch severity {
		case SeverityError:
			r.Errors = append(r.Errors, err)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, err)
		}
	}
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("posts=%d projects=%d pages=%d tags=%d converted=%d cache_hits=%d files=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Posts, r.Projects, r.Pages, r.TagPages, r.ConvertedDocuments, r.CacheHits, r.OutputFiles,
		dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

// deriveOutcome sets the Outcome field based on recorded errors and warnings.
func (r *BuildReport) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.setOutcome(OutcomeCanceled)
				return
			}
		}
		r.setOutcome(OutcomeFailed)
		return
	}
	if len(r.Warnings) > 0 {
		r.setOutcome(OutcomeWarning)
		return
	}
	r.setOutcome(OutcomeSuccess)
}

// setOutcome sets both typed and string forms.
func (r *BuildReport) setOutcome(o BuildOutcome) {
	r.OutcomeT = o
	r.Outcome = string(o)
}

// Persist writes the report atomically into the state directory. It writes
// two files:
//
//	build-report.json  (machine readable)
//	build-report.txt   (human summary)
//
// Best effort; errors are returned for caller logging but do not change build
// outcome.
func (r *BuildReport) Persist(stateDir string) error {
	if r.End.IsZero() { // ensure finished
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("ensure state dir for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.sanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(stateDir, "build-report.json")
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	summaryPath := filepath.Join(stateDir, "build-report.txt")
	tmpTxt := summaryPath + ".tmp"
	if err := os.WriteFile(tmpTxt, []byte(r.Summary()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write temp report summary: %w", err)
	}
	if err := os.Rename(tmpTxt, summaryPath); err != nil {
		return fmt.Errorf("atomic rename summary: %w", err)
	}
	return nil
}

// sanitizedCopy returns a copy with error fields converted to strings for JSON
// friendliness and typed map keys flattened.
func (r *BuildReport) sanitizedCopy() *BuildReportSerializable {
	stageCounts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		stageCounts[string(k)] = v
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}

	// Ensure non-nil maps so JSON shows {} rather than null.
	if r.StageDurations == nil {
		r.StageDurations = map[string]time.Duration{}
	}
	if r.Templates == nil {
		r.Templates = map[string]string{}
	}

	s := &BuildReportSerializable{
		SchemaVersion:      r.SchemaVersion,
		BuildID:            r.BuildID,
		GeneratorVersion:   r.GeneratorVersion,
		Signature:          r.Signature,
		Posts:              r.Posts,
		Projects:           r.Projects,
		Pages:              r.Pages,
		TagPages:           r.TagPages,
		ConvertedDocuments: r.ConvertedDocuments,
		CacheHits:          r.CacheHits,
		SkippedEntries:     r.SkippedEntries,
		OutputFiles:        r.OutputFiles,
		Start:              r.Start,
		End:                r.End,
		Errors:             make([]string, len(r.Errors)),
		Warnings:           make([]string, len(r.Warnings)),
		StageDurations:     r.StageDurations,
		StageErrorKinds:    sek,
		StageCounts:        stageCounts,
		Outcome:            r.Outcome,
		Issues:             r.Issues,
		SkipReason:         r.SkipReason,
		Templates:          r.Templates,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// BuildReportSerializable mirrors BuildReport but with string errors for JSON output.
type BuildReportSerializable struct {
	SchemaVersion      int                      `json:"schema_version"`
	BuildID            string                   `json:"build_id"`
	GeneratorVersion   string                   `json:"generator_version"`
	Signature          string                   `json:"signature,omitempty"`
	Posts              int                      `json:"posts"`
	Projects           int                      `json:"projects"`
	Pages              int                      `json:"pages"`
	TagPages           int                      `json:"tag_pages"`
	ConvertedDocuments int                      `json:"converted_documents"`
	CacheHits          int                      `json:"cache_hits"`
	SkippedEntries     int                      `json:"skipped_entries"`
	OutputFiles        int                      `json:"output_files"`
	Start              time.Time                `json:"start"`
	End                time.Time                `json:"end"`
	Errors             []string                 `json:"errors"`
	Warnings           []string                 `json:"warnings"`
	StageDurations     map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds    map[string]string        `json:"stage_error_kinds"`
	StageCounts        map[string]StageCount    `json:"stage_counts"`
	Outcome            string                   `json:"outcome"`
	Issues             []ReportIssue            `json:"issues"`
	SkipReason         string                   `json:"skip_reason,omitempty"`
	Templates          map[string]string        `json:"templates,omitempty"`
}
