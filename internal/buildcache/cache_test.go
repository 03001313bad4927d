package buildcache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func TestBuildRecordRoundTrip(t *testing.T) {
	cache, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := t.Context()

	last, err := cache.LastBuild(ctx)
	if err != nil {
		t.Fatalf("last build on empty cache: %v", err)
	}
	if last != nil {
		t.Fatalf("expected no build record, got %+v", last)
	}

	rec := BuildRecord{
		BuildID:   "6f2c9d1e",
		Signature: "abc123",
		Outcome:   "success",
		Started:   time.Now().Add(-time.Minute).Truncate(time.Second),
		Finished:  time.Now().Truncate(time.Second),
		Report:    []byte(`{"outcome":"success"}`),
	}
	if err := cache.RecordBuild(ctx, rec); err != nil {
		t.Fatalf("failed to record build: %v", err)
	}

	last, err = cache.LastBuild(ctx)
	if err != nil {
		t.Fatalf("failed to get last build: %v", err)
	}
	if last == nil {
		t.Fatal("expected a build record")
	}
	if last.BuildID != rec.BuildID || last.Signature != rec.Signature || last.Outcome != rec.Outcome {
		t.Errorf("unexpected record: %+v", last)
	}
	if !last.Started.Equal(rec.Started) || !last.Finished.Equal(rec.Finished) {
		t.Errorf("timestamps not preserved: %+v", last)
	}
	if !bytes.Equal(last.Report, rec.Report) {
		t.Errorf("report not preserved: %s", last.Report)
	}
}

func TestLastBuildReturnsNewest(t *testing.T) {
	cache, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := t.Context()
	for i, sig := range []string{"first", "second", "third"} {
		rec := BuildRecord{
			BuildID:   sig,
			Signature: sig,
			Outcome:   "success",
			Started:   time.Unix(int64(1000+i), 0),
			Finished:  time.Unix(int64(1001+i), 0),
		}
		if err := cache.RecordBuild(ctx, rec); err != nil {
			t.Fatalf("failed to record build %d: %v", i, err)
		}
	}

	last, err := cache.LastBuild(ctx)
	if err != nil {
		t.Fatalf("failed to get last build: %v", err)
	}
	if last.Signature != "third" {
		t.Errorf("expected newest build, got %q", last.Signature)
	}

	recs, err := cache.Builds(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list builds: %v", err)
	}
	if len(recs) != 2 || recs[0].Signature != "third" || recs[1].Signature != "second" {
		t.Errorf("unexpected build list: %+v", recs)
	}
}

func TestPruneBuilds(t *testing.T) {
	cache, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := t.Context()
	for range 5 {
		if err := cache.RecordBuild(ctx, BuildRecord{BuildID: "b", Signature: "s", Outcome: "success"}); err != nil {
			t.Fatalf("failed to record build: %v", err)
		}
	}

	removed, err := cache.PruneBuilds(ctx, 2)
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 pruned rows, got %d", removed)
	}

	recs, err := cache.Builds(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list builds: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 remaining builds, got %d", len(recs))
	}
}

func TestConversionRoundTrip(t *testing.T) {
	cache, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := t.Context()
	key := ConversionKey("pandoc", "rst", []string{"--mathjax"}, []byte("Hello\n====="))

	if _, ok, lookupErr := cache.Conversion(ctx, key); lookupErr != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, lookupErr)
	}

	html := []byte("<h1>Hello</h1>")
	if err := cache.StoreConversion(ctx, key, "pandoc", "rst", html); err != nil {
		t.Fatalf("failed to store conversion: %v", err)
	}

	got, ok, err := cache.Conversion(ctx, key)
	if err != nil {
		t.Fatalf("failed to look up conversion: %v", err)
	}
	if !ok || !bytes.Equal(got, html) {
		t.Errorf("unexpected conversion result: ok=%v body=%s", ok, got)
	}

	// Storing under the same key replaces the body.
	if err := cache.StoreConversion(ctx, key, "pandoc", "rst", []byte("<h1>Hi</h1>")); err != nil {
		t.Fatalf("failed to replace conversion: %v", err)
	}
	got, ok, err = cache.Conversion(ctx, key)
	if err != nil || !ok {
		t.Fatalf("failed to look up replaced conversion: ok=%v err=%v", ok, err)
	}
	if string(got) != "<h1>Hi</h1>" {
		t.Errorf("expected replaced body, got %s", got)
	}
}

func TestConversionKeyDistinguishesInputs(t *testing.T) {
	base := ConversionKey("pandoc", "md", nil, []byte("# A"))
	cases := map[string]string{
		"engine": ConversionKey("goldmark", "md", nil, []byte("# A")),
		"format": ConversionKey("pandoc", "rst", nil, []byte("# A")),
		"args":   ConversionKey("pandoc", "md", []string{"--toc"}, []byte("# A")),
		"source": ConversionKey("pandoc", "md", nil, []byte("# B")),
	}
	for name, key := range cases {
		if key == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
	if again := ConversionKey("pandoc", "md", nil, []byte("# A")); again != base {
		t.Errorf("key not deterministic: %s vs %s", again, base)
	}
}

func TestPruneConversions(t *testing.T) {
	cache, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := t.Context()
	if err := cache.StoreConversion(ctx, "k1", "pandoc", "md", []byte("x")); err != nil {
		t.Fatalf("failed to store conversion: %v", err)
	}

	// A generous max age keeps the fresh entry.
	removed, err := cache.PruneConversions(ctx, time.Hour)
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected no pruned rows, got %d", removed)
	}

	// A negative max age puts the cutoff in the future and removes everything.
	removed, err = cache.PruneConversions(ctx, -time.Hour)
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 pruned row, got %d", removed)
	}
}

func TestCachePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	cache, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	if err := cache.RecordBuild(t.Context(), BuildRecord{BuildID: "b1", Signature: "sig", Outcome: "success"}); err != nil {
		t.Fatalf("failed to record build: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("failed to close cache: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen cache: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	last, err := reopened.LastBuild(t.Context())
	if err != nil {
		t.Fatalf("failed to get last build: %v", err)
	}
	if last == nil || last.Signature != "sig" {
		t.Errorf("expected persisted build, got %+v", last)
	}
}
