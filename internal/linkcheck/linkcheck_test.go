package linkcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func TestExtractLinksFromReader(t *testing.T) {
	page := `<html><head>
<link rel="stylesheet" href="static/style.css">
<script src="static/app.js"></script>
</head><body>
<a href="blog.html">Blog</a>
<a href="https://example.org/about">External</a>
<img src="static/thumb.png" alt="thumb">
<a href="#top">Top</a>
</body></html>`

	links, err := ExtractLinksFromReader(strings.NewReader(page), "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(links) != 6 {
		t.Fatalf("expected 6 links, got %d: %+v", len(links), links)
	}

	byURL := map[string]*Link{}
	for _, l := range links {
		byURL[l.URL] = l
	}
	if l := byURL["blog.html"]; l == nil || !l.IsInternal || l.Text != "Blog" || l.Tag != "a" {
		t.Errorf("unexpected blog link: %+v", l)
	}
	if l := byURL["https://example.org/about"]; l == nil || l.IsInternal {
		t.Errorf("expected external link, got %+v", l)
	}
	if l := byURL["static/thumb.png"]; l == nil || l.Text != "thumb" || l.Attribute != "src" {
		t.Errorf("unexpected img link: %+v", l)
	}
	if l := byURL["#top"]; l == nil || !l.IsInternal {
		t.Errorf("anchor should be internal: %+v", l)
	}
}

func TestExtractLinksSameHostIsInternal(t *testing.T) {
	page := `<a href="https://blog.example.org/posts/a.html">mine</a><a href="https://other.example.org/">theirs</a>`
	links, err := ExtractLinksFromReader(strings.NewReader(page), "https://blog.example.org/")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if !links[0].IsInternal {
		t.Errorf("same-host link should be internal: %+v", links[0])
	}
	if links[1].IsInternal {
		t.Errorf("other-host link should be external: %+v", links[1])
	}
}

func TestShouldVerifyLink(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"blog.html", true},
		{"../../static/style.css", true},
		{"#section", false},
		{"", false},
		{"mailto:me@example.org", false},
		{"tel:+123", false},
		{"javascript:void(0)", false},
		{"data:image/png;base64,xyz", false},
	}
	for _, tc := range cases {
		if got := ShouldVerifyLink(&Link{URL: tc.url}); got != tc.want {
			t.Errorf("ShouldVerifyLink(%q)=%v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestCheckDirFindsBrokenLinks(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html":        `<a href="blog.html">Blog</a><a href="missing.html">gone</a>`,
		"blog.html":         `<a href="posts/first/hello.html">post</a><img src="posts/first/static/thumb.png">`,
		"posts/first/hello.html": `<a href="../../index.html">home</a>` +
			`<link rel="stylesheet" href="../../static/style.css">` +
			`<img src="static/missing.png">`,
		"posts/first/static/thumb.png": "png",
		"static/style.css":             "body{}",
	})

	res, err := CheckDir(root, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", res.Pages)
	}
	if len(res.Broken) != 2 {
		t.Fatalf("expected 2 broken links, got %+v", res.Broken)
	}
	urls := map[string]bool{}
	for _, b := range res.Broken {
		urls[b.URL] = true
	}
	if !urls["missing.html"] || !urls["static/missing.png"] {
		t.Errorf("unexpected broken set: %+v", res.Broken)
	}
}

func TestCheckDirRootRelativeAndDirTargets(t *testing.T) {
	root := writeSite(t, map[string]string{
		"projects/tooling/about.html": `<a href="/index.html">home</a><a href="/docs/">docs</a><a href="/nodocs/">nope</a>`,
		"index.html":                  "<p>home</p>",
		"docs/index.html":             "<p>docs</p>",
		"nodocs/readme.txt":           "not a page",
	})

	res, err := CheckDir(root, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(res.Broken) != 1 || res.Broken[0].URL != "/nodocs/" {
		t.Fatalf("expected only /nodocs/ broken, got %+v", res.Broken)
	}
}

func TestCheckDirEscapingLinkIsBroken(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html": `<a href="../secret.txt">out</a>`,
	})
	// The file exists outside the root, so the link must still fail.
	if err := os.WriteFile(filepath.Join(filepath.Dir(root), "secret.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := CheckDir(root, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(res.Broken) != 1 {
		t.Fatalf("expected escape to be broken, got %+v", res.Broken)
	}
}

func TestCheckDirIgnorePatterns(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html": `<a href="drafts/wip.html">wip</a><a href="missing.html">gone</a>`,
	})

	res, err := CheckDir(root, []string{"drafts/*"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(res.Broken) != 1 || res.Broken[0].URL != "missing.html" {
		t.Fatalf("expected drafts/* ignored, got %+v", res.Broken)
	}
}

func TestCheckDirCountsExternal(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html": `<a href="https://example.org/">ext</a><a href="index.html">self</a>`,
	})

	res, err := CheckDir(root, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.External != 1 || res.Internal != 1 || res.Links != 2 {
		t.Errorf("unexpected counts: %+v", res)
	}
	if len(res.Broken) != 0 {
		t.Errorf("expected no broken links, got %+v", res.Broken)
	}
}
