package linkcheck

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/alescoulie/sitegen/internal/util/sets"
)

// BrokenLink is one internal link whose target does not exist.
type BrokenLink struct {
	Page string // page path relative to the checked root, slash-separated
	URL  string // the link as written in the page
	Tag  string
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s: %s (<%s>)", b.Page, b.URL, b.Tag)
}

// Result summarizes one CheckDir run.
type Result struct {
	Pages    int
	Links    int
	Internal int
	External int
	Broken   []BrokenLink
}

// CheckDir extracts links from every .html file under root and verifies that
// internal targets resolve to files under root. Links matching one of the
// ignore glob patterns are skipped. External links are counted only.
func CheckDir(root string, ignore []string) (*Result, error) {
	res := &Result{}
	// Most pages link the same handful of targets (nav, index, stylesheet);
	// remember the ones that already resolved.
	verified := sets.New[string]()

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		pageRel := filepath.ToSlash(rel)
		res.Pages++

		links, err := ExtractLinks(p, "")
		if err != nil {
			return fmt.Errorf("extract links from %s: %w", pageRel, err)
		}

		for _, link := range links {
			res.Links++
			if !link.IsInternal {
				res.External++
				continue
			}
			res.Internal++
			if !ShouldVerifyLink(link) || matchesIgnore(link.URL, ignore) {
				continue
			}
			if !targetExists(root, pageRel, link.URL, verified) {
				res.Broken = append(res.Broken, BrokenLink{Page: pageRel, URL: link.URL, Tag: link.Tag})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// matchesIgnore reports whether the link URL matches any ignore glob.
func matchesIgnore(raw string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, err := path.Match(pat, raw); err == nil && ok {
			return true
		}
	}
	return false
}

// targetExists resolves an internal link relative to its page and checks the
// target on disk. A directory target counts as existing only when it holds an
// index.html, mirroring how file servers resolve it. Targets that resolved
// once are taken from the verified set.
func targetExists(root, pageRel, raw string, verified sets.Set[string]) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	clean := u.Path
	if clean == "" {
		// Query or fragment against the current page.
		return true
	}

	var target string
	if strings.HasPrefix(clean, "/") {
		target = filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	} else {
		target = filepath.Join(root, filepath.Dir(filepath.FromSlash(pageRel)), filepath.FromSlash(clean))
	}

	// A link must not climb out of the site root.
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	if verified.Has(target) {
		return true
	}

	info, err := os.Stat(target)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(target, "index.html")); err != nil {
			return false
		}
	}
	verified.Add(target)
	return true
}
