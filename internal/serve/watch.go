package serve

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alescoulie/sitegen/internal/logfields"
)

// debounceWindow batches bursts of filesystem events (editor save dances,
// git checkouts) into a single rebuild.
const debounceWindow = 300 * time.Millisecond

// addTreeRecursive registers dir and every subdirectory with the watcher.
// fsnotify only watches single directories, so new subdirectories created
// later are added as their Create events arrive.
func addTreeRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch failed for directory", logfields.Dir(path), logfields.Error(err))
		}
		return nil
	})
}

func ignoredDir(name string) bool {
	switch name {
	case ".git", ".sitegen", "node_modules":
		return true
	}
	return false
}

// shouldIgnoreEvent filters events that never affect output: editor swap and
// backup files, hidden files, and chmod-only notifications.
func shouldIgnoreEvent(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Chmod == fsnotify.Chmod && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	base := filepath.Base(ev.Name)
	if base == "" {
		return true
	}
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") || strings.HasSuffix(base, ".tmp") {
		return true
	}
	// Editors write "4913"-style probe files on some platforms; they are
	// deleted immediately and would only cause a wasted rebuild.
	if strings.HasPrefix(base, "4913") {
		return true
	}
	return false
}

// watchRoots deduplicates the input trees for watching: a root nested inside
// another watched root is dropped, since recursive registration already
// covers it.
func watchRoots(roots []string) []string {
	cleaned := make([]string, 0, len(roots))
	for _, r := range roots {
		if r == "" {
			continue
		}
		cleaned = append(cleaned, filepath.Clean(r))
	}
	out := make([]string, 0, len(cleaned))
	for i, r := range cleaned {
		nested := false
		for j, other := range cleaned {
			if i == j {
				continue
			}
			if r == other && j < i {
				nested = true
				break
			}
			if strings.HasPrefix(r, other+string(filepath.Separator)) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, r)
		}
	}
	return out
}
