package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	cerrors "github.com/alescoulie/sitegen/internal/content/errors"
	"github.com/alescoulie/sitegen/internal/logfields"
)

// Skipped records a content entry that was discovered but could not be
// parsed. The build reports these as warnings without aborting.
type Skipped struct {
	Dir string
	Err error
}

// CollectPosts walks postsRoot and parses every <dir>/post.json it finds.
// A missing posts root is an error: the generator must fail loudly rather
// than publish an empty site. Directories without a post.json are ignored,
// and entries with broken metadata are returned in skipped.
func CollectPosts(postsRoot string) (posts []Post, skipped []Skipped, err error) {
	info, statErr := os.Stat(postsRoot)
	if statErr != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", cerrors.ErrPostsDirMissing, postsRoot)
	}

	entries, readErr := os.ReadDir(postsRoot)
	if readErr != nil {
		return nil, nil, fmt.Errorf("reading posts directory %s: %w", postsRoot, readErr)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metaPath := filepath.Join(postsRoot, entry.Name(), MetaFileName)
		if _, statErr := os.Stat(metaPath); statErr != nil {
			slog.Debug("Skipping directory without post metadata", logfields.Dir(entry.Name()))
			continue
		}
		post, parseErr := ParsePost(metaPath, postsRoot)
		if parseErr != nil {
			slog.Warn("Skipping post with broken metadata", logfields.Dir(entry.Name()), logfields.Error(parseErr))
			skipped = append(skipped, Skipped{Dir: entry.Name(), Err: parseErr})
			continue
		}
		posts = append(posts, post)
	}
	return posts, skipped, nil
}

// CollectProjects walks projectsRoot and parses every <dir>/proj.json. A
// missing projects root is not an error: sites without a portfolio section
// simply have no project pages.
func CollectProjects(projectsRoot string) (projects []Project, skipped []Skipped, err error) {
	info, statErr := os.Stat(projectsRoot)
	if statErr != nil || !info.IsDir() {
		slog.Debug("No projects directory, skipping portfolio", logfields.Dir(projectsRoot))
		return nil, nil, nil
	}

	entries, readErr := os.ReadDir(projectsRoot)
	if readErr != nil {
		return nil, nil, fmt.Errorf("reading projects directory %s: %w", projectsRoot, readErr)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metaPath := filepath.Join(projectsRoot, entry.Name(), ProjectMetaFileName)
		if _, statErr := os.Stat(metaPath); statErr != nil {
			slog.Debug("Skipping directory without project metadata", logfields.Dir(entry.Name()))
			continue
		}
		proj, parseErr := ParseProject(metaPath, projectsRoot)
		if parseErr != nil {
			slog.Warn("Skipping project with broken metadata", logfields.Dir(entry.Name()), logfields.Error(parseErr))
			skipped = append(skipped, Skipped{Dir: entry.Name(), Err: parseErr})
			continue
		}
		projects = append(projects, proj)
	}
	return projects, skipped, nil
}

// SortPostsByDate orders posts chronologically, newest first when newestFirst
// is set. Ties fall back to the entry directory name so repeated builds
// produce identical output.
func SortPostsByDate(posts []Post, newestFirst bool) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			if newestFirst {
				return posts[i].Date.After(posts[j].Date)
			}
			return posts[i].Date.Before(posts[j].Date)
		}
		return posts[i].Dir < posts[j].Dir
	})
}

// SortProjectsByDate orders projects oldest first, with the directory name as
// the deterministic tie break.
func SortProjectsByDate(projects []Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].Date.Equal(projects[j].Date) {
			return projects[i].Date.Before(projects[j].Date)
		}
		return projects[i].Dir < projects[j].Dir
	})
}

// PostsForProject filters posts belonging to the project, ordered oldest
// first the way project pages list them.
func PostsForProject(proj Project, posts []Post) []Post {
	var matched []Post
	for _, post := range posts {
		if proj.Contains(post) {
			matched = append(matched, post)
		}
	}
	SortPostsByDate(matched, false)
	return matched
}

// Tags returns every tag used by the posts, sorted, with the posts carrying
// each tag ordered newest first.
func Tags(posts []Post) (names []string, byTag map[string][]Post) {
	byTag = make(map[string][]Post)
	for _, post := range posts {
		for _, tag := range post.Tags {
			byTag[tag] = append(byTag[tag], post)
		}
	}
	names = make([]string, 0, len(byTag))
	for tag := range byTag {
		names = append(names, tag)
		SortPostsByDate(byTag[tag], true)
	}
	sort.Strings(names)
	return names, byTag
}
