package locate

import (
	"os"
	"path/filepath"
	"strings"
)

const DefaultAncestors = 3

var DefaultBuildDirs = []string{"build-debug", "build-release", "bin/Debug", "bin/Release"}

// Layout describes where build outputs live relative to a search root.
type Layout struct {
	BuildDirs []string
	Ancestors int
}

func DefaultLayout() Layout {
	return Layout{
		BuildDirs: append([]string(nil), DefaultBuildDirs...),
		Ancestors: DefaultAncestors,
	}
}

// SearchRoots lists the existing directories to probe for a relative engine
// path: baseDir and its build dirs, then each of up to layout.Ancestors parents
// followed by their build dirs. Entries are absolute and unique, compared
// case-insensitively.
func SearchRoots(baseDir string, layout Layout) []string {
	base := strings.TrimSpace(baseDir)
	if base == "" {
		return nil
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil
	}

	roots := make([]string, 0, 4*(layout.Ancestors+1))
	seen := map[string]struct{}{}
	add := func(dir string) {
		dir = filepath.Clean(dir)
		key := strings.ToLower(dir)
		if _, ok := seen[key]; ok {
			return
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return
		}
		seen[key] = struct{}{}
		roots = append(roots, dir)
	}
	addWithBuildDirs := func(dir string) {
		add(dir)
		for _, sub := range layout.BuildDirs {
			if strings.TrimSpace(sub) == "" {
				continue
			}
			add(filepath.Join(dir, filepath.FromSlash(sub)))
		}
	}

	addWithBuildDirs(abs)
	current := abs
	for i := 0; i < layout.Ancestors; i++ {
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
		addWithBuildDirs(current)
	}
	return roots
}
