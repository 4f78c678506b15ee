package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"soundpack/internal/services"
)

type matcher struct {
	globs []glob.Glob
}

func newMatcher(patterns []string) (*matcher, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.wav"}
	}
	m := &matcher{globs: make([]glob.Glob, 0, len(patterns))}
	for _, pattern := range patterns {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pack", "compile include", fmt.Sprintf("pattern %q", pattern), err)
		}
		m.globs = append(m.globs, compiled)
	}
	return m, nil
}

func (m *matcher) Match(name string) bool {
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// discover lists the regular files directly inside dir whose names match.
// Subdirectories are not descended into.
func discover(dir string, m *matcher) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, services.WrapIO("pack", "discover", dir, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "pack", "discover", dir+" is not a directory", nil)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.WrapIO("pack", "discover", dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !m.Match(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !entry.Type().IsRegular() {
			// follow symlinks to regular files
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}
