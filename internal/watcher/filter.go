package watcher

import (
	"path/filepath"
	"strings"
)

// Filter decides which drop folder files count as submittable artifacts.
type Filter struct {
	AllowedExtensions []string
	IgnorePatterns    []string
}

// DefaultFilter accepts every extension but skips editor temp files and
// partial downloads.
func DefaultFilter() Filter {
	return Filter{
		AllowedExtensions: []string{}, // Empty means allow all file types
		IgnorePatterns:    []string{".tmp", ".swp", ".part", ".DS_Store", "~"},
	}
}

// Accepts checks a file path against the filter.
func (f *Filter) Accepts(filePath string) bool {
	name := filepath.Base(filePath)
	if strings.HasPrefix(name, ".") {
		return false
	}
	for _, pattern := range f.IgnorePatterns {
		if strings.HasSuffix(name, pattern) {
			return false
		}
	}
	if len(f.AllowedExtensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, allowed := range f.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
