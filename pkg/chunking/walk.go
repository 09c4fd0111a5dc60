package chunking

import (
	"os"
	"path/filepath"
	"strings"
)

// Filters layers per-job include/exclude lists (spec §3's Job filter
// fields) under the pipeline's own configured defaults.
type Filters struct {
	ExcludedDirs  []string
	ExcludedFiles []string
	IncludedDirs  []string
	IncludedFiles []string
}

// Merge layers job-level filters under the pipeline's configured defaults;
// job-level entries are appended, never replace the configured baseline.
func (f Filters) Merge(other Filters) Filters {
	return Filters{
		ExcludedDirs:  append(append([]string{}, f.ExcludedDirs...), other.ExcludedDirs...),
		ExcludedFiles: append(append([]string{}, f.ExcludedFiles...), other.ExcludedFiles...),
		IncludedDirs:  append(append([]string{}, f.IncludedDirs...), other.IncludedDirs...),
		IncludedFiles: append(append([]string{}, f.IncludedFiles...), other.IncludedFiles...),
	}
}

// WalkedFile is one file surfaced by Walk, before language detection.
type WalkedFile struct {
	Path    string // relative to the repo root
	AbsPath string
	Size    int64
}

const maxSyntaxFileSize = 500 * 1024

// Walk traverses root, applying include/exclude filters and binary/size
// heuristics, and returns the surviving files in deterministic (lexical)
// order.
func Walk(root string, filters Filters) ([]WalkedFile, error) {
	var out []WalkedFile

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if dirExcluded(rel, filters) {
				return filepath.SkipDir
			}
			return nil
		}

		if !fileAllowed(rel, filters) {
			return nil
		}

		out = append(out, WalkedFile{Path: filepath.ToSlash(rel), AbsPath: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func dirExcluded(rel string, filters Filters) bool {
	base := filepath.Base(rel)
	for _, pattern := range filters.ExcludedDirs {
		if matches(pattern, base) || matches(pattern, rel) {
			return true
		}
	}
	return false
}

// fileAllowed applies exclude patterns first, then, if either include list
// is non-empty, switches to allow-list mode: only files matching an
// IncludedFiles pattern or living under an IncludedDirs prefix survive.
func fileAllowed(rel string, filters Filters) bool {
	base := filepath.Base(rel)

	for _, pattern := range filters.ExcludedFiles {
		if matches(pattern, base) || matches(pattern, rel) {
			return false
		}
	}

	hasIncludeList := len(filters.IncludedFiles) > 0 || len(filters.IncludedDirs) > 0
	if !hasIncludeList {
		return true
	}

	for _, pattern := range filters.IncludedFiles {
		if matches(pattern, base) || matches(pattern, rel) {
			return true
		}
	}
	for _, pattern := range filters.IncludedDirs {
		prefix := strings.TrimSuffix(pattern, "/") + "/"
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

func matches(pattern, candidate string) bool {
	ok, err := filepath.Match(pattern, candidate)
	return err == nil && ok
}

// ReadCandidate reads a walked file's content; the caller applies the
// binary/size heuristics via isProbablyBinary / the MaxFileSizeBytes ceiling
// before invoking the splitter.
func ReadCandidate(f WalkedFile) ([]byte, error) {
	return os.ReadFile(f.AbsPath)
}
