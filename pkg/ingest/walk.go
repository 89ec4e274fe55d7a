// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/cie/pkg/isgl1"
	"github.com/kraklabs/cie/pkg/parser"
)

// DefaultMaxFileSizeBytes is the size above which a file is skipped
// rather than parsed.
const DefaultMaxFileSizeBytes = 2 * 1024 * 1024 // 2 MiB

// DefaultExcludePatterns are excluded from every walk regardless of
// user-supplied excludes. Exclusion is a substring match on the full
// relative path, not a glob, so these are plain path fragments.
var DefaultExcludePatterns = []string{
	".git/", "node_modules/", "vendor/", "dist/",
	"build/", "target/", "__pycache__/",
}

// vcsMarkers identify a directory as the root of a nested repository.
var vcsMarkers = []string{".git", ".hg", ".svn"}

// walkFile is one file discovered by walkTree, tagged with its detected
// language ahead of parsing.
type walkFile struct {
	Info     parser.FileInfo
	Language isgl1.Language
	Known    bool
}

// walkTree walks rootPath and returns every file that passes the
// exclusion/inclusion pattern and size-limit filters. Directories that
// are themselves a nested repository root (contain a VCS marker and are
// not rootPath) are not descended into; per-file skip reasons are
// tallied into skipReasons.
//
// Exclusion patterns are substring matches against the full relative
// path. Inclusion patterns, when any are given, are globs: a file that
// survives exclusion but matches none of them is still skipped.
func walkTree(rootPath string, excludePatterns, includeGlobs []string, maxFileSize int64, logger *slog.Logger) ([]walkFile, map[string]int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSizeBytes
	}
	allExcludes := append(append([]string{}, DefaultExcludePatterns...), excludePatterns...)

	var files []walkFile
	skipReasons := make(map[string]int)

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("ingest.walk.error", "path", path, "err", err)
			return nil
		}

		relPath, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if relPath != "." && isNestedRepoRoot(path) {
				skipReasons["nested_repository"]++
				return filepath.SkipDir
			}
			if matchesAnyExclude(relPath, allExcludes) {
				skipReasons["excluded_dir"]++
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAnyExclude(relPath, allExcludes) {
			skipReasons["excluded"]++
			return nil
		}

		if len(includeGlobs) > 0 && !matchesAnyGlob(relPath, includeGlobs) {
			skipReasons["not_included"]++
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if info.Size() > maxFileSize {
			skipReasons["too_large"]++
			logger.Warn("ingest.walk.skip_large_file", "path", relPath, "size", info.Size(), "limit", maxFileSize)
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			skipReasons["unreadable"]++
			logger.Warn("ingest.walk.unreadable", "path", relPath, "err", readErr)
			return nil
		}

		lang, known := parser.DetectLanguage(relPath, content)

		files = append(files, walkFile{
			Info: parser.FileInfo{
				Path:     filepath.ToSlash(relPath),
				FullPath: path,
				Size:     info.Size(),
				Language: lang,
			},
			Language: lang,
			Known:    known,
		})
		return nil
	})

	return files, skipReasons, err
}

// isNestedRepoRoot reports whether dir directly contains a VCS marker.
func isNestedRepoRoot(dir string) bool {
	for _, marker := range vcsMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// matchesAnyExclude reports whether path contains any pattern as a plain
// substring, per the exclusion contract ("substring match on full path").
func matchesAnyExclude(path string, patterns []string) bool {
	normalized := filepath.ToSlash(path)
	for _, p := range patterns {
		if p != "" && strings.Contains(normalized, filepath.ToSlash(p)) {
			return true
		}
	}
	return false
}

func matchesAnyGlob(path string, globs []string) bool {
	normalized := filepath.ToSlash(path)
	for _, g := range globs {
		if matchesGlob(normalized, g) {
			return true
		}
	}
	return false
}

// matchesGlob supports *, **, and a bare dir/** suffix form, covering the
// inclusion patterns this package actually needs (full character-class
// glob semantics belong to a dedicated glob library, not hand-rolled
// here).
func matchesGlob(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		parts := strings.Split(path, "/")
		for i := range parts {
			subpath := strings.Join(parts[i:], "/")
			if subpath == prefix || strings.HasPrefix(subpath, prefix+"/") {
				return true
			}
		}
		return false
	}

	if strings.HasPrefix(pattern, "*.") && !strings.Contains(pattern, "/") {
		return strings.HasSuffix(path, pattern[1:])
	}

	ok, err := filepath.Match(pattern, path)
	if err == nil && ok {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		subpath := strings.Join(parts[i:], "/")
		if ok, err := filepath.Match(pattern, subpath); err == nil && ok {
			return true
		}
	}
	return false
}
