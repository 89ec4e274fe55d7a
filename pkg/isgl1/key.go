// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package isgl1

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// knownExtensions is the closed set of file extensions path reconstruction
// probes as suffixes. Longer extensions that share a prefix with a shorter
// one (ts/tsx, js/jsx) are listed first so the longer match wins.
var knownExtensions = []string{
	"tsx", "jsx", "ts", "js", "go", "py", "rs", "java", "rb", "proto",
}

// SanitizePath normalizes a file path and replaces directory separators and
// dots with underscores, producing a string safe to embed in an ISGL1 key.
func SanitizePath(path string) string {
	normalized := filepath.ToSlash(filepath.Clean(path))
	normalized = strings.TrimPrefix(normalized, "./")
	normalized = strings.TrimPrefix(normalized, "/")
	replacer := strings.NewReplacer("/", "_", ".", "_")
	return replacer.Replace(normalized)
}

// DesanitizePath attempts to reconstruct a file path from a sanitized
// string produced by SanitizePath. The extension is recovered by probing
// the closed set of known extensions as suffixes; once recovered, the
// remaining underscores are treated as directory separators. If no known
// extension matches, the input is returned verbatim.
func DesanitizePath(sanitized string) string {
	for _, ext := range knownExtensions {
		suffix := "_" + ext
		if strings.HasSuffix(sanitized, suffix) {
			stem := strings.TrimSuffix(sanitized, suffix)
			return strings.ReplaceAll(stem, "_", "/") + "." + ext
		}
	}
	return sanitized
}

// GenerateLineKey produces the line-based ISGL1 key for an entity that
// exists in present source:
//
//	{language}:{kind}:{name}:{sanitized_path}:{start}-{end}
//
// GenerateLineKey is pure: identical inputs produce an identical key on
// every platform and every call.
func GenerateLineKey(language Language, kind EntityKind, name, filePath string, lines LineRange) (string, error) {
	if name == "" {
		return "", errors.New("isgl1: empty name")
	}
	if filePath == "" {
		return "", errors.New("isgl1: empty file path")
	}
	if !lines.Valid() {
		return "", fmt.Errorf("isgl1: invalid line range (start=%d, end=%d)", lines.Start, lines.End)
	}
	sanitized := SanitizePath(filePath)
	return fmt.Sprintf("%s:%s:%s:%s:%d-%d", language, kind, name, sanitized, lines.Start, lines.End), nil
}

// GenerateHashKey produces the hash-based ISGL1 key for a planned Create
// with no present line range:
//
//	{sanitized_path}-{name}-{kind}-{short_hash}
//
// short_hash is an 8-hex-character prefix of sha256(path|name|kind|created_at)
// so that concurrent Creates of the same (path, name, kind) do not collide.
func GenerateHashKey(filePath, name string, kind EntityKind, createdAt time.Time) (string, error) {
	if name == "" {
		return "", errors.New("isgl1: empty name")
	}
	if filePath == "" {
		return "", errors.New("isgl1: empty file path")
	}
	sanitized := SanitizePath(filePath)
	seed := fmt.Sprintf("%s|%s|%s|%d", filePath, name, kind, createdAt.UnixNano())
	sum := sha256.Sum256([]byte(seed))
	shortHash := hex.EncodeToString(sum[:4]) // 4 bytes = 8 hex chars
	return fmt.Sprintf("%s-%s-%s-%s", sanitized, name, kind, shortHash), nil
}
