// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kraklabs/cie/pkg/isgl1"
	"github.com/kraklabs/cie/pkg/store"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestClassifyFile(t *testing.T) {
	cases := map[string]bool{
		"pkg/foo/bar.go":       false,
		"pkg/foo/bar_test.go":  true,
		"pkg/foo/test_bar.py":  true,
		"pkg/foo/bar.test.ts":  true,
		"pkg/foo/bar.spec.ts":  true,
		"tests/fixtures/a.go":  true,
		"test/fixtures/a.go":   true,
		"pkg/testdata/a.go":    false,
	}
	for path, want := range cases {
		if got := classifyFile(path); got != want {
			t.Errorf("classifyFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestEntityClass_TestFunctionAlwaysTest(t *testing.T) {
	if entityClass(false, isgl1.KindTestFunction) != isgl1.TestImplementation {
		t.Error("expected KindTestFunction to always classify as TestImplementation")
	}
	if entityClass(false, isgl1.KindFunction) != isgl1.CodeImplementation {
		t.Error("expected plain function in non-test file to classify as CodeImplementation")
	}
}

func TestMatchesGlob(t *testing.T) {
	cases := []struct {
		path, pattern string
		want          bool
	}{
		{"vendor/foo/bar.go", "vendor/**", true},
		{"pkg/vendor/bar.go", "vendor/**", true},
		{"pkg/foo.go", "*.go", true},
		{"pkg/foo.py", "*.go", false},
		{"node_modules/a/b.js", "node_modules/**", true},
	}
	for _, c := range cases {
		if got := matchesGlob(c.path, c.pattern); got != c.want {
			t.Errorf("matchesGlob(%q, %q) = %v, want %v", c.path, c.pattern, got, c.want)
		}
	}
}

func TestWalkTree_SkipsExcludedAndNestedRepo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, dir, "vendor/dep/dep.go", "package dep\n")
	writeFile(t, dir, "nested/.git/HEAD", "ref: refs/heads/main\n")
	writeFile(t, dir, "nested/inner.go", "package inner\n")

	files, skipReasons, err := walkTree(dir, nil, nil, DefaultMaxFileSizeBytes, nil)
	if err != nil {
		t.Fatalf("walkTree: %v", err)
	}

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Info.Path)
	}
	for _, p := range paths {
		if p == "vendor/dep/dep.go" {
			t.Error("expected vendor/ to be excluded")
		}
		if p == "nested/inner.go" {
			t.Error("expected nested repository to be skipped")
		}
	}
	if skipReasons["nested_repository"] == 0 {
		t.Error("expected nested_repository skip reason to be recorded")
	}
}

func TestWalkTree_ExcludeIsSubstringNotGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/generated/thing.go", "package generated\n")
	writeFile(t, dir, "src/normal/thing.go", "package normal\n")

	files, _, err := walkTree(dir, []string{"generated"}, nil, DefaultMaxFileSizeBytes, nil)
	if err != nil {
		t.Fatalf("walkTree: %v", err)
	}

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Info.Path)
	}
	for _, p := range paths {
		if p == "src/generated/thing.go" {
			t.Error("expected substring exclude pattern 'generated' to match src/generated/thing.go")
		}
	}
	found := false
	for _, p := range paths {
		if p == "src/normal/thing.go" {
			found = true
		}
	}
	if !found {
		t.Error("expected src/normal/thing.go to survive the exclude")
	}
}

func TestWalkTree_IncludeGlobsRestrictToMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "README.md", "# readme\n")

	files, skipReasons, err := walkTree(dir, nil, []string{"*.go"}, DefaultMaxFileSizeBytes, nil)
	if err != nil {
		t.Fatalf("walkTree: %v", err)
	}

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Info.Path)
	}
	if len(paths) != 1 || paths[0] != "main.go" {
		t.Errorf("expected only main.go to survive --include '*.go', got %v", paths)
	}
	if skipReasons["not_included"] == 0 {
		t.Error("expected not_included skip reason for README.md")
	}
}

func TestStreamer_Run_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.go", `package greet

func Hello() string {
	return helper()
}

func helper() string {
	return "hi"
}

func TestHello(t *testing.T) {}
`)

	st := store.NewMemStore()
	s := NewStreamer(Config{RootPath: dir, ParseWorkers: 2}, st)

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FilesParsed != 1 {
		t.Errorf("expected 1 file parsed, got %d", stats.FilesParsed)
	}
	if stats.EntitiesFound == 0 {
		t.Error("expected at least one entity to be found")
	}

	entities, err := st.GetAllEntities(context.Background())
	if err != nil {
		t.Fatalf("GetAllEntities: %v", err)
	}
	if len(entities) == 0 {
		t.Fatal("expected entities written to the store")
	}
	for _, e := range entities {
		if e.Temporal != isgl1.Indexed() {
			t.Errorf("expected entity %s to be Indexed after ingestion, got %s", e.Key, e.Temporal)
		}
	}
}

func TestStats_SnapshotIsIndependentCopy(t *testing.T) {
	s := newStats()
	s.addSkip("too_large", 2)
	snap := s.Snapshot()
	snap.SkipReasons["too_large"] = 999
	if s.SkipReasons["too_large"] != 2 {
		t.Error("mutating a snapshot's map must not affect the live Stats")
	}
}
