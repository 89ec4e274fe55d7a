// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"context"
	"testing"

	"github.com/kraklabs/cie/pkg/isgl1"
)

func TestDetectLanguage_ByExtension(t *testing.T) {
	tests := []struct {
		path string
		want isgl1.Language
	}{
		{"pkg/foo/bar.go", isgl1.LanguageGo},
		{"src/app.tsx", isgl1.LanguageTypeScript},
		{"src/app.ts", isgl1.LanguageTypeScript},
		{"src/app.jsx", isgl1.LanguageJavaScript},
		{"src/app.js", isgl1.LanguageJavaScript},
		{"scripts/build.py", isgl1.LanguagePython},
		{"api/service.proto", isgl1.LanguageProtobuf},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			spec, ok := detectLanguage(tt.path, nil)
			if !ok {
				t.Fatalf("expected language to be detected for %s", tt.path)
			}
			if spec.lang != tt.want {
				t.Errorf("detectLanguage(%s) = %s, want %s", tt.path, spec.lang, tt.want)
			}
		})
	}
}

func TestDetectLanguage_UnsupportedExtensionFallsBackToSniff(t *testing.T) {
	_, ok := detectLanguage("Makefile", []byte("all:\n\techo hi\n"))
	if ok {
		t.Error("expected Makefile with no matching sniff pattern to be unsupported")
	}
}

func TestDetectLanguage_SniffsGoPackageClause(t *testing.T) {
	spec, ok := detectLanguage("noext", []byte("package main\n\nfunc main() {}\n"))
	if !ok {
		t.Fatal("expected sniff to detect go")
	}
	if spec.lang != isgl1.LanguageGo {
		t.Errorf("sniffed language = %s, want go", spec.lang)
	}
}

func TestIsTestName(t *testing.T) {
	tests := []struct {
		name string
		path string
		lang isgl1.Language
		want bool
	}{
		{"TestFoo", "pkg/foo_test.go", isgl1.LanguageGo, true},
		{"Foo", "pkg/foo_test.go", isgl1.LanguageGo, false},
		{"TestFoo", "pkg/foo.go", isgl1.LanguageGo, false},
		{"test_bar", "tests/test_bar.py", isgl1.LanguagePython, true},
		{"bar", "tests/test_bar.py", isgl1.LanguagePython, true},
		{"runSuite", "src/app.spec.ts", isgl1.LanguageTypeScript, true},
		{"runSuite", "src/app.ts", isgl1.LanguageTypeScript, false},
	}
	for _, tt := range tests {
		if got := isTestName(tt.name, tt.path, tt.lang); got != tt.want {
			t.Errorf("isTestName(%q, %q, %s) = %t, want %t", tt.name, tt.path, tt.lang, got, tt.want)
		}
	}
}

func TestVisibilityFor_Go(t *testing.T) {
	if visibilityFor(isgl1.LanguageGo, "Exported") != isgl1.VisibilityPublic {
		t.Error("expected uppercase Go identifier to be public")
	}
	if visibilityFor(isgl1.LanguageGo, "unexported") != isgl1.VisibilityPrivate {
		t.Error("expected lowercase Go identifier to be private")
	}
}

func TestParseFile_Go_ExtractsFunctions(t *testing.T) {
	content := []byte(`package main

func Add(a, b int) int {
	return a + b
}

func main() {
	Add(1, 2)
}
`)
	p := NewParser(nil)
	result, err := p.ParseFile(context.Background(), FileInfo{Path: "main.go", Language: isgl1.LanguageGo}, content)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if result.Skipped {
		t.Fatal("expected go file to be supported")
	}
	if len(result.Entities) == 0 {
		t.Error("expected at least one extracted entity")
	}
	if result.PackageName != "main" {
		t.Errorf("PackageName = %q, want %q", result.PackageName, "main")
	}
}

func TestParseFile_UnsupportedLanguage_SkipsGracefully(t *testing.T) {
	p := NewParser(nil)
	result, err := p.ParseFile(context.Background(), FileInfo{Path: "README.md"}, []byte("# hello"))
	if err != nil {
		t.Fatalf("ParseFile should not error on unsupported language: %v", err)
	}
	if !result.Skipped {
		t.Error("expected result.Skipped to be true for unsupported language")
	}
}
