// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package isgl1

import (
	"testing"
	"time"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"simple", "pkg/isgl1/key.go", "pkg_isgl1_key_go"},
		{"leading dot slash", "./pkg/isgl1/key.go", "pkg_isgl1_key_go"},
		{"leading slash", "/pkg/isgl1/key.go", "pkg_isgl1_key_go"},
		{"no extension", "Makefile", "Makefile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizePath(tt.path); got != tt.want {
				t.Errorf("SanitizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDesanitizePath(t *testing.T) {
	tests := []struct {
		name      string
		sanitized string
		want      string
	}{
		{"go file", "pkg_isgl1_key_go", "pkg/isgl1/key.go"},
		{"tsx not js", "src_components_Button_tsx", "src/components/Button.tsx"},
		{"jsx not js", "src_App_jsx", "src/App.jsx"},
		{"unknown extension falls back verbatim", "Makefile", "Makefile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DesanitizePath(tt.sanitized); got != tt.want {
				t.Errorf("DesanitizePath(%q) = %q, want %q", tt.sanitized, got, tt.want)
			}
		})
	}
}

func TestGenerateLineKey_Deterministic(t *testing.T) {
	lines := LineRange{Start: 10, End: 20}
	k1, err := GenerateLineKey(LanguageGo, KindFunction, "DoThing", "pkg/foo/bar.go", lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k2, err := GenerateLineKey(LanguageGo, KindFunction, "DoThing", "pkg/foo/bar.go", lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k1 != k2 {
		t.Errorf("GenerateLineKey should be deterministic: got %q and %q", k1, k2)
	}
	want := "go:function:DoThing:pkg_foo_bar_go:10-20"
	if k1 != want {
		t.Errorf("GenerateLineKey = %q, want %q", k1, want)
	}
}

func TestGenerateLineKey_RejectsEmptyName(t *testing.T) {
	_, err := GenerateLineKey(LanguageGo, KindFunction, "", "pkg/foo/bar.go", LineRange{Start: 1, End: 2})
	if err == nil {
		t.Error("expected error for empty name")
	}
}

func TestGenerateLineKey_RejectsEmptyPath(t *testing.T) {
	_, err := GenerateLineKey(LanguageGo, KindFunction, "DoThing", "", LineRange{Start: 1, End: 2})
	if err == nil {
		t.Error("expected error for empty path")
	}
}

func TestGenerateLineKey_RejectsInvertedRange(t *testing.T) {
	_, err := GenerateLineKey(LanguageGo, KindFunction, "DoThing", "pkg/foo/bar.go", LineRange{Start: 20, End: 10})
	if err == nil {
		t.Error("expected error for start > end")
	}
}

func TestGenerateHashKey_DifferentTimestampsDoNotCollide(t *testing.T) {
	t0 := time.Unix(0, 1)
	t1 := time.Unix(0, 2)
	k1, err := GenerateHashKey("pkg/foo/bar.go", "NewThing", KindFunction, t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k2, err := GenerateHashKey("pkg/foo/bar.go", "NewThing", KindFunction, t1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k1 == k2 {
		t.Errorf("GenerateHashKey should differ across creation timestamps: both got %q", k1)
	}
}

func TestGenerateHashKey_RejectsEmptyInputs(t *testing.T) {
	now := time.Unix(0, 0)
	if _, err := GenerateHashKey("", "NewThing", KindFunction, now); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := GenerateHashKey("pkg/foo/bar.go", "", KindFunction, now); err == nil {
		t.Error("expected error for empty name")
	}
}
