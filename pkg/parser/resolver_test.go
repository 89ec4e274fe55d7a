// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"testing"

	"github.com/kraklabs/cie/pkg/isgl1"
)

func TestCallResolver_ResolvesSamePackageCall(t *testing.T) {
	r := NewCallResolver()
	r.Index([]IndexedEntity{
		{Key: "go:function:Add:pkg_foo_bar_go:1-3", Name: "Add", FilePath: "pkg/foo/bar.go", Language: isgl1.LanguageGo},
	}, nil)

	calls := []UnresolvedCall{
		{CallerKey: "caller-key", CalleeName: "Add", FilePath: "pkg/foo/main.go"},
	}
	edges := r.ResolveCalls(map[string]string{"caller-key": "caller-key"}, calls)
	if len(edges) != 1 {
		t.Fatalf("expected 1 resolved edge, got %d", len(edges))
	}
	if edges[0].ToKey != "go:function:Add:pkg_foo_bar_go:1-3" {
		t.Errorf("unexpected resolved target: %q", edges[0].ToKey)
	}
	if edges[0].Kind != isgl1.EdgeCalls {
		t.Errorf("expected EdgeCalls, got %s", edges[0].Kind)
	}
}

func TestCallResolver_UnresolvedStaysUnresolved(t *testing.T) {
	r := NewCallResolver()
	r.Index([]IndexedEntity{
		{Key: "go:function:Add:pkg_foo_bar_go:1-3", Name: "Add", FilePath: "pkg/foo/bar.go", Language: isgl1.LanguageGo},
	}, nil)

	calls := []UnresolvedCall{
		{CallerKey: "caller-key", CalleeName: "DoesNotExist", FilePath: "pkg/foo/main.go"},
	}
	edges := r.ResolveCalls(map[string]string{"caller-key": "caller-key"}, calls)
	if len(edges) != 0 {
		t.Errorf("expected no resolved edges, got %d", len(edges))
	}
}

func TestCallResolver_QualifiedCallRequiresImport(t *testing.T) {
	r := NewCallResolver()
	r.Index([]IndexedEntity{
		{Key: "go:function:Helper:pkg_util_helper_go:1-3", Name: "Helper", FilePath: "pkg/util/helper.go", Language: isgl1.LanguageGo},
	}, map[string]string{"util": "example.com/proj/pkg/util"})

	calls := []UnresolvedCall{
		{CallerKey: "caller-key", CalleeName: "util.Helper", FilePath: "pkg/util/helper.go"},
	}
	edges := r.ResolveCalls(map[string]string{"caller-key": "caller-key"}, calls)
	if len(edges) != 1 {
		t.Fatalf("expected 1 resolved edge via qualified import, got %d", len(edges))
	}
}

func TestSimpleName_StripsReceiverPrefix(t *testing.T) {
	if simpleName("Type.Method") != "Method" {
		t.Errorf("simpleName did not strip receiver prefix")
	}
	if simpleName("PlainFunc") != "PlainFunc" {
		t.Errorf("simpleName altered a name with no receiver prefix")
	}
}
