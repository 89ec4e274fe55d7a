// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kraklabs/cie/pkg/isgl1"
	"github.com/kraklabs/cie/pkg/store"
)

func seedGraph(t *testing.T, st store.Store) (a, b, c isgl1.Entity) {
	t.Helper()
	now := time.Now()
	mk := func(name, file string, cls isgl1.EntityClass) isgl1.Entity {
		e := isgl1.Entity{
			Key: "go:function:" + name + ":" + isgl1.SanitizePath(file) + ":1-3",
			Signature: isgl1.InterfaceSignature{
				Kind: isgl1.KindFunction, Name: name, FilePath: file,
				Lines: isgl1.LineRange{Start: 1, End: 3}, Language: isgl1.LanguageGo,
			},
			CurrentCode: "func " + name + "() {}",
			Temporal:    isgl1.Indexed(),
			Class:       cls,
			CreatedAt:   now,
			UpdatedAt:   now,
			Provenance:  "ingest",
		}
		if err := st.InsertEntity(context.Background(), e); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
		return e
	}

	a = mk("A", "src/a.go", isgl1.CodeImplementation)
	b = mk("B", "src/b.go", isgl1.CodeImplementation)
	c = mk("C", "src/c.go", isgl1.CodeImplementation)

	edges := []isgl1.Edge{
		{FromKey: a.Key, ToKey: b.Key, Kind: isgl1.EdgeCalls},
		{FromKey: a.Key, ToKey: c.Key, Kind: isgl1.EdgeCalls},
		{FromKey: b.Key, ToKey: c.Key, Kind: isgl1.EdgeCalls},
	}
	if err := st.InsertEdgesBatch(context.Background(), edges); err != nil {
		t.Fatalf("insert edges: %v", err)
	}
	return a, b, c
}

func TestExport_Level1_Adjacency(t *testing.T) {
	st := store.NewMemStore()
	a, b, c := seedGraph(t, st)

	ex := NewExporter(st, nil)
	dir := t.TempDir()
	outDir, err := ex.Export(context.Background(), Options{Level: Level1, OutBase: filepath.Join(dir, "out")})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(outDir, "level1.json"))
	if err != nil {
		t.Fatalf("read level1.json: %v", err)
	}
	var rows []Level1Entity
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	byKey := make(map[string]Level1Entity, len(rows))
	for _, r := range rows {
		byKey[r.Key] = r
	}
	if len(byKey) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(byKey))
	}

	fwdA := byKey[a.Key].ForwardDeps
	if len(fwdA) != 2 {
		t.Errorf("expected A to forward to 2 entities, got %v", fwdA)
	}
	revC := byKey[c.Key].ReverseDeps
	if len(revC) != 2 {
		t.Errorf("expected C to have 2 reverse deps, got %v", revC)
	}
	_ = b
}

func TestExport_DualOutput_Separation(t *testing.T) {
	st := store.NewMemStore()
	now := time.Now()
	insert := func(name string, cls isgl1.EntityClass) {
		e := isgl1.Entity{
			Key: "go:function:" + name + ":src_x_go:1-2",
			Signature: isgl1.InterfaceSignature{
				Kind: isgl1.KindFunction, Name: name, FilePath: "src/" + name + ".go",
				Lines: isgl1.LineRange{Start: 1, End: 2}, Language: isgl1.LanguageGo,
			},
			Temporal: isgl1.Indexed(), Class: cls, CreatedAt: now, UpdatedAt: now,
		}
		if err := st.InsertEntity(context.Background(), e); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}
	insert("Code1", isgl1.CodeImplementation)
	insert("Code2", isgl1.CodeImplementation)
	insert("Test1", isgl1.TestImplementation)
	insert("Test2", isgl1.TestImplementation)

	ex := NewExporter(st, nil)
	dir := t.TempDir()
	outDir, err := ex.Export(context.Background(), Options{Level: Level1, OutBase: filepath.Join(dir, "out")})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var code, test []Level1Entity
	readInto(t, filepath.Join(outDir, "level1.json"), &code)
	readInto(t, filepath.Join(outDir, "level1_test.json"), &test)

	if len(code) != 2 || len(test) != 2 {
		t.Fatalf("expected 2/2 split, got code=%d test=%d", len(code), len(test))
	}
	seen := make(map[string]bool)
	for _, e := range code {
		seen[e.Key] = true
	}
	for _, e := range test {
		if seen[e.Key] {
			t.Errorf("key %s appeared in both code and test output", e.Key)
		}
	}
}

func readInto(t *testing.T, path string, v any) {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("unmarshal %s: %v", path, err)
	}
}

func TestEncodeToon_HeaderAndQuoting(t *testing.T) {
	rows := []any{
		map[string]any{"name": "foo", "count": 3, "note": "has\ttab"},
		map[string]any{"name": "bar", "count": 7, "note": "plain"},
	}
	text, err := EncodeToon("things", rows, DelimTab)
	if err != nil {
		t.Fatalf("EncodeToon: %v", err)
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if !strings.HasPrefix(lines[0], "things[2\t]{count,name,note}:") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("expected 1 header + 2 rows, got %d lines", len(lines))
	}
}

func TestEncodeToon_NullFieldsElided(t *testing.T) {
	rows := []any{
		map[string]any{"a": "x", "b": nil},
	}
	text, err := EncodeToon("t", rows, DelimComma)
	if err != nil {
		t.Fatalf("EncodeToon: %v", err)
	}
	if !strings.Contains(text, "{a}:") {
		t.Errorf("expected field set to elide null field b, got %q", text)
	}
}

func TestLevel2_TypeInfo_FromGoPayload(t *testing.T) {
	st := store.NewMemStore()
	now := time.Now()
	e := isgl1.Entity{
		Key: "go:function:Do:src_x_go:1-2",
		Signature: isgl1.InterfaceSignature{
			Kind: isgl1.KindFunction, Name: "Do", FilePath: "src/x.go",
			Lines: isgl1.LineRange{Start: 1, End: 2}, Language: isgl1.LanguageGo,
			Payload: isgl1.GoPayload{ReceiverType: "Server", TypeParams: []string{"T"}},
		},
		Temporal: isgl1.Indexed(), Class: isgl1.CodeImplementation, CreatedAt: now, UpdatedAt: now,
	}
	if err := st.InsertEntity(context.Background(), e); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ex := NewExporter(st, nil)
	dir := t.TempDir()
	outDir, err := ex.Export(context.Background(), Options{Level: Level2, OutBase: filepath.Join(dir, "out")})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var rows []Level2Entity
	readInto(t, filepath.Join(outDir, "level2.json"), &rows)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if len(rows[0].Type.GenericConstraints) != 1 || rows[0].Type.GenericConstraints[0] != "T" {
		t.Errorf("expected generic constraints [T], got %v", rows[0].Type.GenericConstraints)
	}
	if len(rows[0].Type.Implements) != 1 || rows[0].Type.Implements[0] != "Server" {
		t.Errorf("expected implements [Server], got %v", rows[0].Type.Implements)
	}
}
