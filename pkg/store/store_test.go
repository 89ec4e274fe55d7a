// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kraklabs/cie/pkg/isgl1"
)

func newTestEntity(key, name string) isgl1.Entity {
	return isgl1.Entity{
		Key: key,
		Signature: isgl1.InterfaceSignature{
			Kind:       isgl1.KindFunction,
			Name:       name,
			Visibility: isgl1.VisibilityPublic,
			FilePath:   "pkg/foo/bar.go",
			Lines:      isgl1.LineRange{Start: 1, End: 10},
			Language:   isgl1.LanguageGo,
			Payload:    isgl1.GoPayload{PackageName: "foo"},
		},
		CurrentCode: "func " + name + "() {}",
		Temporal:    isgl1.Indexed(),
		Class:       isgl1.CodeImplementation,
		CreatedAt:   time.Unix(0, 1),
		UpdatedAt:   time.Unix(0, 1),
	}
}

func TestMemStore_InsertAndGetEntity(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	e := newTestEntity("k1", "Foo")
	if err := s.InsertEntity(ctx, e); err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}

	got, err := s.GetEntity(ctx, "k1")
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got.Signature.Name != "Foo" {
		t.Errorf("expected name Foo, got %q", got.Signature.Name)
	}
}

func TestMemStore_GetEntity_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, err := s.GetEntity(ctx, "missing")
	if !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestMemStore_UpdateEntity_RequiresExisting(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	err := s.UpdateEntity(ctx, newTestEntity("ghost", "Ghost"))
	if !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestMemStore_UpdateTemporalState(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_ = s.InsertEntity(ctx, newTestEntity("k1", "Foo"))

	if err := s.UpdateTemporalState(ctx, "k1", isgl1.PlannedEdit(), "func Foo() { /* changed */ }"); err != nil {
		t.Fatalf("UpdateTemporalState: %v", err)
	}

	got, _ := s.GetEntity(ctx, "k1")
	if got.Temporal != isgl1.PlannedEdit() {
		t.Errorf("expected PlannedEdit, got %s", got.Temporal)
	}
	if got.FutureCode == "" {
		t.Error("expected future code to be set")
	}
}

func TestMemStore_DeleteEntity_PurgesIncidentEdges(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_ = s.InsertEntity(ctx, newTestEntity("a", "A"))
	_ = s.InsertEntity(ctx, newTestEntity("b", "B"))
	_ = s.InsertEdgesBatch(ctx, []isgl1.Edge{{FromKey: "a", ToKey: "b", Kind: isgl1.EdgeCalls}})

	if err := s.DeleteEntity(ctx, "a"); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}

	edges, err := s.GetAllDependencies(ctx)
	if err != nil {
		t.Fatalf("GetAllDependencies: %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("expected incident edges to be purged, got %d", len(edges))
	}
}

func TestMemStore_InsertEdgesBatch_Deduplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	edges := []isgl1.Edge{
		{FromKey: "a", ToKey: "b", Kind: isgl1.EdgeCalls},
		{FromKey: "a", ToKey: "b", Kind: isgl1.EdgeCalls},
	}
	if err := s.InsertEdgesBatch(ctx, edges); err != nil {
		t.Fatalf("InsertEdgesBatch: %v", err)
	}
	got, _ := s.GetAllDependencies(ctx)
	if len(got) != 1 {
		t.Errorf("expected 1 deduplicated edge, got %d", len(got))
	}
}

func TestMemStore_QueryEntities_FiltersByChanged(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_ = s.InsertEntity(ctx, newTestEntity("a", "A"))
	changed := newTestEntity("b", "B")
	changed.Temporal = isgl1.PlannedEdit()
	_ = s.InsertEntity(ctx, changed)

	got, err := s.GetChangedEntities(ctx)
	if err != nil {
		t.Fatalf("GetChangedEntities: %v", err)
	}
	if len(got) != 1 || got[0].Key != "b" {
		t.Errorf("expected only entity b, got %+v", got)
	}
}

func TestMemStore_Reset_RestoresAndPrunes(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	edited := newTestEntity("edited", "Edited")
	edited.Temporal = isgl1.PlannedEdit()
	edited.FutureCode = "future body"
	_ = s.InsertEntity(ctx, edited)

	planned := newTestEntity("planned", "Planned")
	planned.Temporal = isgl1.PlannedCreate()
	planned.CurrentCode = ""
	_ = s.InsertEntity(ctx, planned)

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	got, err := s.GetEntity(ctx, "edited")
	if err != nil {
		t.Fatalf("GetEntity(edited): %v", err)
	}
	if got.Temporal != isgl1.Indexed() {
		t.Errorf("expected edited entity restored to Indexed, got %s", got.Temporal)
	}
	if got.FutureCode != "" {
		t.Error("expected future code cleared after reset")
	}

	if _, err := s.GetEntity(ctx, "planned"); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected planned-create entity to be pruned by reset, got err=%v", err)
	}
}

func TestMemStore_ExecuteQuery_Unsupported(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	if _, err := s.ExecuteQuery(ctx, "?[x] := x = 1", nil); err == nil {
		t.Error("expected ExecuteQuery to be unsupported on the in-memory backend")
	}
}

func TestMemStore_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemStore()
	if err := s.InsertEntity(ctx, newTestEntity("k1", "Foo")); err == nil {
		t.Error("expected InsertEntity to reject a cancelled context")
	}
}
