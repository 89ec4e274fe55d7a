// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/kraklabs/cie/pkg/isgl1"
	"github.com/kraklabs/cie/pkg/store"
)

func mustInsert(t *testing.T, st store.Store, key, name string) isgl1.Entity {
	t.Helper()
	e := isgl1.Entity{
		Key: key,
		Signature: isgl1.InterfaceSignature{
			Kind:     isgl1.KindFunction,
			Name:     name,
			FilePath: "src/lib.go",
			Lines:    isgl1.LineRange{Start: 1, End: 3},
			Language: isgl1.LanguageGo,
		},
		CurrentCode: "func " + name + "() {}",
		Temporal:    isgl1.Indexed(),
		Class:       isgl1.CodeImplementation,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Provenance:  "ingest",
	}
	if err := st.InsertEntity(context.Background(), e); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return e
}

func TestEngine_Edit(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	e := mustInsert(t, st, "go:function:foo:src_lib_go:1-3", "foo")

	eng := NewEngine(st, nil)
	if err := eng.Edit(ctx, e.Key, "func foo() { return 1 }"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	got, err := st.GetEntity(ctx, e.Key)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got.Temporal != isgl1.PlannedEdit() {
		t.Errorf("expected PlannedEdit, got %s", got.Temporal)
	}
	if got.FutureCode != "func foo() { return 1 }" {
		t.Errorf("future code not applied: %q", got.FutureCode)
	}
}

func TestEngine_Edit_UnknownKey(t *testing.T) {
	eng := NewEngine(store.NewMemStore(), nil)
	if err := eng.Edit(context.Background(), "does-not-exist", "x"); err == nil {
		t.Fatal("expected EntityNotFound error")
	}
}

func TestEngine_Delete_Indexed(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	e := mustInsert(t, st, "go:function:bar:src_lib_go:1-3", "bar")

	eng := NewEngine(st, nil)
	if err := eng.Delete(ctx, e.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := st.GetEntity(ctx, e.Key)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got.Temporal != isgl1.PlannedDelete() {
		t.Errorf("expected PlannedDelete, got %s", got.Temporal)
	}
}

func TestEngine_Delete_Twice_Fails(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	e := mustInsert(t, st, "go:function:baz:src_lib_go:1-3", "baz")

	eng := NewEngine(st, nil)
	if err := eng.Delete(ctx, e.Key); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := eng.Delete(ctx, e.Key); err == nil {
		t.Fatal("expected second Delete to fail as an illegal transition")
	}
}

func TestEngine_Create(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	eng := NewEngine(st, nil)

	sig := isgl1.InterfaceSignature{
		Kind:     isgl1.KindFunction,
		Name:     "helper",
		FilePath: "src/util.go",
		Language: isgl1.LanguageGo,
	}
	entity, err := eng.Create(ctx, sig, "func helper() {}")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entity.Temporal != isgl1.PlannedCreate() {
		t.Errorf("expected PlannedCreate, got %s", entity.Temporal)
	}

	changed, err := st.GetChangedEntities(ctx)
	if err != nil {
		t.Fatalf("GetChangedEntities: %v", err)
	}
	if len(changed) != 1 {
		t.Fatalf("expected 1 changed entity, got %d", len(changed))
	}
}

func TestEngine_Delete_UnmaterializedCreate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	eng := NewEngine(st, nil)

	sig := isgl1.InterfaceSignature{Kind: isgl1.KindFunction, Name: "transient", FilePath: "src/util.go"}
	entity, err := eng.Create(ctx, sig, "func transient() {}")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := eng.Delete(ctx, entity.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := st.GetEntity(ctx, entity.Key)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got.Temporal != isgl1.PlannedCreateThenDelete() {
		t.Errorf("expected PlannedCreateThenDelete, got %s", got.Temporal)
	}
}

func TestEngine_Reset(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	eng := NewEngine(st, nil)

	edited := mustInsert(t, st, "go:function:foo:src_lib_go:1-3", "foo")
	if err := eng.Edit(ctx, edited.Key, "new body"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	sig := isgl1.InterfaceSignature{Kind: isgl1.KindFunction, Name: "helper", FilePath: "src/util.go"}
	created, err := eng.Create(ctx, sig, "func helper() {}")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := eng.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if _, err := st.GetEntity(ctx, created.Key); err == nil {
		t.Error("expected planned-create entity to be gone after reset")
	}
	got, err := st.GetEntity(ctx, edited.Key)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got.Temporal != isgl1.Indexed() || got.FutureCode != "" {
		t.Errorf("expected edited entity restored to Indexed with no future code, got %s / %q", got.Temporal, got.FutureCode)
	}

	changed, err := st.GetChangedEntities(ctx)
	if err != nil {
		t.Fatalf("GetChangedEntities: %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("expected no changed entities after reset, got %d", len(changed))
	}
}

func TestParsePlan(t *testing.T) {
	doc := []byte(`{"operations":[
		{"op":"edit","isgl1_key":"k1","future_code":"x"},
		{"op":"delete","isgl1_key":"k2"},
		{"op":"create","file_path":"a.go","name":"n","kind":"function","code":"c"}
	]}`)
	plan, err := ParsePlan(doc)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if len(plan.Operations) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(plan.Operations))
	}
}

func TestParsePlan_RejectsMissingFields(t *testing.T) {
	doc := []byte(`{"operations":[{"op":"edit"}]}`)
	if _, err := ParsePlan(doc); err == nil {
		t.Fatal("expected validation error for edit missing isgl1_key")
	}
}

func TestEngine_Apply(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	e := mustInsert(t, st, "go:function:foo:src_lib_go:1-3", "foo")
	eng := NewEngine(st, nil)

	plan := Plan{Operations: []Operation{
		{Op: OpEdit, ISGL1Key: e.Key, FutureCode: "edited"},
		{Op: OpCreate, FilePath: "src/util.go", Name: "helper", Kind: isgl1.KindFunction, Code: "func helper() {}"},
	}}
	applied, err := eng.Apply(ctx, plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 applied operations, got %d", applied)
	}

	changed, err := st.GetChangedEntities(ctx)
	if err != nil {
		t.Fatalf("GetChangedEntities: %v", err)
	}
	if len(changed) != 2 {
		t.Errorf("expected 2 changed entities, got %d", len(changed))
	}
}
