// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package testing

import (
	"context"
	"testing"
	"time"

	"github.com/kraklabs/cie/pkg/isgl1"
	"github.com/kraklabs/cie/pkg/store"
)

// SetupTestStore creates an in-memory ISGL1 store for testing. Unlike
// store.OpenCozoStore, the in-memory store needs no teardown, but
// SetupTestStore still registers a t.Cleanup for symmetry with the
// persistent backend.
//
// Example:
//
//	st := testing.SetupTestStore(t)
//	testing.InsertTestEntity(t, st, "go:function:Foo:src_x_go:1-5", isgl1.KindFunction, "Foo", "src/x.go")
func SetupTestStore(t *testing.T) store.Store {
	t.Helper()

	st := store.NewMemStore()
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// InsertTestEntity inserts a minimal, indexed (not planned) ISGL1 entity
// with the given key, kind, name and file path. It is a convenience
// helper for seeding test data that doesn't care about the entity's
// full signature.
func InsertTestEntity(t *testing.T, st store.Store, key string, kind isgl1.EntityKind, name, filePath string) isgl1.Entity {
	t.Helper()

	now := time.Now()
	e := isgl1.Entity{
		Key: key,
		Signature: isgl1.InterfaceSignature{
			Kind:       kind,
			Name:       name,
			Visibility: isgl1.VisibilityPublic,
			FilePath:   filePath,
			Lines:      isgl1.LineRange{Start: 1, End: 1},
			Language:   isgl1.LanguageGo,
		},
		CurrentCode: "",
		Temporal:    isgl1.Indexed(),
		Class:       isgl1.CodeImplementation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := st.InsertEntity(context.Background(), e); err != nil {
		t.Fatalf("failed to insert test entity %s: %v", key, err)
	}
	return e
}

// InsertTestEdge inserts a directed dependency edge between two entity
// keys that are assumed to already exist in the store.
func InsertTestEdge(t *testing.T, st store.Store, fromKey, toKey string, kind isgl1.EdgeKind) {
	t.Helper()

	edge := isgl1.Edge{FromKey: fromKey, ToKey: toKey, Kind: kind}
	if err := st.InsertEdgesBatch(context.Background(), []isgl1.Edge{edge}); err != nil {
		t.Fatalf("failed to insert test edge %s -> %s: %v", fromKey, toKey, err)
	}
}

// QueryAllEntities is a helper that fetches every entity currently in the
// store, failing the test on error.
func QueryAllEntities(t *testing.T, st store.Store) []isgl1.Entity {
	t.Helper()

	entities, err := st.GetAllEntities(context.Background())
	if err != nil {
		t.Fatalf("failed to query entities: %v", err)
	}
	return entities
}
