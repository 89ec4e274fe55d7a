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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cie/pkg/isgl1"
)

// TestSetupTestStore verifies the test store is created empty.
func TestSetupTestStore(t *testing.T) {
	st := SetupTestStore(t)
	require.NotNil(t, st)

	entities := QueryAllEntities(t, st)
	assert.Empty(t, entities, "should start with no entities")
}

// TestInsertTestEntity verifies entity insertion.
func TestInsertTestEntity(t *testing.T) {
	st := SetupTestStore(t)

	InsertTestEntity(t, st, "go:function:HandleAuth:auth_go:10-25", isgl1.KindFunction, "HandleAuth", "auth.go")

	entities := QueryAllEntities(t, st)
	require.Len(t, entities, 1)
	assert.Equal(t, "HandleAuth", entities[0].Signature.Name)
	assert.Equal(t, isgl1.KindFunction, entities[0].Signature.Kind)
}

// TestMultipleInserts verifies multiple entities can be inserted.
func TestMultipleInserts(t *testing.T) {
	st := SetupTestStore(t)

	InsertTestEntity(t, st, "go:function:Main:main_go:5-10", isgl1.KindFunction, "Main", "main.go")
	InsertTestEntity(t, st, "go:function:Helper:util_go:15-20", isgl1.KindFunction, "Helper", "util.go")
	InsertTestEntity(t, st, "go:struct:Processor:processor_go:1-8", isgl1.KindStruct, "Processor", "processor.go")

	entities := QueryAllEntities(t, st)
	require.Len(t, entities, 3)
}

// TestEdgeInsertion verifies dependency edges can be inserted.
func TestEdgeInsertion(t *testing.T) {
	st := SetupTestStore(t)

	InsertTestEntity(t, st, "go:function:main:main_go:1-10", isgl1.KindFunction, "main", "main.go")
	InsertTestEntity(t, st, "go:function:helper:main_go:12-15", isgl1.KindFunction, "helper", "main.go")

	InsertTestEdge(t, st, "go:function:main:main_go:1-10", "go:function:helper:main_go:12-15", isgl1.EdgeCalls)
}

// TestStoreIsolation verifies each test gets an isolated store.
func TestStoreIsolation(t *testing.T) {
	st1 := SetupTestStore(t)
	InsertTestEntity(t, st1, "go:function:Test1:file1_go:1-10", isgl1.KindFunction, "Test1", "file1.go")

	st2 := SetupTestStore(t)
	assert.Empty(t, QueryAllEntities(t, st2), "second store should be isolated from first")

	assert.Len(t, QueryAllEntities(t, st1), 1)
}
