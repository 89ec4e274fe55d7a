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

// Package testing provides ISGL1 store fixtures for package tests across
// the module.
//
// # Quick Start
//
// Use SetupTestStore to create an in-memory ISGL1 store:
//
//	func TestMyFeature(t *testing.T) {
//	    st := testing.SetupTestStore(t)
//
//	    testing.InsertTestEntity(t, st, "go:function:Foo:x_go:1-5", isgl1.KindFunction, "Foo", "x.go")
//
//	    entities := testing.QueryAllEntities(t, st)
//	    require.Len(t, entities, 1)
//	}
//
// # Seeding Test Data
//
//   - InsertTestEntity: add a minimal indexed entity
//   - InsertTestEdge: add a dependency edge between two entity keys
//
// # Querying Test Data
//
//   - QueryAllEntities: fetch every entity currently in the store
package testing
