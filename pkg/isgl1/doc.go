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

// Package isgl1 defines the Interface Signature Graph Level 1 data model:
// the Entity/Edge types, the temporal state machine, per-language payload
// shapes, and the deterministic key generator used to name every entity.
//
// Everything downstream (pkg/parser, pkg/store, pkg/ingest, pkg/temporal,
// pkg/export) builds on these types. isgl1 has no dependency on any other
// CIE package.
package isgl1
