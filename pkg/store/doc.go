// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store implements the ISGL1 Graph Store: schema creation, typed
// CRUD, temporal-state mutation, batch edge insertion, and raw Datalog
// query passthrough over the isgl1_entity/isgl1_code/isgl1_edge/
// isgl1_lsp_meta relations.
//
// Two implementations satisfy the Store interface: cozoStore, backed by
// pkg/cozodb (an embedded Datalog-capable KV engine), and memStore, an
// in-memory implementation used by tests and anywhere a persistent
// on-disk database would be overkill.
package store
