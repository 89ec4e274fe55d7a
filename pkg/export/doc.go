// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export implements the Context Exporter: it reads a
// pkg/store.Store, computes forward/reverse adjacency over the
// dependency-edge relation, and writes level-tiered JSON (plus a compact
// tab-oriented companion format) to a timestamped output directory.
// An export session reads entities and then edges with two separate
// store calls, not under one read transaction; the exporter never
// mutates graph state.
package export
