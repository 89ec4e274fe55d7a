// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingest implements the Ingestion Streamer: it walks a project
// tree, classifies and filters files, parses them with pkg/parser,
// assigns ISGL1 keys, resolves calls, and writes the resulting entities
// and edges to a pkg/store.Store in Indexed() state.
//
// A single Streamer.Run call is the entire lifecycle: there is no
// long-lived daemon, no file watcher, and no incremental reparse. Every
// run walks the tree from scratch.
package ingest
