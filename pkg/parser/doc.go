// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parser implements the ISGL1 Source Parser: per-file tree-sitter
// driven extraction of entities and intra-file dependency edges.
//
// Extraction is query-driven. Each supported language loads two embedded
// tree-sitter query files: one describing entity-capture patterns
// (queries/<lang>.entities.scm), one describing dependency-capture
// patterns (queries/<lang>.deps.scm). The capture set is closed and
// declarative — a pattern not present in the query file is never
// extracted, regardless of what the grammar can otherwise produce.
//
// Parser.ParseFile degrades gracefully for unsupported languages: the
// file is skipped with a logged warning rather than failing the walk. A
// syntax error in one file aborts extraction for that file only.
package parser
