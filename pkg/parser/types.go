// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import "github.com/kraklabs/cie/pkg/isgl1"

// FileInfo identifies a single file to parse.
type FileInfo struct {
	Path     string // path relative to the ingestion root
	FullPath string // absolute path on disk
	Size     int64
	Language isgl1.Language
}

// ExtractedEntity is one entity-capture result, not yet assigned an ISGL1
// key (key assignment happens in pkg/ingest, which has the creation-time
// context the hash-based key format needs).
type ExtractedEntity struct {
	Signature isgl1.InterfaceSignature
	CodeText  string
}

// UnresolvedCall is a call site whose target could not be resolved within
// the file being parsed. pkg/parser.CallResolver resolves these in a
// second, project-wide pass.
type UnresolvedCall struct {
	CallerKey  string // ISGL1 key of the entity containing the call, once known
	CalleeName string // the textual name the call site referenced
	FilePath   string
	Line       int
}

// ExtractedDependency is a dependency edge whose endpoints are already
// resolvable within the file being parsed (imports, same-file calls).
type ExtractedDependency struct {
	FromName string // entity name within this file
	ToName   string // target name; may be a package-qualified path for imports
	Kind     isgl1.EdgeKind
}

// ParseResult is everything Parser.ParseFile produces for one file.
type ParseResult struct {
	Entities        []ExtractedEntity
	Dependencies    []ExtractedDependency
	UnresolvedCalls []UnresolvedCall
	PackageName      string // Go package / TS module / Python package, when applicable
	Skipped          bool   // true if the language has no grammar/query registered
	SkipReason       string
	SyntaxErrorCount int
}
