// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package isgl1

import "time"

// EntityKind enumerates the shapes the Source Parser can extract.
type EntityKind string

const (
	KindFunction     EntityKind = "function"
	KindStruct       EntityKind = "struct"
	KindEnum         EntityKind = "enum"
	KindInterface    EntityKind = "interface"
	KindImpl         EntityKind = "impl"
	KindModule       EntityKind = "module"
	KindVariable     EntityKind = "variable"
	KindTestFunction EntityKind = "test_function"
)

// Visibility is the declared access level of an entity.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityCrate   Visibility = "crate"
	VisibilityPrivate Visibility = "private"
)

// EntityClass tags whether an entity belongs to production code or to a
// test. Assigned at creation time; never changed by subsequent mutations.
type EntityClass string

const (
	CodeImplementation EntityClass = "CodeImplementation"
	TestImplementation EntityClass = "TestImplementation"
)

// Language identifies the source language a file was parsed as.
type Language string

const (
	LanguageGo         Language = "go"
	LanguageTypeScript Language = "typescript"
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageProtobuf   Language = "protobuf"
)

// LineRange is a 1-indexed, inclusive source line span.
type LineRange struct {
	Start int
	End   int
}

// Valid reports whether the range satisfies start <= end and both are
// 1-indexed (i.e. positive).
func (r LineRange) Valid() bool {
	return r.Start >= 1 && r.End >= 1 && r.Start <= r.End
}

// InterfaceSignature is the structured description of what an entity is:
// its kind, name, location, and per-language payload. It does not carry
// source text or temporal state — those live on Entity.
type InterfaceSignature struct {
	Kind        EntityKind
	Name        string
	Visibility  Visibility
	FilePath    string
	Lines       LineRange
	ModulePath  []string
	DocComment  string
	Language    Language
	Payload     LanguagePayload
}

// LSPMetadata is optional enrichment sourced from a language server. Its
// absence on an Entity is normal and does not affect temporal validity.
type LSPMetadata struct {
	ResolvedType string
	UsageCount   int
}

// Entity is the unit of the ISGL1 graph: identity, structured signature,
// current/future source text, temporal state, and bookkeeping metadata.
type Entity struct {
	Key         string
	Signature   InterfaceSignature
	CurrentCode string
	FutureCode  string
	Temporal    TemporalState
	Class       EntityClass
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Provenance  string
	LSP         *LSPMetadata
}

// HasCurrentCode reports whether CurrentCode carries source text.
func (e Entity) HasCurrentCode() bool { return e.CurrentCode != "" }

// HasFutureCode reports whether FutureCode carries source text.
func (e Entity) HasFutureCode() bool { return e.FutureCode != "" }

// EdgeKind enumerates the directed relations that can connect two entities.
type EdgeKind string

const (
	EdgeCalls      EdgeKind = "Calls"
	EdgeImplements EdgeKind = "Implements"
	EdgeUses       EdgeKind = "Uses"
	EdgeContains   EdgeKind = "Contains"
	EdgeReferences EdgeKind = "References"
	EdgeExtends    EdgeKind = "Extends"
	EdgeDependsOn  EdgeKind = "DependsOn"
	EdgeSimilarTo  EdgeKind = "SimilarTo"
	EdgeRelatedTo  EdgeKind = "RelatedTo"
)

// Edge is a directed dependency relation between two ISGL1 keys. Edges are
// orphaned (and must be purged at reset) when either endpoint is fully
// removed from the store.
type Edge struct {
	FromKey string
	ToKey   string
	Kind    EdgeKind
}
