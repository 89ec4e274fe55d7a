// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package isgl1

// LanguagePayload carries the fields that only make sense for one language
// family. InterfaceSignature.Payload holds one of the concrete types below;
// callers type-switch or type-assert to reach language-specific detail.
type LanguagePayload interface {
	payloadLanguage() Language
}

// GoPayload covers Go-shaped entities: receiver methods, generics,
// variadic parameters, and embedded-struct fields.
type GoPayload struct {
	PackageName    string
	ReceiverType   string // empty for free functions
	IsPointerRecv  bool
	TypeParams     []string // generic type parameters, e.g. ["T", "U"]
	IsVariadic     bool
	EmbeddedFields []string // names of embedded (anonymous) struct fields
}

func (GoPayload) payloadLanguage() Language { return LanguageGo }

// ScriptPayload covers TypeScript/JavaScript/Python-shaped entities:
// decorators, async functions, and parameters with default values.
type ScriptPayload struct {
	Decorators      []string
	IsAsync         bool
	Parameters      []string
	DefaultParams   map[string]string // parameter name -> default value expression
	IsArrowFunction bool
}

func (ScriptPayload) payloadLanguage() Language { return LanguageTypeScript }

// ProtoPayload covers Protobuf-shaped entities: package, syntax version,
// and whether the entity is part of a service/rpc declaration.
type ProtoPayload struct {
	PackageName string
	Syntax      string // "proto2" or "proto3"
	IsService   bool
	IsRPC       bool
	RPCRequest  string
	RPCResponse string
}

func (ProtoPayload) payloadLanguage() Language { return LanguageProtobuf }
