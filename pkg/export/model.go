// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import "github.com/kraklabs/cie/pkg/isgl1"

// Level names the three progressive export tiers.
type Level int

const (
	Level0 Level = 0 // pure edge list
	Level1 Level = 1 // node-centric, with adjacency
	Level2 Level = 2 // Level1 plus type-system essentials
)

// EdgeRecord is one row of a Level 0 export.
type EdgeRecord struct {
	FromKey string        `json:"from_key"`
	ToKey   string        `json:"to_key"`
	Kind    isgl1.EdgeKind `json:"edge_kind"`
}

// Level0Document is the complete Level 0 artifact: a pure edge list with
// no node metadata beyond the keys at each endpoint.
type Level0Document struct {
	Edges []EdgeRecord `json:"edges"`
}

// TemporalRecord renders an isgl1.TemporalState for JSON output, since
// TemporalState's fields are unexported by design.
type TemporalRecord struct {
	CurrentInd   bool               `json:"current_ind"`
	FutureInd    bool               `json:"future_ind"`
	FutureAction isgl1.FutureAction `json:"future_action"`
}

func newTemporalRecord(t isgl1.TemporalState) TemporalRecord {
	return TemporalRecord{
		CurrentInd:   t.CurrentInd(),
		FutureInd:    t.FutureInd(),
		FutureAction: t.FutureActionValue(),
	}
}

// Level1Entity is one node of a Level 1 export: the entity's identity,
// its full structured signature, and its precomputed adjacency.
type Level1Entity struct {
	Key         string                 `json:"isgl1_key"`
	Signature   isgl1.InterfaceSignature `json:"interface_signature"`
	FilePath    string                 `json:"file_path"`
	Line        isgl1.LineRange        `json:"line"`
	ForwardDeps []string               `json:"forward_deps,omitempty"`
	ReverseDeps []string               `json:"reverse_deps,omitempty"`
	Temporal    TemporalRecord         `json:"temporal"`
	DocComment  string                 `json:"doc_comment,omitempty"`
	CurrentCode string                 `json:"current_code,omitempty"`
	FutureCode  string                 `json:"future_code,omitempty"`
}

// TypeInfo is the Level 2 addition: type-system essentials synthesized
// from the entity's per-language payload and signature. Fields the
// current payload model cannot populate (e.g. Go has no captured
// parameter list) are left zero and elided from JSON rather than
// fabricated.
type TypeInfo struct {
	ReturnType         string           `json:"return_type,omitempty"`
	ParameterNames     []string         `json:"parameter_names,omitempty"`
	GenericConstraints []string         `json:"generic_constraints,omitempty"`
	Implements         []string         `json:"implements,omitempty"`
	Visibility         isgl1.Visibility `json:"visibility,omitempty"`
	IsAsync            bool             `json:"is_async,omitempty"`
	IsVariadic         bool             `json:"is_variadic,omitempty"`
}

// Level2Entity is Level1Entity plus TypeInfo.
type Level2Entity struct {
	Level1Entity
	Type TypeInfo `json:"type_info"`
}

func newTypeInfo(sig isgl1.InterfaceSignature) TypeInfo {
	info := TypeInfo{Visibility: sig.Visibility}
	switch p := sig.Payload.(type) {
	case isgl1.GoPayload:
		info.GenericConstraints = p.TypeParams
		info.IsVariadic = p.IsVariadic
		if p.ReceiverType != "" {
			info.Implements = []string{p.ReceiverType}
		}
	case isgl1.ScriptPayload:
		info.ParameterNames = p.Parameters
		info.IsAsync = p.IsAsync
	case isgl1.ProtoPayload:
		if p.IsRPC {
			info.ParameterNames = []string{p.RPCRequest}
			info.ReturnType = p.RPCResponse
		}
	}
	return info
}
