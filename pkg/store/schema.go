// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "strings"

// schemaStatements is the ISGL1 schema: one vertically-partitioned
// relation set generalized from CIE's original function/type split to a
// single cross-language Entity model. Each statement is run independently
// so an "already exists" error from one does not block the rest.
var schemaStatements = []string{
	`:create isgl1_entity {
		isgl1_key: String =>
		entity_kind: String, name: String, visibility: String,
		file_path: String, start_line: Int, end_line: Int,
		module_path: String,
		doc_comment: String?,
		language: String, payload_json: String,
		entity_class: String,
		current_ind: Bool, future_ind: Bool, future_action: String,
		created_at: Int, updated_at: Int, provenance: String?,
	}`,
	`:create isgl1_code {
		isgl1_key: String, slot: String =>
		code_text: String,
	}`,
	`:create isgl1_edge {
		from_key: String, to_key: String, edge_kind: String =>
	}`,
	`:create isgl1_lsp_meta {
		isgl1_key: String =>
		resolved_type: String?, usage_count: Int?,
	}`,
}

const (
	slotCurrent = "current"
	slotFuture  = "future"
)

func isAlreadyExistsErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "already defined")
}
