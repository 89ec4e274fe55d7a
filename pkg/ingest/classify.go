// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"path"
	"strings"

	"github.com/kraklabs/cie/pkg/isgl1"
)

// classifyFile reports whether a file's entities should default to
// TestImplementation based on its path alone (file-name pattern or a
// tests/test/ directory component). This is the file-level half of the
// test-classification heuristic; pkg/parser additionally upgrades an
// individual entity to KindTestFunction (Go: Test-prefixed name in a
// _test.go file; Python: test_ name or test_ file; TS/JS: .test./.spec.
// file name only), and entityClass below combines both signals.
func classifyFile(filePath string) bool {
	base := path.Base(filePath)
	switch {
	case strings.HasSuffix(base, "_test.go"):
		return true
	case strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"):
		return true
	case strings.Contains(base, ".test.") || strings.Contains(base, ".spec."):
		return true
	}
	for _, component := range strings.Split(path.Dir(filePath), "/") {
		if component == "tests" || component == "test" {
			return true
		}
	}
	return false
}

// entityClass assigns the final EntityClass for one extracted entity,
// combining the file-level signal with the entity's own kind (a
// KindTestFunction is always a test, even in a file that otherwise holds
// production code, e.g. a table-driven helper coexisting with TestXxx in
// the same file is still file-level "test").
func entityClass(fileIsTest bool, kind isgl1.EntityKind) isgl1.EntityClass {
	if fileIsTest || kind == isgl1.KindTestFunction {
		return isgl1.TestImplementation
	}
	return isgl1.CodeImplementation
}
