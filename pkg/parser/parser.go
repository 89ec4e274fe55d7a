// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/cie/pkg/isgl1"
)

// Parser extracts ISGL1 entities and intra-file dependencies from a single
// source file, driven entirely by the embedded per-language query pairs in
// the queries/ directory.
type Parser struct {
	logger *slog.Logger
}

// NewParser constructs a Parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseFile parses one source file and returns its extracted entities and
// dependencies. Unsupported languages are reported via ParseResult.Skipped,
// not an error, so the caller's walk can continue. A syntax error aborts
// extraction for this file only and is reflected in SyntaxErrorCount, not
// a returned error.
func (p *Parser) ParseFile(ctx context.Context, file FileInfo, content []byte) (*ParseResult, error) {
	spec, ok := detectLanguage(file.Path, content)
	if !ok {
		p.logger.Warn("parser.skip.unsupported_language", "path", file.Path)
		return &ParseResult{Skipped: true, SkipReason: "no grammar or query available for this language"}, nil
	}

	sp := sitter.NewParser()
	sp.SetLanguage(spec.grammar)

	tree, err := sp.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parser: tree-sitter parse %s: %w", file.Path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	syntaxErrors := countErrorNodes(root)
	if syntaxErrors > 0 {
		p.logger.Warn("parser.syntax_errors", "path", file.Path, "count", syntaxErrors)
		return &ParseResult{SyntaxErrorCount: syntaxErrors}, nil
	}

	entities, packageName, err := p.extractEntities(spec, root, content, file)
	if err != nil {
		return nil, fmt.Errorf("parser: entity extraction %s: %w", file.Path, err)
	}

	deps, unresolved, err := p.extractDependencies(spec, root, content, file, entities)
	if err != nil {
		return nil, fmt.Errorf("parser: dependency extraction %s: %w", file.Path, err)
	}

	return &ParseResult{
		Entities:         entities,
		Dependencies:     deps,
		UnresolvedCalls:  unresolved,
		PackageName:      packageName,
		SyntaxErrorCount: syntaxErrors,
	}, nil
}

func countErrorNodes(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.IsError() {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrorNodes(n.Child(i))
	}
	return count
}

// entityCaptureKind maps a "<kind>.name" capture identifier to the ISGL1
// entity kind it denotes. The capture set is closed: only names present
// here (and in the query files) are ever extracted.
var entityCaptureKind = map[string]isgl1.EntityKind{
	"function.name":  isgl1.KindFunction,
	"struct.name":    isgl1.KindStruct,
	"interface.name": isgl1.KindInterface,
	"variable.name":  isgl1.KindVariable,
}

func (p *Parser) extractEntities(spec languageSpec, root *sitter.Node, content []byte, file FileInfo) ([]ExtractedEntity, string, error) {
	query, err := sitter.NewQuery([]byte(spec.entitiesQuery), spec.grammar)
	if err != nil {
		return nil, "", fmt.Errorf("compile entities query: %w", err)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, root)

	var entities []ExtractedEntity
	packageName := ""

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, content)

		var defNode *sitter.Node
		var nameText string
		kind := isgl1.EntityKind("")
		receiverType := ""

		for _, capture := range match.Captures {
			name := query.CaptureNameForId(capture.Index)
			node := capture.Node

			switch name {
			case "package.name":
				packageName = node.Content(content)
			case "method.receiver_type":
				receiverType = node.Content(content)
			case "function.def", "struct.def", "interface.def", "variable.def":
				defNode = node
			}
			if ek, isNameCapture := entityCaptureKind[name]; isNameCapture {
				nameText = node.Content(content)
				kind = ek
			}
		}

		if defNode == nil || nameText == "" {
			continue
		}

		lines := isgl1.LineRange{
			Start: int(defNode.StartPoint().Row) + 1,
			End:   int(defNode.EndPoint().Row) + 1,
		}
		if !lines.Valid() {
			continue
		}

		if kind == isgl1.KindFunction && isTestName(nameText, file.Path, spec.lang) {
			kind = isgl1.KindTestFunction
		}

		sig := isgl1.InterfaceSignature{
			Kind:       kind,
			Name:       nameText,
			Visibility: visibilityFor(spec.lang, nameText),
			FilePath:   file.Path,
			Lines:      lines,
			Language:   spec.lang,
			Payload:    payloadFor(spec.lang, receiverType),
		}

		entities = append(entities, ExtractedEntity{
			Signature: sig,
			CodeText:  defNode.Content(content),
		})
	}

	return entities, packageName, nil
}

func (p *Parser) extractDependencies(spec languageSpec, root *sitter.Node, content []byte, file FileInfo, entities []ExtractedEntity) ([]ExtractedDependency, []UnresolvedCall, error) {
	query, err := sitter.NewQuery([]byte(spec.depsQuery), spec.grammar)
	if err != nil {
		return nil, nil, fmt.Errorf("compile deps query: %w", err)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, root)

	localNames := make(map[string]bool, len(entities))
	for _, e := range entities {
		localNames[e.Signature.Name] = true
	}

	var deps []ExtractedDependency
	var unresolved []UnresolvedCall

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, content)

		for _, capture := range match.Captures {
			name := query.CaptureNameForId(capture.Index)
			node := capture.Node
			text := node.Content(content)

			switch name {
			case "call.name":
				if localNames[text] {
					deps = append(deps, ExtractedDependency{ToName: text, Kind: isgl1.EdgeCalls})
				} else {
					unresolved = append(unresolved, UnresolvedCall{
						CalleeName: text,
						FilePath:   file.Path,
						Line:       int(node.StartPoint().Row) + 1,
					})
				}
			case "import.path":
				deps = append(deps, ExtractedDependency{ToName: strings.Trim(text, "\"'"), Kind: isgl1.EdgeUses})
			case "impl.type":
				deps = append(deps, ExtractedDependency{ToName: text, Kind: isgl1.EdgeImplements})
			}
		}
	}

	return deps, unresolved, nil
}

func isTestName(name, path string, lang isgl1.Language) bool {
	switch lang {
	case isgl1.LanguageGo:
		return strings.HasPrefix(name, "Test") && strings.HasSuffix(path, "_test.go")
	case isgl1.LanguagePython:
		return strings.HasPrefix(name, "test_") || strings.HasPrefix(filepath.Base(path), "test_")
	case isgl1.LanguageTypeScript, isgl1.LanguageJavaScript:
		base := filepath.Base(path)
		return strings.Contains(base, ".test.") || strings.Contains(base, ".spec.")
	}
	return false
}

func visibilityFor(lang isgl1.Language, name string) isgl1.Visibility {
	if lang == isgl1.LanguageGo {
		if len(name) > 0 && strings.ToUpper(name[:1]) == name[:1] {
			return isgl1.VisibilityPublic
		}
		return isgl1.VisibilityPrivate
	}
	if strings.HasPrefix(name, "_") {
		return isgl1.VisibilityPrivate
	}
	return isgl1.VisibilityPublic
}

func payloadFor(lang isgl1.Language, receiverType string) isgl1.LanguagePayload {
	switch lang {
	case isgl1.LanguageGo:
		return isgl1.GoPayload{
			ReceiverType:  receiverType,
			IsPointerRecv: strings.HasPrefix(receiverType, "*"),
		}
	case isgl1.LanguageTypeScript, isgl1.LanguageJavaScript, isgl1.LanguagePython:
		return isgl1.ScriptPayload{}
	case isgl1.LanguageProtobuf:
		return isgl1.ProtoPayload{}
	}
	return nil
}
