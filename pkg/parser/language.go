// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	_ "embed"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/protobuf"
	"github.com/smacker/go-tree-sitter/python"
	tssitter "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/cie/pkg/isgl1"
)

//go:embed queries/go.entities.scm
var goEntitiesQuery string

//go:embed queries/go.deps.scm
var goDepsQuery string

//go:embed queries/typescript.entities.scm
var scriptEntitiesQuery string

//go:embed queries/typescript.deps.scm
var scriptDepsQuery string

//go:embed queries/python.entities.scm
var pythonEntitiesQuery string

//go:embed queries/python.deps.scm
var pythonDepsQuery string

//go:embed queries/protobuf.entities.scm
var protoEntitiesQuery string

//go:embed queries/protobuf.deps.scm
var protoDepsQuery string

// languageSpec binds an ISGL1 language to its grammar, its two query
// files, and the extensions that select it.
type languageSpec struct {
	lang           isgl1.Language
	grammar        *sitter.Language
	entitiesQuery  string
	depsQuery      string
	extensions     []string
}

var registry = []languageSpec{
	{
		lang:          isgl1.LanguageGo,
		grammar:       golang.GetLanguage(),
		entitiesQuery: goEntitiesQuery,
		depsQuery:     goDepsQuery,
		extensions:    []string{".go"},
	},
	{
		lang:          isgl1.LanguageTypeScript,
		grammar:       tssitter.GetLanguage(),
		entitiesQuery: scriptEntitiesQuery,
		depsQuery:     scriptDepsQuery,
		extensions:    []string{".ts", ".tsx"},
	},
	{
		lang:          isgl1.LanguageJavaScript,
		grammar:       javascript.GetLanguage(),
		entitiesQuery: scriptEntitiesQuery,
		depsQuery:     scriptDepsQuery,
		extensions:    []string{".js", ".jsx"},
	},
	{
		lang:          isgl1.LanguagePython,
		grammar:       python.GetLanguage(),
		entitiesQuery: pythonEntitiesQuery,
		depsQuery:     pythonDepsQuery,
		extensions:    []string{".py"},
	},
	{
		lang:          isgl1.LanguageProtobuf,
		grammar:       protobuf.GetLanguage(),
		entitiesQuery: protoEntitiesQuery,
		depsQuery:     protoDepsQuery,
		extensions:    []string{".proto"},
	},
}

// DetectLanguage reports the ISGL1 language a file would be parsed as,
// without actually parsing it. The Ingestion Streamer uses this to tag
// files before dispatching them to the parse worker pool.
func DetectLanguage(path string, content []byte) (isgl1.Language, bool) {
	spec, ok := detectLanguage(path, content)
	if !ok {
		return "", false
	}
	return spec.lang, true
}

// detectLanguage picks a languageSpec by file extension. When the
// extension is unrecognized it falls back to a content sniff (shebang
// line, "package " clause) before giving up.
func detectLanguage(path string, content []byte) (languageSpec, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, spec := range registry {
		for _, specExt := range spec.extensions {
			if ext == specExt {
				return spec, true
			}
		}
	}
	return sniffLanguage(content)
}

func sniffLanguage(content []byte) (languageSpec, bool) {
	head := string(content)
	if len(head) > 256 {
		head = head[:256]
	}
	switch {
	case strings.HasPrefix(head, "#!") && strings.Contains(head, "python"):
		return specFor(isgl1.LanguagePython)
	case strings.Contains(head, "package "):
		return specFor(isgl1.LanguageGo)
	case strings.HasPrefix(strings.TrimSpace(head), "syntax = \"proto"):
		return specFor(isgl1.LanguageProtobuf)
	}
	return languageSpec{}, false
}

func specFor(lang isgl1.Language) (languageSpec, bool) {
	for _, spec := range registry {
		if spec.lang == lang {
			return spec, true
		}
	}
	return languageSpec{}, false
}
