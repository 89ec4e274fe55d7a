// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Delimiter separates fields in a toon-encoded row.
type Delimiter rune

const (
	DelimTab   Delimiter = '\t'
	DelimComma Delimiter = ','
	DelimPipe  Delimiter = '|'
)

var reservedWords = map[string]bool{"true": true, "false": true, "null": true}

// EncodeToon renders rows (an array of homogeneous, JSON-marshalable
// objects) as the compact tab-oriented companion format: a header line
// "name[row_count<delim>]{field1,field2,...}:" followed by one indented
// row per object. Null fields are elided; fields are alphabetical for
// determinism; values are quoted only when they would otherwise be
// ambiguous (contain the delimiter, a colon, a newline, leading/trailing
// whitespace, are a reserved word, or parse as a number).
func EncodeToon(name string, rows []any, delim Delimiter) (string, error) {
	maps := make([]map[string]any, len(rows))
	fieldSet := make(map[string]bool)
	for i, r := range rows {
		raw, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("export: toon: marshal row %d: %w", i, err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return "", fmt.Errorf("export: toon: unmarshal row %d: %w", i, err)
		}
		for k, v := range m {
			if v == nil {
				delete(m, k)
				continue
			}
			fieldSet[k] = true
		}
		maps[i] = m
	}

	fields := make([]string, 0, len(fieldSet))
	for f := range fieldSet {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	d := string(delim)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[%d%s]{%s}:\n", name, len(rows), d, strings.Join(fields, ","))
	for _, m := range maps {
		vals := make([]string, len(fields))
		for i, f := range fields {
			v, ok := m[f]
			if !ok {
				continue
			}
			vals[i] = encodeToonValue(v, delim)
		}
		sb.WriteString("\t")
		sb.WriteString(strings.Join(vals, d))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func encodeToonValue(v any, delim Delimiter) string {
	s := toonScalar(v)
	if needsQuote(s, delim) {
		return strconv.Quote(s)
	}
	return s
}

func toonScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		raw, _ := json.Marshal(v)
		return string(raw)
	}
}

func needsQuote(s string, delim Delimiter) bool {
	if s == "" {
		return false
	}
	if strings.ContainsRune(s, rune(delim)) {
		return true
	}
	if strings.TrimSpace(s) != s {
		return true
	}
	if strings.Contains(s, "\n") || strings.Contains(s, ":") {
		return true
	}
	if reservedWords[s] {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}
