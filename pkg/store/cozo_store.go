// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	cozo "github.com/kraklabs/cie/pkg/cozodb"
	"github.com/kraklabs/cie/pkg/isgl1"
)

// cozoStore is the persistent, Datalog-backed Store implementation.
type cozoStore struct {
	db     *cozo.CozoDB
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// OpenCozoStore opens (or creates) a CozoDB database at dataDir using the
// given storage engine ("rocksdb", "sqlite", or "mem") and ensures the
// ISGL1 schema exists.
func OpenCozoStore(ctx context.Context, engine, dataDir string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := cozo.New(engine, dataDir, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open cozodb: %w", err)
	}
	s := &cozoStore{db: &db, logger: logger}
	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *cozoStore) CreateSchema(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range schemaStatements {
		if _, err := s.db.Run(stmt, nil); err != nil && !isAlreadyExistsErr(err) {
			return fmt.Errorf("store: create schema: %w", err)
		}
	}
	return nil
}

// InsertEntity fails if e.Key already exists, per the Store contract.
// The existence check and the write happen under the same lock so a
// concurrent InsertEntity for the same key cannot race past it.
func (s *cozoStore) InsertEntity(ctx context.Context, e isgl1.Entity) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getEntityLocked(e.Key); err == nil {
		return fmt.Errorf("store: entity %s already exists", e.Key)
	} else if !errors.Is(err, ErrEntityNotFound) {
		return err
	}
	return s.putEntityLocked(e)
}

// UpdateEntity overwrites an existing row; unlike InsertEntity it
// requires the key to already be present.
func (s *cozoStore) UpdateEntity(ctx context.Context, e isgl1.Entity) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getEntityLocked(e.Key)
	if err != nil {
		return err
	}
	e.Class = existing.Class
	return s.putEntityLocked(e)
}

// putEntityLocked writes e's row and code slots. Callers must hold s.mu.
func (s *cozoStore) putEntityLocked(e isgl1.Entity) error {
	row, err := entityToRow(e)
	if err != nil {
		return err
	}
	script := `
		?[isgl1_key, entity_kind, name, visibility, file_path, start_line, end_line,
		  module_path, doc_comment, language, payload_json, entity_class,
		  current_ind, future_ind, future_action, created_at, updated_at, provenance] <- [[
		  $isgl1_key, $entity_kind, $name, $visibility, $file_path, $start_line, $end_line,
		  $module_path, $doc_comment, $language, $payload_json, $entity_class,
		  $current_ind, $future_ind, $future_action, $created_at, $updated_at, $provenance
		]]
		:put isgl1_entity {
			isgl1_key, entity_kind, name, visibility, file_path, start_line, end_line,
			module_path, doc_comment, language, payload_json, entity_class,
			current_ind, future_ind, future_action, created_at, updated_at, provenance
		}
	`
	if _, err := s.db.Run(script, row); err != nil {
		return fmt.Errorf("store: put entity %s: %w", e.Key, err)
	}
	if e.HasCurrentCode() {
		if err := s.putCode(e.Key, slotCurrent, e.CurrentCode); err != nil {
			return err
		}
	} else if err := s.removeCode(e.Key, slotCurrent); err != nil {
		return err
	}
	if e.HasFutureCode() {
		if err := s.putCode(e.Key, slotFuture, e.FutureCode); err != nil {
			return err
		}
	} else if err := s.removeCode(e.Key, slotFuture); err != nil {
		return err
	}
	return nil
}

func (s *cozoStore) putCode(key, slot, text string) error {
	script := `
		?[isgl1_key, slot, code_text] <- [[$isgl1_key, $slot, $code_text]]
		:put isgl1_code { isgl1_key, slot, code_text }
	`
	_, err := s.db.Run(script, map[string]any{"isgl1_key": key, "slot": slot, "code_text": text})
	if err != nil {
		return fmt.Errorf("store: put code %s/%s: %w", key, slot, err)
	}
	return nil
}

// removeCode clears a code slot so a stale future_code cannot resurface
// once an entity's future_ind flips back to false (e.g. Delete after Edit).
func (s *cozoStore) removeCode(key, slot string) error {
	script := `
		?[isgl1_key, slot] <- [[$isgl1_key, $slot]]
		:rm isgl1_code { isgl1_key, slot }
	`
	_, err := s.db.Run(script, map[string]any{"isgl1_key": key, "slot": slot})
	if err != nil {
		return fmt.Errorf("store: remove code %s/%s: %w", key, slot, err)
	}
	return nil
}

func (s *cozoStore) GetEntity(ctx context.Context, key string) (isgl1.Entity, error) {
	if err := ctxErr(ctx); err != nil {
		return isgl1.Entity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEntityLocked(key)
}

// getEntityLocked is GetEntity's query logic without its own locking, so
// callers already holding s.mu (read or write) can reuse it without
// re-entering the non-reentrant RWMutex.
func (s *cozoStore) getEntityLocked(key string) (isgl1.Entity, error) {
	script := `
		?[entity_kind, name, visibility, file_path, start_line, end_line, module_path,
		  doc_comment, language, payload_json, entity_class,
		  current_ind, future_ind, future_action, created_at, updated_at, provenance] :=
			*isgl1_entity{isgl1_key: $isgl1_key, entity_kind, name, visibility, file_path,
			  start_line, end_line, module_path, doc_comment, language, payload_json,
			  entity_class, current_ind, future_ind, future_action, created_at, updated_at, provenance}
	`
	result, err := s.db.RunReadOnly(script, map[string]any{"isgl1_key": key})
	if err != nil {
		return isgl1.Entity{}, fmt.Errorf("store: get entity %s: %w", key, err)
	}
	if len(result.Rows) == 0 {
		return isgl1.Entity{}, ErrEntityNotFound
	}
	e, err := rowToEntity(key, result.Headers, result.Rows[0])
	if err != nil {
		return isgl1.Entity{}, err
	}
	e.CurrentCode, _ = s.getCode(key, slotCurrent)
	e.FutureCode, _ = s.getCode(key, slotFuture)
	return e, nil
}

func (s *cozoStore) getCode(key, slot string) (string, error) {
	script := `
		?[code_text] := *isgl1_code{isgl1_key: $isgl1_key, slot: $slot, code_text}
	`
	result, err := s.db.RunReadOnly(script, map[string]any{"isgl1_key": key, "slot": slot})
	if err != nil || len(result.Rows) == 0 {
		return "", err
	}
	text, _ := result.Rows[0][0].(string)
	return text, nil
}

func (s *cozoStore) DeleteEntity(ctx context.Context, key string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []string{
		`?[isgl1_key] <- [[$isgl1_key]] :rm isgl1_entity { isgl1_key }`,
		`?[isgl1_key, slot] := *isgl1_code{isgl1_key: $isgl1_key, slot} :rm isgl1_code { isgl1_key, slot }`,
		`?[from_key, to_key, edge_kind] := *isgl1_edge{from_key: $isgl1_key, to_key, edge_kind} :rm isgl1_edge { from_key, to_key, edge_kind }`,
		`?[from_key, to_key, edge_kind] := *isgl1_edge{from_key, to_key: $isgl1_key, edge_kind} :rm isgl1_edge { from_key, to_key, edge_kind }`,
		`?[isgl1_key] <- [[$isgl1_key]] :rm isgl1_lsp_meta { isgl1_key }`,
	} {
		if _, err := s.db.Run(stmt, map[string]any{"isgl1_key": key}); err != nil {
			return fmt.Errorf("store: delete entity %s: %w", key, err)
		}
	}
	return nil
}

func (s *cozoStore) UpdateTemporalState(ctx context.Context, key string, state isgl1.TemporalState, futureCode string) error {
	existing, err := s.GetEntity(ctx, key)
	if err != nil {
		return err
	}
	existing.Temporal = state
	existing.FutureCode = futureCode
	return s.UpdateEntity(ctx, existing)
}

func (s *cozoStore) InsertEdgesBatch(ctx context.Context, edges []isgl1.Edge) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(edges))
	var rows [][3]string
	for _, e := range edges {
		key := e.FromKey + "|" + e.ToKey + "|" + string(e.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, [3]string{e.FromKey, e.ToKey, string(e.Kind)})
	}

	var b strings.Builder
	b.WriteString("?[from_key, to_key, edge_kind] <- [")
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "[%q, %q, %q]", r[0], r[1], r[2])
	}
	b.WriteString("]\n:put isgl1_edge { from_key, to_key, edge_kind }")

	if _, err := s.db.Run(b.String(), nil); err != nil {
		return fmt.Errorf("store: insert edges batch: %w", err)
	}
	return nil
}

func (s *cozoStore) GetAllEntities(ctx context.Context) ([]isgl1.Entity, error) {
	return s.QueryEntities(ctx, EntityFilter{})
}

func (s *cozoStore) QueryEntities(ctx context.Context, filter EntityFilter) ([]isgl1.Entity, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	script := `
		?[isgl1_key, entity_kind, name, visibility, file_path, start_line, end_line, module_path,
		  doc_comment, language, payload_json, entity_class,
		  current_ind, future_ind, future_action, created_at, updated_at, provenance] :=
			*isgl1_entity{isgl1_key, entity_kind, name, visibility, file_path,
			  start_line, end_line, module_path, doc_comment, language, payload_json,
			  entity_class, current_ind, future_ind, future_action, created_at, updated_at, provenance}
	`
	result, err := s.db.RunReadOnly(script, nil)
	if err != nil {
		return nil, fmt.Errorf("store: query entities: %w", err)
	}

	var out []isgl1.Entity
	for _, row := range result.Rows {
		key, _ := row[0].(string)
		e, err := rowToEntity(key, result.Headers[1:], row[1:])
		if err != nil {
			return nil, err
		}
		if !filter.matches(e) {
			continue
		}
		e.CurrentCode, _ = s.getCode(key, slotCurrent)
		e.FutureCode, _ = s.getCode(key, slotFuture)
		out = append(out, e)
	}
	return out, nil
}

func (f EntityFilter) matches(e isgl1.Entity) bool {
	if f.Class != "" && e.Class != f.Class {
		return false
	}
	if f.Language != "" && e.Signature.Language != f.Language {
		return false
	}
	if f.Kind != "" && e.Signature.Kind != f.Kind {
		return false
	}
	if f.Changed && e.Temporal.FutureActionValue() == isgl1.ActionNone {
		return false
	}
	return true
}

func (s *cozoStore) GetChangedEntities(ctx context.Context) ([]isgl1.Entity, error) {
	return s.QueryEntities(ctx, EntityFilter{Changed: true})
}

func (s *cozoStore) GetAllDependencies(ctx context.Context) ([]isgl1.Edge, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, err := s.db.RunReadOnly(`?[from_key, to_key, edge_kind] := *isgl1_edge{from_key, to_key, edge_kind}`, nil)
	if err != nil {
		return nil, fmt.Errorf("store: get all dependencies: %w", err)
	}
	edges := make([]isgl1.Edge, 0, len(result.Rows))
	for _, row := range result.Rows {
		from, _ := row[0].(string)
		to, _ := row[1].(string)
		kind, _ := row[2].(string)
		edges = append(edges, isgl1.Edge{FromKey: from, ToKey: to, Kind: isgl1.EdgeKind(kind)})
	}
	return edges, nil
}

func (s *cozoStore) ExecuteQuery(ctx context.Context, datalog string, params map[string]any) (QueryResult, error) {
	if err := ctxErr(ctx); err != nil {
		return QueryResult{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, err := s.db.RunReadOnly(datalog, params)
	if err != nil {
		return QueryResult{}, fmt.Errorf("store: execute query: %w", err)
	}
	return QueryResult{Headers: result.Headers, Rows: result.Rows}, nil
}

func (s *cozoStore) Reset(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	entities, err := s.GetAllEntities(ctx)
	if err != nil {
		return err
	}
	for _, e := range entities {
		if !e.Temporal.CurrentInd() {
			// Planned Create, or a planned Create deleted before it ever
			// materialized: current_ind was never true, so nothing to
			// restore to.
			if err := s.DeleteEntity(ctx, e.Key); err != nil {
				return err
			}
			continue
		}
		e.Temporal = isgl1.Indexed()
		e.FutureCode = ""
		if err := s.UpdateEntity(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *cozoStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.db.Close()
	return nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// entityToRow flattens an Entity into the CozoScript parameter map used by
// InsertEntity/UpdateEntity.
func entityToRow(e isgl1.Entity) (map[string]any, error) {
	payloadJSON, err := json.Marshal(e.Signature.Payload)
	if err != nil {
		return nil, fmt.Errorf("store: marshal payload for %s: %w", e.Key, err)
	}
	modulePathJSON, err := json.Marshal(e.Signature.ModulePath)
	if err != nil {
		return nil, fmt.Errorf("store: marshal module path for %s: %w", e.Key, err)
	}
	return map[string]any{
		"isgl1_key":      e.Key,
		"entity_kind":    string(e.Signature.Kind),
		"name":           e.Signature.Name,
		"visibility":     string(e.Signature.Visibility),
		"file_path":      e.Signature.FilePath,
		"start_line":     e.Signature.Lines.Start,
		"end_line":       e.Signature.Lines.End,
		"module_path":    string(modulePathJSON),
		"doc_comment":    e.Signature.DocComment,
		"language":       string(e.Signature.Language),
		"payload_json":   string(payloadJSON),
		"entity_class":   string(e.Class),
		"current_ind":    e.Temporal.CurrentInd(),
		"future_ind":     e.Temporal.FutureInd(),
		"future_action":  string(e.Temporal.FutureActionValue()),
		"created_at":   e.CreatedAt.UnixNano(),
		"updated_at":   e.UpdatedAt.UnixNano(),
		"provenance":   e.Provenance,
	}, nil
}

// rowToEntity reconstructs an Entity from a query result row whose headers
// are everything in entityToRow except isgl1_key (passed separately).
func rowToEntity(key string, headers []string, row []any) (isgl1.Entity, error) {
	col := make(map[string]any, len(headers))
	for i, h := range headers {
		if i < len(row) {
			col[h] = row[i]
		}
	}

	asString := func(k string) string { s, _ := col[k].(string); return s }
	asInt := func(k string) int {
		switch v := col[k].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
		return 0
	}
	asBool := func(k string) bool { b, _ := col[k].(bool); return b }
	asTime := func(k string) time.Time {
		switch v := col[k].(type) {
		case int64:
			return time.Unix(0, v)
		case float64:
			return time.Unix(0, int64(v))
		}
		return time.Time{}
	}

	state, err := isgl1.ParseTemporalState(asBool("current_ind"), asBool("future_ind"), isgl1.FutureAction(asString("future_action")))
	if err != nil {
		return isgl1.Entity{}, fmt.Errorf("store: entity %s: %w", key, err)
	}

	var modulePath []string
	_ = json.Unmarshal([]byte(asString("module_path")), &modulePath)

	payload := decodePayload(isgl1.Language(asString("language")), asString("payload_json"))

	return isgl1.Entity{
		Key: key,
		Signature: isgl1.InterfaceSignature{
			Kind:       isgl1.EntityKind(asString("entity_kind")),
			Name:       asString("name"),
			Visibility: isgl1.Visibility(asString("visibility")),
			FilePath:   asString("file_path"),
			Lines:      isgl1.LineRange{Start: asInt("start_line"), End: asInt("end_line")},
			ModulePath: modulePath,
			DocComment: asString("doc_comment"),
			Language:   isgl1.Language(asString("language")),
			Payload:    payload,
		},
		Class:      isgl1.EntityClass(asString("entity_class")),
		Temporal:   state,
		CreatedAt:  asTime("created_at"),
		UpdatedAt:  asTime("updated_at"),
		Provenance: asString("provenance"),
	}, nil
}

func decodePayload(lang isgl1.Language, raw string) isgl1.LanguagePayload {
	if raw == "" {
		return nil
	}
	switch lang {
	case isgl1.LanguageGo:
		var p isgl1.GoPayload
		if json.Unmarshal([]byte(raw), &p) == nil {
			return p
		}
	case isgl1.LanguageTypeScript, isgl1.LanguageJavaScript, isgl1.LanguagePython:
		var p isgl1.ScriptPayload
		if json.Unmarshal([]byte(raw), &p) == nil {
			return p
		}
	case isgl1.LanguageProtobuf:
		var p isgl1.ProtoPayload
		if json.Unmarshal([]byte(raw), &p) == nil {
			return p
		}
	}
	return nil
}
