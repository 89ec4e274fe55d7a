// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package temporal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	cieerrors "github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/pkg/isgl1"
	"github.com/kraklabs/cie/pkg/store"
)

// Engine applies Create/Edit/Delete intents against a Store. It carries
// no state of its own: every public method is a self-contained
// read-modify-write against the entity a caller names.
type Engine struct {
	store  store.Store
	logger *slog.Logger
}

// NewEngine constructs an Engine writing through st. A nil logger
// defaults to slog.Default(), matching the rest of the ingestion stack.
func NewEngine(st store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, logger: logger}
}

// Create allocates a fresh hash-based key for signature, inserts a row in
// the PlannedCreate state with futureCode, and returns the resulting
// entity. signature.Lines is not required to be valid: the entity does
// not exist in present source yet.
func (e *Engine) Create(ctx context.Context, signature isgl1.InterfaceSignature, futureCode string) (isgl1.Entity, error) {
	now := time.Now()
	key, err := isgl1.GenerateHashKey(signature.FilePath, signature.Name, signature.Kind, now)
	if err != nil {
		return isgl1.Entity{}, cieerrors.NewTemporalError(
			"cannot allocate a key for the planned entity",
			err.Error(),
			"supply a non-empty file_path and name",
			err,
		)
	}

	entity := isgl1.Entity{
		Key:        key,
		Signature:  signature,
		FutureCode: futureCode,
		Temporal:   isgl1.PlannedCreate(),
		Class:      isgl1.CodeImplementation,
		CreatedAt:  now,
		UpdatedAt:  now,
		Provenance: "temporal.create",
	}

	if err := e.store.InsertEntity(ctx, entity); err != nil {
		return isgl1.Entity{}, cieerrors.NewTemporalError(
			"failed to insert planned entity",
			err.Error(),
			"retry once the store is writable",
			err,
		)
	}
	e.logger.Info("temporal.create.apply", "key", key, "name", signature.Name)
	return entity, nil
}

// Edit requires that key currently exists (current_ind == true) and
// transitions it to PlannedEdit with newCode as the proposed future
// source. Returns EntityNotFound if key is absent.
func (e *Engine) Edit(ctx context.Context, key, newCode string) error {
	entity, err := e.store.GetEntity(ctx, key)
	if err != nil {
		return e.wrapLookupErr(key, err)
	}
	if !entity.Temporal.CurrentInd() {
		return cieerrors.NewTemporalError(
			"cannot edit an entity that does not currently exist",
			"isgl1_key="+key+" has current_ind=false",
			"edit only applies to entities already indexed from source",
			nil,
		)
	}

	if err := e.store.UpdateTemporalState(ctx, key, isgl1.PlannedEdit(), newCode); err != nil {
		return cieerrors.NewTemporalError(
			"failed to apply planned edit",
			err.Error(),
			"retry once the store is writable",
			err,
		)
	}
	e.logger.Info("temporal.edit.apply", "key", key)
	return nil
}

// Delete requires that key currently exists (current_ind == true) and
// transitions it to PlannedDelete. If key is itself a not-yet-materialized
// PlannedCreate, it instead transitions to PlannedCreateThenDelete so the
// entity never occupies the current timeline. Returns EntityNotFound if
// key is absent, and an illegal-transition error on a double delete.
func (e *Engine) Delete(ctx context.Context, key string) error {
	entity, err := e.store.GetEntity(ctx, key)
	if err != nil {
		return e.wrapLookupErr(key, err)
	}

	switch {
	case entity.Temporal == isgl1.Indexed() || entity.Temporal == isgl1.PlannedEdit():
		if err := e.store.UpdateTemporalState(ctx, key, isgl1.PlannedDelete(), ""); err != nil {
			return cieerrors.NewTemporalError(
				"failed to apply planned delete",
				err.Error(),
				"retry once the store is writable",
				err,
			)
		}
		e.logger.Info("temporal.delete.apply", "key", key)
		return nil
	case entity.Temporal == isgl1.PlannedCreate():
		if err := e.store.UpdateTemporalState(ctx, key, isgl1.PlannedCreateThenDelete(), ""); err != nil {
			return cieerrors.NewTemporalError(
				"failed to apply planned delete",
				err.Error(),
				"retry once the store is writable",
				err,
			)
		}
		e.logger.Info("temporal.delete.apply_unmaterialized", "key", key)
		return nil
	default:
		return cieerrors.NewTemporalError(
			"cannot delete an entity already marked for deletion",
			"isgl1_key="+key+" has temporal state "+entity.Temporal.String(),
			"reset the store before planning another delete on this key",
			nil,
		)
	}
}

// Reset clears every planned mutation in the store, restoring indexed
// entities to Indexed() and deleting any entity whose only presence was a
// planned Create. Delegates entirely to Store.Reset; the Cozo-backed store
// applies it as one write per entity, not as a single transaction.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.store.Reset(ctx); err != nil {
		return cieerrors.NewTemporalError(
			"failed to reset planned changes",
			err.Error(),
			"retry once the store is writable",
			err,
		)
	}
	e.logger.Info("temporal.reset.apply")
	return nil
}

func (e *Engine) wrapLookupErr(key string, err error) error {
	if errors.Is(err, store.ErrEntityNotFound) {
		return cieerrors.NewTemporalError(
			"entity not found",
			"no entity with isgl1_key="+key+" exists in the store",
			"ingest the project first, or check the key for typos",
			err,
		)
	}
	return cieerrors.NewTemporalError(
		"failed to look up entity",
		err.Error(),
		"retry once the store is readable",
		err,
	)
}
