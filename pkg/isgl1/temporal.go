// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package isgl1

import "fmt"

// FutureAction names the pending mutation, if any, proposed against an
// entity's future timeline.
type FutureAction string

const (
	ActionNone   FutureAction = "None"
	ActionCreate FutureAction = "Create"
	ActionEdit   FutureAction = "Edit"
	ActionDelete FutureAction = "Delete"
)

// TemporalState is the (current_ind, future_ind, future_action) triple.
// Fields are unexported so the only way to construct a value is through
// the five named constructors below, making the five legal states the
// only states representable in Go.
type TemporalState struct {
	currentInd   bool
	futureInd    bool
	futureAction FutureAction
}

// Indexed is the initial state assigned by the Ingestion Streamer: the
// entity exists in present source with no pending change.
func Indexed() TemporalState {
	return TemporalState{currentInd: true, futureInd: false, futureAction: ActionNone}
}

// PlannedCreate is the initial state assigned by the Temporal Change
// Engine's Create operation: the entity does not exist yet, but a future
// version has been proposed.
func PlannedCreate() TemporalState {
	return TemporalState{currentInd: false, futureInd: true, futureAction: ActionCreate}
}

// PlannedEdit marks an indexed entity with a pending edit: both timelines
// are populated.
func PlannedEdit() TemporalState {
	return TemporalState{currentInd: true, futureInd: true, futureAction: ActionEdit}
}

// PlannedDelete marks an indexed entity with a pending delete: the future
// timeline is cleared.
func PlannedDelete() TemporalState {
	return TemporalState{currentInd: true, futureInd: false, futureAction: ActionDelete}
}

// PlannedCreateThenDelete is the fifth legal state: a planned Create that
// is deleted before it is ever materialized into the current timeline.
func PlannedCreateThenDelete() TemporalState {
	return TemporalState{currentInd: false, futureInd: false, futureAction: ActionDelete}
}

// CurrentInd reports whether the entity exists in the present timeline.
func (t TemporalState) CurrentInd() bool { return t.currentInd }

// FutureInd reports whether the entity has a pending future timeline.
func (t TemporalState) FutureInd() bool { return t.futureInd }

// FutureActionValue reports the pending mutation, if any.
func (t TemporalState) FutureActionValue() FutureAction { return t.futureAction }

// String renders the triple for logging.
func (t TemporalState) String() string {
	return fmt.Sprintf("(%t,%t,%s)", t.currentInd, t.futureInd, t.futureAction)
}

// legalStates is the closed set of representable triples, used by
// ParseTemporalState to validate values arriving from storage (e.g. rows
// read back from isgl1_entity, or planned-changes documents).
var legalStates = []TemporalState{
	Indexed(),
	PlannedCreate(),
	PlannedEdit(),
	PlannedDelete(),
	PlannedCreateThenDelete(),
}

// ParseTemporalState reconstructs a TemporalState from its three stored
// columns, rejecting any combination outside the five legal states. This
// is the boundary check the Graph Store and Temporal Change Engine use
// when rehydrating rows, since Go's type system cannot enforce invariants
// across a database round-trip the way the unexported-field constructors
// enforce them in memory.
func ParseTemporalState(currentInd, futureInd bool, action FutureAction) (TemporalState, error) {
	candidate := TemporalState{currentInd: currentInd, futureInd: futureInd, futureAction: action}
	for _, legal := range legalStates {
		if legal == candidate {
			return candidate, nil
		}
	}
	return TemporalState{}, fmt.Errorf("isgl1: illegal temporal state (current_ind=%t, future_ind=%t, future_action=%s)", currentInd, futureInd, action)
}
