// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package isgl1

import "testing"

func TestParseTemporalState_AcceptsLegalStates(t *testing.T) {
	tests := []struct {
		name       string
		currentInd bool
		futureInd  bool
		action     FutureAction
	}{
		{"indexed", true, false, ActionNone},
		{"planned create", false, true, ActionCreate},
		{"planned edit", true, true, ActionEdit},
		{"planned delete", true, false, ActionDelete},
		{"planned create then delete", false, false, ActionDelete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTemporalState(tt.currentInd, tt.futureInd, tt.action); err != nil {
				t.Errorf("expected legal state, got error: %v", err)
			}
		})
	}
}

func TestParseTemporalState_RejectsIllegalStates(t *testing.T) {
	tests := []struct {
		name       string
		currentInd bool
		futureInd  bool
		action     FutureAction
	}{
		{"both false, no action", false, false, ActionNone},
		{"both true, no action", true, true, ActionNone},
		{"create with current", true, true, ActionCreate},
		{"edit with only future", false, true, ActionEdit},
		{"delete with future still set", true, true, ActionDelete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTemporalState(tt.currentInd, tt.futureInd, tt.action); err == nil {
				t.Errorf("expected illegal state to be rejected")
			}
		})
	}
}

func TestTemporalState_Accessors(t *testing.T) {
	s := PlannedEdit()
	if !s.CurrentInd() || !s.FutureInd() || s.FutureActionValue() != ActionEdit {
		t.Errorf("PlannedEdit() accessors returned unexpected values: %s", s)
	}
}

func TestTemporalState_ConstructorsMatchParse(t *testing.T) {
	constructors := []TemporalState{
		Indexed(),
		PlannedCreate(),
		PlannedEdit(),
		PlannedDelete(),
		PlannedCreateThenDelete(),
	}
	for _, s := range constructors {
		parsed, err := ParseTemporalState(s.CurrentInd(), s.FutureInd(), s.FutureActionValue())
		if err != nil {
			t.Errorf("constructor state %s should round-trip through ParseTemporalState: %v", s, err)
		}
		if parsed != s {
			t.Errorf("round-tripped state %s != original %s", parsed, s)
		}
	}
}
