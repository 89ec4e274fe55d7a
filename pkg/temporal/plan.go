// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package temporal

import (
	"context"
	"encoding/json"
	"fmt"

	cieerrors "github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/pkg/isgl1"
)

// OpKind names the mutation a planned-changes record applies.
type OpKind string

const (
	OpEdit   OpKind = "edit"
	OpDelete OpKind = "delete"
	OpCreate OpKind = "create"
)

// Operation is one record of a planned-changes document. Fields are
// shared across the three op kinds; only the fields a given kind uses
// are required.
type Operation struct {
	Op         OpKind        `json:"op"`
	ISGL1Key   string        `json:"isgl1_key,omitempty"`
	FutureCode string        `json:"future_code,omitempty"`
	FilePath   string        `json:"file_path,omitempty"`
	Name       string        `json:"name,omitempty"`
	Kind       isgl1.EntityKind `json:"kind,omitempty"`
	Code       string        `json:"code,omitempty"`
}

// Plan is a planned-changes document: an ordered array of operation
// records submitted by an external planner.
type Plan struct {
	Operations []Operation `json:"operations"`
}

// ParsePlan decodes a planned-changes document and validates every
// record's required fields. Validation failures are collected against
// the offending record's index rather than aborting at the first error,
// so a planner can fix every problem in one pass.
func ParsePlan(data []byte) (Plan, error) {
	var raw struct {
		Operations []Operation `json:"operations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Plan{}, cieerrors.NewSerializationError(
			"malformed planned-changes document",
			err.Error(),
			"ensure the document is a JSON object with a top-level \"operations\" array",
			err,
		)
	}

	var problems []string
	for i, op := range raw.Operations {
		if err := op.validate(); err != nil {
			problems = append(problems, fmt.Sprintf("operations[%d]: %v", i, err))
		}
	}
	if len(problems) > 0 {
		return Plan{}, cieerrors.NewSerializationError(
			"planned-changes document failed validation",
			fmt.Sprintf("%d invalid operation(s): %v", len(problems), problems),
			"fix the listed records and resubmit the document",
			nil,
		)
	}
	return Plan{Operations: raw.Operations}, nil
}

func (op Operation) validate() error {
	switch op.Op {
	case OpEdit:
		if op.ISGL1Key == "" {
			return fmt.Errorf("edit requires isgl1_key")
		}
	case OpDelete:
		if op.ISGL1Key == "" {
			return fmt.Errorf("delete requires isgl1_key")
		}
	case OpCreate:
		if op.FilePath == "" || op.Name == "" || op.Kind == "" {
			return fmt.Errorf("create requires file_path, name, and kind")
		}
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}

// Apply runs every operation in plan against e in order, in one call.
// The first failure aborts the remaining operations and is returned
// alongside how many operations had already succeeded.
func (e *Engine) Apply(ctx context.Context, plan Plan) (applied int, err error) {
	for _, op := range plan.Operations {
		switch op.Op {
		case OpEdit:
			if err := e.Edit(ctx, op.ISGL1Key, op.FutureCode); err != nil {
				return applied, err
			}
		case OpDelete:
			if err := e.Delete(ctx, op.ISGL1Key); err != nil {
				return applied, err
			}
		case OpCreate:
			signature := isgl1.InterfaceSignature{
				Kind:     op.Kind,
				Name:     op.Name,
				FilePath: op.FilePath,
			}
			if _, err := e.Create(ctx, signature, op.Code); err != nil {
				return applied, err
			}
		default:
			return applied, cieerrors.NewSerializationError(
				"unknown operation kind",
				fmt.Sprintf("op=%q", op.Op),
				"use one of: edit, delete, create",
				nil,
			)
		}
		applied++
	}
	return applied, nil
}
