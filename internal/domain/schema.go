package domain

import (
	"fmt"
	"strings"
)

// FieldType enumerates the primitive value types an extraction field may
// declare. The set is closed; richer shapes are expressed by composing
// multiple fields.
type FieldType string

// Supported extraction field types.
const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
)

// FieldTypeOf maps a client-supplied type name to a FieldType.
// Matching is case-insensitive and unrecognized names fall back to
// TypeString, mirroring the permissive behavior callers depend on.
func FieldTypeOf(name string) FieldType {
	switch strings.ToLower(name) {
	case "number":
		return TypeNumber
	case "integer":
		return TypeInteger
	case "boolean":
		return TypeBoolean
	default:
		return TypeString
	}
}

// FieldSpec describes one field of an extraction schema.
type FieldSpec struct {
	// Name identifies the field and must be unique within its schema.
	Name string `json:"name" validate:"required"`

	// Type is the declared primitive type of the extracted value.
	Type FieldType `json:"type" validate:"required,oneof=string number integer boolean"`

	// Description optionally guides the model toward the intended value.
	Description string `json:"description,omitempty"`
}

// ExtractionSchema is a named, ordered set of field specifications built
// per request from client input. Schemas are never persisted.
type ExtractionSchema struct {
	Name   string      `json:"name"`
	Fields []FieldSpec `json:"fields"`
}

// NewExtractionSchema assembles and validates a schema from field specs.
// It enforces a non-empty field list, non-empty names, and name uniqueness.
func NewExtractionSchema(name string, fields []FieldSpec) (ExtractionSchema, error) {
	if name == "" {
		name = "extraction"
	}
	if len(fields) == 0 {
		return ExtractionSchema{}, fmt.Errorf("%w: schema requires at least one field", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return ExtractionSchema{}, fmt.Errorf("%w: field %d has an empty name", ErrInvalidInput, i)
		}
		if _, dup := seen[f.Name]; dup {
			return ExtractionSchema{}, fmt.Errorf("%w: duplicate field name %q", ErrInvalidInput, f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	return ExtractionSchema{Name: name, Fields: fields}, nil
}

// OpaqueResultKey is the single field name under which an extraction whose
// model output could not be recognized is still surfaced: the string form
// of the output, with success reported. Opaque output is a degraded result,
// not a failure.
const OpaqueResultKey = "result"

// ExtractionResult is the outcome of a structured extraction: either a
// mapping from field name to typed value, or a structured error.
// Like VerificationResult, it is always well-formed.
type ExtractionResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// NewExtractionError builds the failure-shaped ExtractionResult.
func NewExtractionError(message string) ExtractionResult {
	return ExtractionResult{Success: false, Error: message}
}
