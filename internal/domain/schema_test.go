package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTypeOf(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want FieldType
	}{
		{name: "string", in: "string", want: TypeString},
		{name: "number", in: "number", want: TypeNumber},
		{name: "integer", in: "integer", want: TypeInteger},
		{name: "boolean", in: "boolean", want: TypeBoolean},
		{name: "mixed case", in: "Integer", want: TypeInteger},
		{name: "upper case", in: "BOOLEAN", want: TypeBoolean},
		{name: "unknown falls back to string", in: "datetime", want: TypeString},
		{name: "empty falls back to string", in: "", want: TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldTypeOf(tt.in))
		})
	}
}

func TestNewExtractionSchema(t *testing.T) {
	tests := []struct {
		name      string
		schema    string
		fields    []FieldSpec
		wantError bool
	}{
		{
			name:   "valid single field",
			schema: "person",
			fields: []FieldSpec{{Name: "city", Type: TypeString}},
		},
		{
			name:   "valid multiple fields",
			schema: "person",
			fields: []FieldSpec{
				{Name: "name", Type: TypeString, Description: "full name"},
				{Name: "age", Type: TypeInteger},
				{Name: "score", Type: TypeNumber},
				{Name: "active", Type: TypeBoolean},
			},
		},
		{
			name:      "no fields",
			schema:    "empty",
			fields:    nil,
			wantError: true,
		},
		{
			name:      "empty field name",
			schema:    "bad",
			fields:    []FieldSpec{{Name: "", Type: TypeString}},
			wantError: true,
		},
		{
			name:   "duplicate field name",
			schema: "dup",
			fields: []FieldSpec{
				{Name: "city", Type: TypeString},
				{Name: "city", Type: TypeInteger},
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := NewExtractionSchema(tt.schema, tt.fields)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.schema, schema.Name)
			assert.Equal(t, tt.fields, schema.Fields)
		})
	}
}

func TestNewExtractionSchema_DefaultName(t *testing.T) {
	schema, err := NewExtractionSchema("", []FieldSpec{{Name: "x", Type: TypeString}})
	require.NoError(t, err)
	assert.Equal(t, "extraction", schema.Name)
}

func TestErrorCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "invalid input", err: ErrInvalidInput, want: "invalid_input"},
		{name: "missing context", err: ErrMissingContext, want: "missing_context"},
		{name: "upstream", err: ErrUpstreamFailure, want: "upstream_failure"},
		{name: "extraction", err: ErrExtractionFailure, want: "extraction_failure"},
		{name: "wrapped", err: NewPipelineError("check_fact", ErrUpstreamFailure), want: "upstream_failure"},
		{name: "unclassified", err: errors.New("boom"), want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCategory(tt.err))
		})
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	err := NewPipelineError("extract", ErrMissingContext)
	assert.ErrorIs(t, err, ErrMissingContext)
	assert.Contains(t, err.Error(), "extract")
}
