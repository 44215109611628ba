package factcheck

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ncls-p/teapot-facts/internal/domain"
	"github.com/ncls-p/teapot-facts/internal/ports"
)

// Extractor drives the model's schema-guided extraction for a dynamically
// described field set. Like the Checker it is stateless and failure-safe:
// every outcome is an ExtractionResult, never an error.
type Extractor struct {
	model   ports.QAModel
	logger  *slog.Logger
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewExtractor creates an Extractor around the shared model instance.
// The metrics collector may be nil.
func NewExtractor(model ports.QAModel, logger *slog.Logger, metrics ports.MetricsCollector) (*Extractor, error) {
	if model == nil {
		return nil, ErrModelNil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		model:   model,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("factcheck-extractor"),
	}, nil
}

// Extract runs schema-guided extraction over the request's grounding.
// When documents are supplied without an explicit context, the context is
// derived by joining their contents. A request with no usable context fails
// with a missing-context error result.
//
// The model's output is normalized to a plain field-name-to-value mapping
// with each value coerced to its declared type. An opaque representation
// the model layer could not recognize passes through as a successful
// result holding its string form under a single "result" key. Any failure
// during delegation or normalization is reported as {success:false,
// error}, never raised to the caller.
func (e *Extractor) Extract(
	ctx context.Context,
	schema domain.ExtractionSchema,
	query, contextText string,
	documents []domain.Document,
) domain.ExtractionResult {
	ctx, span := e.tracer.Start(ctx, "Extractor.Extract",
		trace.WithAttributes(
			attribute.String("extract.schema", schema.Name),
			attribute.Int("extract.fields_count", len(schema.Fields)),
			attribute.Int("extract.documents_count", len(documents)),
		),
	)
	defer span.End()

	start := time.Now()

	if contextText == "" && len(documents) > 0 {
		contextText = joinDocumentContents(documents)
	}
	if contextText == "" {
		e.logger.Warn("no context provided for extraction", "schema", schema.Name)
		e.count("extraction_requests_total", "missing_context")
		return domain.NewExtractionError("context is required for information extraction")
	}

	raw, err := e.model.Extract(ctx, schema, contextText, query)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("extraction failed",
			"category", domain.ErrorCategory(err),
			"schema", schema.Name,
			"context", truncateForLog(contextText),
			"error", err,
		)
		e.count("extraction_requests_total", domain.ErrorCategory(err))
		return domain.NewExtractionError(fmt.Sprintf("extraction failed: %v", err))
	}

	data, err := normalizeExtraction(schema, raw)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("extraction normalization failed",
			"category", domain.ErrorCategory(err),
			"schema", schema.Name,
			"error", err,
		)
		e.count("extraction_requests_total", domain.ErrorCategory(err))
		return domain.NewExtractionError(fmt.Sprintf("extraction failed: %v", err))
	}

	span.SetAttributes(attribute.Int64("extract.latency_ms", time.Since(start).Milliseconds()))
	e.count("extraction_requests_total", "ok")
	e.logger.Info("extraction complete", "schema", schema.Name, "fields", len(data))
	return domain.ExtractionResult{Success: true, Data: data}
}

func (e *Extractor) count(metric, status string) {
	if e.metrics != nil {
		e.metrics.RecordCounter(metric, 1, map[string]string{"status": status})
	}
}

// normalizeExtraction reduces the model's raw output to the declared field
// set with each value coerced to its FieldSpec type. A declared field the
// model did not produce is an extraction failure; extra fields the model
// invented are dropped. The opaque fallback shape is passed through
// untyped instead of being measured against the declared fields.
func normalizeExtraction(schema domain.ExtractionSchema, raw map[string]any) (map[string]any, error) {
	if value, ok := opaqueResult(schema, raw); ok {
		return map[string]any{domain.OpaqueResultKey: value}, nil
	}

	data := make(map[string]any, len(schema.Fields))
	for _, field := range schema.Fields {
		value, ok := raw[field.Name]
		if !ok {
			return nil, fmt.Errorf("%w: model output missing field %q", domain.ErrExtractionFailure, field.Name)
		}
		coerced, err := coerceValue(field.Type, value)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", domain.ErrExtractionFailure, field.Name, err)
		}
		data[field.Name] = coerced
	}
	return data, nil
}

// opaqueResult detects the model layer's opaque fallback: a sole "result"
// key the schema does not declare. The value is reported as its string
// form. A schema that declares its own "result" field takes the normal
// coercion path instead.
func opaqueResult(schema domain.ExtractionSchema, raw map[string]any) (string, bool) {
	if len(raw) != 1 {
		return "", false
	}
	value, ok := raw[domain.OpaqueResultKey]
	if !ok {
		return "", false
	}
	for _, field := range schema.Fields {
		if field.Name == domain.OpaqueResultKey {
			return "", false
		}
	}
	if s, ok := value.(string); ok {
		return s, true
	}
	return fmt.Sprint(value), true
}

// coerceValue converts a raw model value into the declared primitive type.
// JSON decoding yields float64 for all numbers, so integer declarations
// accept whole-valued floats; strings are parsed as a last resort since
// models frequently quote scalar values.
func coerceValue(fieldType domain.FieldType, value any) (any, error) {
	switch fieldType {
	case domain.TypeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprint(value), nil

	case domain.TypeNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as number", v)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to number", value)
		}

	case domain.TypeInteger:
		switch v := value.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("value %v is not an integer", v)
			}
			return int64(v), nil
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case string:
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as integer", v)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to integer", value)
		}

	case domain.TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as boolean", v)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to boolean", value)
		}

	default:
		return nil, fmt.Errorf("unsupported field type %q", fieldType)
	}
}
