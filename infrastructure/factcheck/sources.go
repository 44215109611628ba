package factcheck

import (
	"fmt"

	"github.com/ncls-p/teapot-facts/internal/domain"
	"github.com/ncls-p/teapot-facts/internal/ports"
)

// NormalizeSources converts heterogeneous document representations into the
// uniform, truncated SourceEntry list attached to verification results.
//
// When stored is non-empty, each document maps 1:1 to a SourceEntry in input
// order. Otherwise the model's own document store is consulted through the
// fallback provider; elements there may be plain strings, domain documents,
// content-keyed mappings, or arbitrary values, and each variant is reduced
// to a text excerpt plus metadata.
//
// Sources are best-effort: any failure reading the fallback provider yields
// an empty list and is never fatal to the surrounding verification call.
// No deduplication is performed.
func NormalizeSources(stored []domain.Document, fallback ports.DocumentProvider) []domain.SourceEntry {
	if len(stored) > 0 {
		sources := make([]domain.SourceEntry, 0, len(stored))
		for _, doc := range stored {
			sources = append(sources, domain.NewSourceEntry(doc.Content, doc.Metadata))
		}
		return sources
	}

	return fallbackSources(fallback)
}

// fallbackSources reads the model-retained document store. The provider is
// outside this package's control, so the read is guarded: a nil provider,
// nil slice, or a panicking implementation all collapse to an empty result.
func fallbackSources(fallback ports.DocumentProvider) (sources []domain.SourceEntry) {
	defer func() {
		if recover() != nil {
			sources = []domain.SourceEntry{}
		}
	}()

	sources = []domain.SourceEntry{}
	if fallback == nil {
		return sources
	}

	for _, raw := range fallback.Documents() {
		sources = append(sources, normalizeVariant(raw))
	}
	return sources
}

// normalizeVariant reduces one fallback element to a SourceEntry, handling
// the closed set of shapes the model store may expose. Unrecognized shapes
// are string-coerced rather than dropped.
func normalizeVariant(raw any) domain.SourceEntry {
	switch doc := raw.(type) {
	case string:
		return domain.NewSourceEntry(doc, nil)
	case domain.Document:
		return domain.NewSourceEntry(doc.Content, doc.Metadata)
	case *domain.Document:
		if doc == nil {
			return domain.NewSourceEntry("", nil)
		}
		return domain.NewSourceEntry(doc.Content, doc.Metadata)
	case map[string]any:
		content, ok := doc["content"].(string)
		if !ok {
			content = fmt.Sprint(raw)
		}
		metadata, _ := doc["metadata"].(map[string]any)
		return domain.NewSourceEntry(content, metadata)
	default:
		return domain.NewSourceEntry(fmt.Sprint(raw), nil)
	}
}
