package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// indexDocumentsRequest is the body of POST /v1/documents.
type indexDocumentsRequest struct {
	Documents []documentPayload `json:"documents" binding:"required,min=1"`
}

// handleIndexDocuments appends documents to the model's retained store.
// Indexed documents back the source-fallback path of later fact checks
// that carry no documents of their own.
func (s *Server) handleIndexDocuments(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "handleIndexDocuments")
	defer span.End()

	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document store is not available"})
		return
	}

	var req indexDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		s.logger.Warn("malformed document index request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	total := s.store.IndexDocuments(toDocuments(req.Documents))
	span.SetAttributes(
		attribute.Int("documents.indexed", len(req.Documents)),
		attribute.Int("documents.total", total),
	)
	s.logger.Info("documents indexed", "indexed", len(req.Documents), "total", total)

	c.JSON(http.StatusOK, gin.H{
		"indexed": len(req.Documents),
		"total":   total,
	})
}

// handleListDocuments returns the model's retained store.
func (s *Server) handleListDocuments(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document store is not available"})
		return
	}

	stored := s.store.StoredDocuments()
	data := make([]documentPayload, len(stored))
	for i, doc := range stored {
		data[i] = documentPayload{Content: doc.Content, Metadata: doc.Metadata}
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}

// handleClearDocuments empties the model's retained store.
func (s *Server) handleClearDocuments(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document store is not available"})
		return
	}

	removed := s.store.ClearDocuments()
	s.logger.Info("documents cleared", "removed", removed)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
