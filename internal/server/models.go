package server

import (
	"net/http"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/gin-gonic/gin"

	"github.com/ncls-p/teapot-facts/infrastructure/teapot"
)

// suggestionDistanceLimit bounds how far a requested model id may be from a
// known id before the 404 stops offering a suggestion.
const suggestionDistanceLimit = 5

// knownModelIDs lists the model identifiers this service serves.
var knownModelIDs = []string{teapot.ModelID}

// modelCard builds the OpenAI-compatible model object.
func modelCard(created int64) gin.H {
	return gin.H{
		"id":         teapot.ModelID,
		"object":     "model",
		"created":    created,
		"owned_by":   teapot.ModelOwner,
		"permission": []any{},
		"root":       teapot.ModelID,
		"parent":     nil,
	}
}

// handleListModels serves GET /v1/models.
func (s *Server) handleListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   []gin.H{modelCard(time.Now().Unix())},
	})
}

// handleGetModel serves GET /v1/models/:id. Unknown identifiers get a 404
// that names the nearest known model when the request looks like a typo.
func (s *Server) handleGetModel(c *gin.Context) {
	id := c.Param("id")
	if id == teapot.ModelID {
		c.JSON(http.StatusOK, modelCard(time.Now().Unix()))
		return
	}

	body := gin.H{"error": "model not found"}
	if suggestion, ok := nearestModelID(id); ok {
		body["did_you_mean"] = suggestion
	}
	c.JSON(http.StatusNotFound, body)
}

// nearestModelID returns the known model id closest to the requested one,
// when the edit distance is small enough to plausibly be a typo.
func nearestModelID(requested string) (string, bool) {
	best := ""
	bestDistance := suggestionDistanceLimit + 1
	for _, known := range knownModelIDs {
		if d := levenshtein.ComputeDistance(requested, known); d < bestDistance {
			best = known
			bestDistance = d
		}
	}
	return best, best != ""
}
