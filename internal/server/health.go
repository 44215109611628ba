package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncls-p/teapot-facts/infrastructure/teapot"
)

// handleHealth reports liveness. The model is considered ready once the
// pipeline is wired; upstream provider health is not probed here since a
// degraded provider still produces well-formed error results.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"model":  teapot.ModelID,
	})
}
