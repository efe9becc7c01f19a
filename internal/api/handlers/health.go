package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Health reports service liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status":    "healthy",
			"uptime":    time.Since(startTime).String(),
			"timestamp": time.Now().UTC(),
		},
	})
}

// WebSocketStats reports hub connection counters.
func (h *Handlers) WebSocketStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.hub.Stats()})
}
