package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/rules"
)

// SubmitEvent runs one event through the evaluation engine.
func (h *Handlers) SubmitEvent(c *gin.Context) {
	var event rules.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "event must be a JSON object",
		})
		return
	}
	if len(event) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "event must not be empty",
		})
		return
	}

	result, err := h.engine.Evaluate(c.Request.Context(), event)
	if err != nil {
		h.logger.WithError(err).Error("Event evaluation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to evaluate event",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
