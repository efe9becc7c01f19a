package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/alerts"
)

type classifyRequest struct {
	Source string  `json:"source"`
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	RuleID string  `json:"rule_id"`
}

// ClassifyAlert classifies a raw signal without persisting it.
func (h *Handlers) ClassifyAlert(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	alert, err := h.classifier.Classify(alerts.Signal{
		Source: req.Source,
		Metric: req.Metric,
		Value:  req.Value,
		RuleID: req.RuleID,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": alert})
}

// GetAlerts lists recently stored alerts.
func (h *Handlers) GetAlerts(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	stored, err := h.repos.Alert.GetRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stored, "count": len(stored)})
}

// GetAlertStatistics rolls stored alerts up by level and category over a
// trailing window.
func (h *Handlers) GetAlertStatistics(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}
	since := time.Now().AddDate(0, 0, -days)

	byLevel, err := h.repos.Alert.CountByLevel(c.Request.Context(), since)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count alerts by level")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to compute statistics"})
		return
	}

	byCategory, err := h.repos.Alert.CountByCategory(c.Request.Context(), since)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count alerts by category")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to compute statistics"})
		return
	}

	total := 0
	for _, count := range byLevel {
		total += count
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"period_days": days,
			"total":       total,
			"by_level":    byLevel,
			"by_category": byCategory,
		},
	})
}

// GetAlertLevels lists the supported severity levels in ascending order.
func (h *Handlers) GetAlertLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": alerts.Levels()})
}

// GetAlertCategories lists the supported alert categories.
func (h *Handlers) GetAlertCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": alerts.Categories()})
}

// GetEscalationPolicies returns the configured escalation policy sets.
func (h *Handlers) GetEscalationPolicies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.classifier.Tables().EscalationPolicies})
}

// GetNotificationStrategy resolves the notification strategy for a
// category and level pair.
func (h *Handlers) GetNotificationStrategy(c *gin.Context) {
	category := alerts.Category(c.Query("category"))
	level := alerts.Level(c.Query("level"))
	if !category.Valid() || !level.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown category or level"})
		return
	}

	strategy := h.classifier.ResolveNotification(category, level)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": strategy})
}

// GetAutoResolution resolves the auto-resolution plan for a source, metric
// and level triple.
func (h *Handlers) GetAutoResolution(c *gin.Context) {
	level := alerts.Level(c.Query("level"))
	if !level.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown level"})
		return
	}

	resolution := h.classifier.ResolveAutoResolution(c.Query("source"), c.Query("metric"), level)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resolution})
}
