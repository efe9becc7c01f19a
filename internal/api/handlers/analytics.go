package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/analytics"
)

func queryDays(c *gin.Context, fallback int) int {
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// GetRulePerformance returns the performance summary for one rule.
func (h *Handlers) GetRulePerformance(c *gin.Context) {
	summary := h.analytics.RulePerformanceSummary(c.Param("id"), queryDays(c, 30))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

type compareRequest struct {
	RuleIDs []string `json:"rule_ids" binding:"required"`
	Days    int      `json:"days"`
}

// CompareRules compares performance across a set of rules.
func (h *Handlers) CompareRules(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	comparison := h.analytics.RuleComparison(req.RuleIDs, req.Days)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": comparison})
}

// GetSystemAnalytics returns the system-wide rollup.
func (h *Handlers) GetSystemAnalytics(c *gin.Context) {
	summary := h.analytics.SystemAnalytics(queryDays(c, 30))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

// GetRuleRecommendations returns tuning recommendations for one rule.
func (h *Handlers) GetRuleRecommendations(c *gin.Context) {
	recommendations := h.analytics.OptimizationRecommendations(c.Param("id"), queryDays(c, 30))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": recommendations})
}

// ExportAnalytics returns a snapshot of summaries, raw records and
// recommendations. An empty rule_id exports the whole system.
func (h *Handlers) ExportAnalytics(c *gin.Context) {
	export := h.analytics.Export(c.Query("rule_id"), queryDays(c, 30))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": export})
}

type recordExecutionRequest struct {
	RuleID          string                 `json:"rule_id" binding:"required"`
	ExecutionTime   float64                `json:"execution_time"`
	Success         bool                   `json:"success"`
	Matched         bool                   `json:"matched"`
	FactsCount      int                    `json:"facts_count"`
	ActionsCount    int                    `json:"actions_count"`
	AlertsGenerated int                    `json:"alerts_generated"`
	Context         map[string]interface{} `json:"context"`
}

// RecordExecution lets external executors feed the analytics window.
func (h *Handlers) RecordExecution(c *gin.Context) {
	var req recordExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.analytics.RecordExecution(req.RuleID, analytics.ExecutionData{
		ExecutionTime:   req.ExecutionTime,
		Success:         req.Success,
		Matched:         req.Matched,
		FactsCount:      req.FactsCount,
		ActionsCount:    req.ActionsCount,
		AlertsGenerated: req.AlertsGenerated,
		Context:         req.Context,
	})

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "execution recorded"})
}
