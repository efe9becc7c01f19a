package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
)

// GetRuleAnalysis returns the learner's performance analysis for a rule.
func (h *Handlers) GetRuleAnalysis(c *gin.Context) {
	analysis := h.learner.AnalyzeRulePerformance(c.Param("id"), queryDays(c, 30))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": analysis})
}

// LearnFromFeedback aggregates recent feedback for a rule into suggestions.
func (h *Handlers) LearnFromFeedback(c *gin.Context) {
	summary, err := h.learner.LearnFromFeedback(c.Request.Context(), c.Param("id"), queryDays(c, 30))
	if err != nil {
		h.logger.WithError(err).Error("Feedback learning failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to learn from feedback"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

// OptimizeRule asks the learner to synthesize and register an optimized
// variant of a rule.
func (h *Handlers) OptimizeRule(c *gin.Context) {
	record, err := h.learner.AutoOptimizeRule(c.Request.Context(), c.Param("id"), queryDays(c, 30))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": record})
}

// GetLearningInsights reports the learner's accumulated activity, optionally
// restricted to a single rule via ?rule_id=.
func (h *Handlers) GetLearningInsights(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.learner.LearningInsights(c.Query("rule_id"))})
}

type feedbackRequest struct {
	RuleID       string   `json:"rule_id" binding:"required"`
	Type         string   `json:"type" binding:"required"`
	Issue        string   `json:"issue"`
	Satisfaction *float64 `json:"satisfaction"`
	Details      string   `json:"details"`
}

// SubmitFeedback stores one user feedback entry for a rule.
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Satisfaction != nil && (*req.Satisfaction < 0 || *req.Satisfaction > 1) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "satisfaction must be between 0 and 1"})
		return
	}

	entry := &models.RuleFeedback{
		RuleID:  req.RuleID,
		Type:    req.Type,
		Issue:   req.Issue,
		Details: req.Details,
	}
	if req.Satisfaction != nil {
		entry.Satisfaction = sql.NullFloat64{Float64: *req.Satisfaction, Valid: true}
	}

	if _, err := h.repos.Feedback.Insert(c.Request.Context(), entry); err != nil {
		h.logger.WithError(err).Error("Failed to store feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to store feedback"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "feedback recorded"})
}
