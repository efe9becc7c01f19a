package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/rules"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
	apperrors "github.com/nexerp-ops/procmon-backend-go/pkg/errors"
)

type ruleRequest struct {
	ID        string               `json:"id"`
	Name      string               `json:"name" binding:"required"`
	Enabled   *bool                `json:"enabled"`
	Type      string               `json:"type"`
	Domain    string               `json:"domain"`
	Condition models.RuleCondition `json:"condition"`
	Content   string               `json:"content"`
}

// CreateRule stores a new monitoring rule.
func (h *Handlers) CreateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	rule := &models.ProcessRule{
		ID:        req.ID,
		Name:      req.Name,
		Enabled:   true,
		Type:      req.Type,
		Domain:    req.Domain,
		Condition: req.Condition,
		Content:   req.Content,
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.Type == "" {
		rule.Type = models.RuleTypeSimple
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := h.repos.Rule.Create(c.Request.Context(), rule); err != nil {
		h.logger.WithError(err).Error("Failed to create rule")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create rule"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": rule})
}

// GetRules lists every stored rule.
func (h *Handlers) GetRules(c *gin.Context) {
	stored, err := h.repos.Rule.GetAll(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list rules")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list rules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stored, "count": len(stored)})
}

// GetRule returns a single rule by id.
func (h *Handlers) GetRule(c *gin.Context) {
	rule, err := h.repos.Rule.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "rule not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get rule")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to get rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rule})
}

// UpdateRule replaces a rule's mutable fields.
func (h *Handlers) UpdateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	rule := &models.ProcessRule{
		ID:        c.Param("id"),
		Name:      req.Name,
		Enabled:   true,
		Type:      req.Type,
		Domain:    req.Domain,
		Condition: req.Condition,
		Content:   req.Content,
	}
	if rule.Type == "" {
		rule.Type = models.RuleTypeSimple
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := h.repos.Rule.Update(c.Request.Context(), rule); err != nil {
		if errors.Is(err, apperrors.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "rule not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update rule")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to update rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rule})
}

// DeleteRule removes a rule.
func (h *Handlers) DeleteRule(c *gin.Context) {
	if err := h.repos.Rule.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, apperrors.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "rule not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to delete rule")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "rule deleted"})
}

type backendRuleRequest struct {
	ID      string `json:"id" binding:"required"`
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
	Domain  string `json:"domain" binding:"required"`
}

// CreateBackendRule compiles a declarative rule in the backend and stores a
// matching rule record so the engine will evaluate it.
func (h *Handlers) CreateBackendRule(c *gin.Context) {
	var req backendRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	compiled, err := h.backend.CreateRule(c.Request.Context(), req.ID, req.Content, req.Type, req.Domain)
	if err != nil {
		rejected := apperrors.WithDetails(apperrors.ErrBackendRejected, err.Error())
		c.JSON(rejected.Code, gin.H{"success": false, "error": rejected.Message, "details": rejected.Details})
		return
	}

	rule := &models.ProcessRule{
		ID:      req.ID,
		Name:    req.ID,
		Enabled: true,
		Type:    models.RuleTypeDeclarative,
		Domain:  req.Domain,
		Content: req.Content,
	}
	if err := h.repos.Rule.Create(c.Request.Context(), rule); err != nil {
		h.logger.WithError(err).Warn("Backend rule compiled but not persisted")
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": compiled})
}

// ExecuteBackendRule executes one compiled rule against supplied facts.
func (h *Handlers) ExecuteBackendRule(c *gin.Context) {
	var facts rules.Event
	if err := c.ShouldBindJSON(&facts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "facts must be a JSON object"})
		return
	}

	result, err := h.backend.ExecuteRule(c.Request.Context(), c.Param("id"), facts)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
