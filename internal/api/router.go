package api

import (
	"github.com/gin-gonic/gin"
	"github.com/nexerp-ops/procmon-backend-go/internal/api/handlers"
	"github.com/nexerp-ops/procmon-backend-go/internal/api/middleware"
	"github.com/nexerp-ops/procmon-backend-go/internal/config"
	"github.com/nexerp-ops/procmon-backend-go/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(cfg *config.Config, h *handlers.Handlers, hub *websocket.Hub, logger *logrus.Logger) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.ErrorHandlingMiddleware(logger))
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", websocket.HandleWebSocketGin(hub))
	r.GET("/ws/stats", h.WebSocketStats)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/events", h.SubmitEvent)

		rules := v1.Group("/rules")
		{
			rules.POST("", h.CreateRule)
			rules.GET("", h.GetRules)
			rules.GET("/:id", h.GetRule)
			rules.PUT("/:id", h.UpdateRule)
			rules.DELETE("/:id", h.DeleteRule)
		}

		backend := v1.Group("/backend/rules")
		{
			backend.POST("", h.CreateBackendRule)
			backend.POST("/:id/execute", h.ExecuteBackendRule)
		}

		alerts := v1.Group("/alerts")
		{
			alerts.GET("", h.GetAlerts)
			alerts.POST("/classify", h.ClassifyAlert)
			alerts.GET("/statistics", h.GetAlertStatistics)
			alerts.GET("/levels", h.GetAlertLevels)
			alerts.GET("/categories", h.GetAlertCategories)
			alerts.GET("/escalation-policies", h.GetEscalationPolicies)
			alerts.GET("/notification-strategy", h.GetNotificationStrategy)
			alerts.GET("/auto-resolution", h.GetAutoResolution)
		}

		analytics := v1.Group("/analytics")
		{
			analytics.GET("/rules/:id/performance", h.GetRulePerformance)
			analytics.GET("/rules/:id/recommendations", h.GetRuleRecommendations)
			analytics.POST("/compare", h.CompareRules)
			analytics.GET("/system", h.GetSystemAnalytics)
			analytics.GET("/export", h.ExportAnalytics)
			analytics.POST("/executions", h.RecordExecution)
		}

		learning := v1.Group("/learning")
		{
			learning.GET("/rules/:id/analysis", h.GetRuleAnalysis)
			learning.POST("/rules/:id/learn", h.LearnFromFeedback)
			learning.POST("/rules/:id/optimize", h.OptimizeRule)
			learning.GET("/insights", h.GetLearningInsights)
		}

		v1.POST("/feedback", h.SubmitFeedback)
	}

	return r
}
