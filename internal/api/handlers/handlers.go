package handlers

import (
	"github.com/nexerp-ops/procmon-backend-go/internal/config"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/alerts"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/analytics"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/learning"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/rules"
	"github.com/nexerp-ops/procmon-backend-go/internal/database"
	"github.com/nexerp-ops/procmon-backend-go/internal/websocket"
	"github.com/sirupsen/logrus"
)

// Handlers bundles the services every endpoint group needs.
type Handlers struct {
	cfg        *config.Config
	repos      *database.Repositories
	engine     *rules.Engine
	backend    rules.RuleBackend
	classifier *alerts.Classifier
	analytics  *analytics.Service
	learner    *learning.Learner
	hub        *websocket.Hub
	logger     *logrus.Logger
}

// New creates the handler set.
func New(
	cfg *config.Config,
	repos *database.Repositories,
	engine *rules.Engine,
	backend rules.RuleBackend,
	classifier *alerts.Classifier,
	analyticsService *analytics.Service,
	learner *learning.Learner,
	hub *websocket.Hub,
	logger *logrus.Logger,
) *Handlers {
	return &Handlers{
		cfg:        cfg,
		repos:      repos,
		engine:     engine,
		backend:    backend,
		classifier: classifier,
		analytics:  analyticsService,
		learner:    learner,
		hub:        hub,
		logger:     logger,
	}
}
