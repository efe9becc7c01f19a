package repositories

import (
	"context"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
)

// RuleRepository defines rule store access. The pipeline consumes only
// GetAll; mutation is driven by the management API.
type RuleRepository interface {
	Create(ctx context.Context, rule *models.ProcessRule) error
	GetByID(ctx context.Context, id string) (*models.ProcessRule, error)
	GetAll(ctx context.Context) ([]*models.ProcessRule, error)
	Update(ctx context.Context, rule *models.ProcessRule) error
	Delete(ctx context.Context, id string) error
}

// AlertRepository defines classified-alert persistence.
type AlertRepository interface {
	Insert(ctx context.Context, alert *models.ProcessAlert) (int64, error)
	GetRecent(ctx context.Context, limit int) ([]*models.ProcessAlert, error)
	CountByLevel(ctx context.Context, since time.Time) (map[string]int, error)
	CountByCategory(ctx context.Context, since time.Time) (map[string]int, error)
}

// FeedbackRepository defines rule feedback access for the learner.
type FeedbackRepository interface {
	Insert(ctx context.Context, fb *models.RuleFeedback) (int64, error)
	GetRecent(ctx context.Context, ruleID string, since time.Time) ([]*models.RuleFeedback, error)
}
