package database

import (
	"github.com/jmoiron/sqlx"

	"github.com/nexerp-ops/procmon-backend-go/internal/database/repositories"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/sqlite"
)

// Repositories bundles all data access implementations.
type Repositories struct {
	Rule     repositories.RuleRepository
	Alert    repositories.AlertRepository
	Feedback repositories.FeedbackRepository
}

// NewRepositories creates repository implementations backed by SQLite.
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Rule:     sqlite.NewRuleRepository(db),
		Alert:    sqlite.NewAlertRepository(db),
		Feedback: sqlite.NewFeedbackRepository(db),
	}
}
