package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/repositories"
)

// FeedbackRepository implements repositories.FeedbackRepository
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *sqlx.DB) repositories.FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert stores a feedback entry for a rule.
func (r *FeedbackRepository) Insert(ctx context.Context, fb *models.RuleFeedback) (int64, error) {
	query := `
		INSERT INTO rule_feedback (rule_id, type, issue, satisfaction, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		fb.RuleID,
		fb.Type,
		fb.Issue,
		fb.Satisfaction,
		fb.Details,
		fb.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert feedback: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted feedback ID: %w", err)
	}

	fb.ID = id
	return id, nil
}

// GetRecent returns feedback for a rule newer than the given time.
func (r *FeedbackRepository) GetRecent(ctx context.Context, ruleID string, since time.Time) ([]*models.RuleFeedback, error) {
	query := `
		SELECT id, rule_id, type, issue, satisfaction, details, created_at
		FROM rule_feedback WHERE rule_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`

	feedback := []*models.RuleFeedback{}
	if err := r.db.SelectContext(ctx, &feedback, query, ruleID, since); err != nil {
		return nil, fmt.Errorf("failed to list feedback for rule %s: %w", ruleID, err)
	}
	return feedback, nil
}
