package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/repositories"
	"github.com/nexerp-ops/procmon-backend-go/pkg/errors"
)

// RuleRepository implements repositories.RuleRepository
type RuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository creates a new RuleRepository
func NewRuleRepository(db *sqlx.DB) repositories.RuleRepository {
	return &RuleRepository{db: db}
}

// Create inserts a new rule.
func (r *RuleRepository) Create(ctx context.Context, rule *models.ProcessRule) error {
	query := `
		INSERT INTO process_rules (id, name, enabled, type, domain, condition, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	_, err := r.db.ExecContext(
		ctx,
		query,
		rule.ID,
		rule.Name,
		rule.Enabled,
		rule.Type,
		rule.Domain,
		rule.Condition,
		rule.Content,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	rule.CreatedAt = now
	rule.UpdatedAt = now
	return nil
}

// GetByID retrieves a rule by id.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.ProcessRule, error) {
	query := `
		SELECT id, name, enabled, type, domain, condition, content, created_at, updated_at
		FROM process_rules WHERE id = ?
	`

	var rule models.ProcessRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get rule %s: %w", id, err)
	}
	return &rule, nil
}

// GetAll returns every rule. Callers snapshot this result before iterating an
// evaluation pass so store mutations cannot corrupt the pass.
func (r *RuleRepository) GetAll(ctx context.Context) ([]*models.ProcessRule, error) {
	query := `
		SELECT id, name, enabled, type, domain, condition, content, created_at, updated_at
		FROM process_rules ORDER BY created_at
	`

	rules := []*models.ProcessRule{}
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// Update rewrites an existing rule. Last writer wins.
func (r *RuleRepository) Update(ctx context.Context, rule *models.ProcessRule) error {
	query := `
		UPDATE process_rules
		SET name = ?, enabled = ?, type = ?, domain = ?, condition = ?, content = ?, updated_at = ?
		WHERE id = ?
	`

	now := time.Now()
	result, err := r.db.ExecContext(
		ctx,
		query,
		rule.Name,
		rule.Enabled,
		rule.Type,
		rule.Domain,
		rule.Condition,
		rule.Content,
		now,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", rule.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return errors.ErrRuleNotFound
	}

	rule.UpdatedAt = now
	return nil
}

// Delete removes a rule by id.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM process_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return errors.ErrRuleNotFound
	}
	return nil
}
