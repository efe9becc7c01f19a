package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/repositories"
)

// AlertRepository implements repositories.AlertRepository
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository creates a new AlertRepository
func NewAlertRepository(db *sqlx.DB) repositories.AlertRepository {
	return &AlertRepository{db: db}
}

// Insert stores a classified alert.
func (r *AlertRepository) Insert(ctx context.Context, alert *models.ProcessAlert) (int64, error) {
	query := `
		INSERT INTO process_alerts (alert_id, level, category, message, solution, source, extra, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		alert.AlertID,
		alert.Level,
		alert.Category,
		alert.Message,
		alert.Solution,
		alert.Source,
		alert.Extra,
		alert.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted alert ID: %w", err)
	}

	alert.ID = id
	return id, nil
}

// GetRecent returns the most recent alerts, newest first.
func (r *AlertRepository) GetRecent(ctx context.Context, limit int) ([]*models.ProcessAlert, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, alert_id, level, category, message, solution, source, extra, created_at
		FROM process_alerts ORDER BY created_at DESC LIMIT ?
	`

	alerts := []*models.ProcessAlert{}
	if err := r.db.SelectContext(ctx, &alerts, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// CountByLevel aggregates alert counts per level since the given time.
func (r *AlertRepository) CountByLevel(ctx context.Context, since time.Time) (map[string]int, error) {
	return r.countBy(ctx, "level", since)
}

// CountByCategory aggregates alert counts per category since the given time.
func (r *AlertRepository) CountByCategory(ctx context.Context, since time.Time) (map[string]int, error) {
	return r.countBy(ctx, "category", since)
}

func (r *AlertRepository) countBy(ctx context.Context, column string, since time.Time) (map[string]int, error) {
	// column is a fixed identifier chosen by the two exported wrappers.
	query := fmt.Sprintf(`
		SELECT %s AS bucket, COUNT(*) AS total
		FROM process_alerts WHERE created_at >= ? GROUP BY %s
	`, column, column)

	rows := []struct {
		Bucket string `db:"bucket"`
		Total  int    `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("failed to count alerts by %s: %w", column, err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Bucket] = row.Total
	}
	return counts, nil
}
