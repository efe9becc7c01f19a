package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Classifier turns raw signals into classified alerts. It is stateless apart
// from its configuration tables; classification never persists anything.
type Classifier struct {
	tables *Tables
	logger *logrus.Logger
}

// NewClassifier creates a classifier over the given tables.
func NewClassifier(tables *Tables, logger *logrus.Logger) *Classifier {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Classifier{
		tables: tables,
		logger: logger,
	}
}

// Tables exposes the classification tables for the policy listing API.
func (c *Classifier) Tables() *Tables {
	return c.tables
}

// Classify produces a fully classified alert for a signal.
func (c *Classifier) Classify(signal Signal) (*Alert, error) {
	if signal.Source == "" && signal.Metric == "" {
		return nil, fmt.Errorf("signal needs at least a source or a metric")
	}
	if signal.Source == "" {
		signal.Source = "unknown"
	}
	if signal.Metric == "" {
		signal.Metric = "unknown"
	}

	level, message := c.determineLevel(signal.Source, signal.Metric, signal.Value)
	category := c.determineCategory(signal.Source, signal.Metric)

	alert := &Alert{
		AlertID:              newAlertID(),
		Level:                level,
		Category:             category,
		Message:              message,
		Solutions:            c.generateSolutions(signal.Source, signal.Metric, level),
		Priority:             c.calculatePriority(level, category),
		EstimatedResolution:  c.estimateResolutionMinutes(level, category),
		NotificationStrategy: c.ResolveNotification(category, level),
		AutoResolution:       c.ResolveAutoResolution(signal.Source, signal.Metric, level),
		Source:               signal.Source,
		Metric:               signal.Metric,
		Value:                signal.Value,
		RuleID:               signal.RuleID,
		CreatedAt:            time.Now(),
	}

	c.logger.WithFields(logrus.Fields{
		"alert_id": alert.AlertID,
		"level":    alert.Level,
		"category": alert.Category,
		"metric":   signal.Metric,
	}).Debug("Alert classified")

	return alert, nil
}

// determineLevel scans the per-(source, metric) threshold table from most to
// least severe and returns the first level whose threshold the value reaches.
// Without a table entry a generic value heuristic applies.
func (c *Classifier) determineLevel(source, metric string, value float64) (Level, string) {
	levels, ok := c.tables.LevelRules[source][metric]
	if !ok {
		switch {
		case value > 100:
			return LevelCritical, fmt.Sprintf("%s severely out of range", metric)
		case value > 80:
			return LevelError, fmt.Sprintf("%s out of range", metric)
		case value > 60:
			return LevelWarning, fmt.Sprintf("%s elevated", metric)
		default:
			return LevelInfo, fmt.Sprintf("%s nominal", metric)
		}
	}

	for _, level := range []Level{LevelCritical, LevelError, LevelWarning, LevelInfo} {
		rule, ok := levels[level]
		if !ok {
			continue
		}
		if value >= rule.Threshold {
			message := rule.Message
			if message == "" {
				message = fmt.Sprintf("%s triggered %s alert", metric, level)
			}
			return level, message
		}
	}

	return LevelInfo, fmt.Sprintf("%s nominal", metric)
}

// determineCategory buckets a signal by metric keywords first, then by the
// source name, defaulting to system.
func (c *Classifier) determineCategory(source, metric string) Category {
	switch {
	case strings.Contains(metric, "cpu") || strings.Contains(metric, "memory") || strings.Contains(metric, "disk"):
		return CategorySystem
	case strings.Contains(metric, "response") || strings.Contains(metric, "latency"):
		return CategoryPerformance
	case strings.Contains(metric, "order") || strings.Contains(metric, "inventory"):
		return CategoryBusiness
	}

	if cat := Category(source); cat.Valid() {
		return cat
	}
	return CategorySystem
}

// generateSolutions looks up solution templates by metric, falling back to
// source. Low-severity alerts drop the immediate steps. At most three
// solutions are returned.
func (c *Classifier) generateSolutions(source, metric string, level Level) []Solution {
	templates, ok := c.tables.SolutionTemplates[metric]
	if !ok {
		templates = c.tables.SolutionTemplates[source]
	}

	solutions := make([]Solution, 0, len(templates))
	for _, s := range templates {
		if (level == LevelInfo || level == LevelWarning) && s.Type == "immediate" {
			continue
		}
		solutions = append(solutions, s)
	}

	if len(solutions) > 3 {
		solutions = solutions[:3]
	}
	return solutions
}

// calculatePriority combines the level base and the category boost, clamped
// to [1, 10].
func (c *Classifier) calculatePriority(level Level, category Category) int {
	base, ok := c.tables.PriorityBase[level]
	if !ok {
		base = 1
	}
	boost, ok := c.tables.CategoryBoost[category]
	if !ok {
		boost = 1
	}

	priority := base + boost - 1
	if priority > 10 {
		priority = 10
	}
	if priority < 1 {
		priority = 1
	}
	return priority
}

// estimateResolutionMinutes reads the fixed [level][category] estimate table.
func (c *Classifier) estimateResolutionMinutes(level Level, category Category) int {
	if minutes, ok := c.tables.ResolutionEstimates[level][category]; ok {
		return minutes
	}
	return 120
}

func newAlertID() string {
	// uuid suffix keeps ids unique under burst load; the timestamp prefix
	// keeps them greppable in logs.
	return fmt.Sprintf("ALERT_%s_%s", time.Now().Format("20060102150405"), strings.Split(uuid.NewString(), "-")[0])
}
