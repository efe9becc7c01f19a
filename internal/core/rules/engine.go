package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/core/alerts"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/analytics"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/repositories"
	"github.com/sirupsen/logrus"
)

// AlertBroadcaster pushes classified alerts to connected clients.
type AlertBroadcaster interface {
	BroadcastAlert(alert *alerts.Alert)
}

// PipelineMetrics receives evaluation observations.
type PipelineMetrics interface {
	ObserveEvent()
	ObserveRuleExecution(ruleID string, seconds float64, success bool)
	ObserveAlert(level, category string)
}

// EvaluationResult is the outcome of running one event through the engine.
type EvaluationResult struct {
	Triggered        []string        `json:"triggered_rules"`
	ClassifiedAlerts []*alerts.Alert `json:"alerts"`
	TotalAlerts      int             `json:"total_alerts"`
}

// Engine evaluates incoming events against every enabled rule. Simple rules
// are matched in-process, declarative rules are delegated to the backend;
// matches from both paths flow through the classifier and out to storage and
// subscribers.
type Engine struct {
	rules       repositories.RuleRepository
	alertStore  repositories.AlertRepository
	backend     RuleBackend
	classifier  *alerts.Classifier
	analytics   *analytics.Service
	broadcaster AlertBroadcaster
	metrics     PipelineMetrics
	logger      *logrus.Logger
}

// NewEngine creates an evaluation engine. broadcaster and metrics may be nil.
func NewEngine(
	rules repositories.RuleRepository,
	alertStore repositories.AlertRepository,
	backend RuleBackend,
	classifier *alerts.Classifier,
	analyticsService *analytics.Service,
	broadcaster AlertBroadcaster,
	metrics PipelineMetrics,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		rules:       rules,
		alertStore:  alertStore,
		backend:     backend,
		classifier:  classifier,
		analytics:   analyticsService,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
	}
}

// Evaluate runs an event through every enabled rule. Per-rule failures are
// recorded and logged but never abort evaluation of the remaining rules.
func (e *Engine) Evaluate(ctx context.Context, event Event) (*EvaluationResult, error) {
	if e.metrics != nil {
		e.metrics.ObserveEvent()
	}

	stored, err := e.rules.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	result := &EvaluationResult{
		Triggered:        []string{},
		ClassifiedAlerts: []*alerts.Alert{},
	}

	for _, rule := range stored {
		if !rule.Enabled {
			continue
		}

		switch rule.Type {
		case models.RuleTypeDeclarative:
			e.evaluateDeclarative(ctx, rule, event, result)
		default:
			e.evaluateSimple(ctx, rule, event, result)
		}
	}

	result.TotalAlerts = len(result.ClassifiedAlerts)
	return result, nil
}

func (e *Engine) evaluateSimple(ctx context.Context, rule *models.ProcessRule, event Event, result *EvaluationResult) {
	start := time.Now()
	matched := MatchCondition(event, rule.Condition)
	elapsed := time.Since(start).Seconds()

	alertCount := 0
	if matched {
		signal := alerts.Signal{
			Source: eventSource(event),
			Metric: rule.Condition.Field,
			Value:  FieldValue(event, rule.Condition.Field),
			RuleID: rule.ID,
		}

		alert, err := e.classifier.Classify(signal)
		if err != nil {
			e.logger.WithError(err).WithField("rule_id", rule.ID).Error("Failed to classify alert")
		} else {
			if rule.Condition.Level != "" && alerts.Level(rule.Condition.Level).Valid() {
				// The rule author's level wins over the threshold tables.
				alert.Level = alerts.Level(rule.Condition.Level)
			}
			e.emitAlert(ctx, alert, rule.Condition.Solution)
			result.ClassifiedAlerts = append(result.ClassifiedAlerts, alert)
			alertCount = 1
		}
		result.Triggered = append(result.Triggered, ruleLabel(rule))
	}

	e.record(rule.ID, elapsed, true, matched, len(event), alertCount, alertCount)
}

func (e *Engine) evaluateDeclarative(ctx context.Context, rule *models.ProcessRule, event Event, result *EvaluationResult) {
	start := time.Now()
	execution, err := e.backend.ExecuteRule(ctx, rule.ID, event)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		e.logger.WithError(err).WithField("rule_id", rule.ID).Error("Backend rule execution failed")
		e.record(rule.ID, elapsed, false, false, len(event), 0, 0)
		return
	}

	alertCount := 0
	if execution.Matched {
		for _, backendAlert := range execution.Alerts {
			signal := alerts.Signal{
				Source: eventSource(event),
				Metric: rule.Domain,
				RuleID: rule.ID,
			}

			alert, err := e.classifier.Classify(signal)
			if err != nil {
				e.logger.WithError(err).WithField("rule_id", rule.ID).Error("Failed to classify backend alert")
				continue
			}
			if alerts.Level(backendAlert.Level).Valid() {
				alert.Level = alerts.Level(backendAlert.Level)
			}
			if backendAlert.Message != "" {
				alert.Message = backendAlert.Message
			}

			e.emitAlert(ctx, alert, backendAlert.Solution)
			result.ClassifiedAlerts = append(result.ClassifiedAlerts, alert)
			alertCount++
		}
		result.Triggered = append(result.Triggered, ruleLabel(rule))
	}

	e.record(rule.ID, elapsed, true, execution.Matched, len(event), len(execution.Actions), alertCount)
}

// emitAlert persists and broadcasts a classified alert. Storage failures are
// logged but do not block delivery.
func (e *Engine) emitAlert(ctx context.Context, alert *alerts.Alert, solution string) {
	if solution == "" && len(alert.Solutions) > 0 {
		solution = alert.Solutions[0].Description
	}

	stored := &models.ProcessAlert{
		AlertID:   alert.AlertID,
		Level:     string(alert.Level),
		Category:  string(alert.Category),
		Message:   alert.Message,
		Solution:  solution,
		Source:    alert.Source,
		CreatedAt: alert.CreatedAt,
	}
	if _, err := e.alertStore.Insert(ctx, stored); err != nil {
		e.logger.WithError(err).WithField("alert_id", alert.AlertID).Error("Failed to persist alert")
	}

	if e.metrics != nil {
		e.metrics.ObserveAlert(string(alert.Level), string(alert.Category))
	}
	if e.broadcaster != nil {
		e.broadcaster.BroadcastAlert(alert)
	}
}

func (e *Engine) record(ruleID string, seconds float64, success, matched bool, facts, actions, alertCount int) {
	if e.analytics != nil {
		e.analytics.RecordExecution(ruleID, analytics.ExecutionData{
			ExecutionTime:   seconds,
			Success:         success,
			Matched:         matched,
			FactsCount:      facts,
			ActionsCount:    actions,
			AlertsGenerated: alertCount,
		})
	}
	if e.metrics != nil {
		e.metrics.ObserveRuleExecution(ruleID, seconds, success)
	}
}

// ruleLabel is the name reported for a triggered rule; rules created without
// a display name fall back to their ID.
func ruleLabel(rule *models.ProcessRule) string {
	if rule.Name != "" {
		return rule.Name
	}
	return rule.ID
}

func eventSource(event Event) string {
	if raw, ok := event["source"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			return s
		}
	}
	return "event"
}
