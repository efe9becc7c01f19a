package rules

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/core/alerts"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/analytics"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuleRepo struct {
	rules []*models.ProcessRule
	err   error
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *models.ProcessRule) error { return nil }
func (f *fakeRuleRepo) GetByID(ctx context.Context, id string) (*models.ProcessRule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("rule %s not found", id)
}
func (f *fakeRuleRepo) GetAll(ctx context.Context) ([]*models.ProcessRule, error) {
	return f.rules, f.err
}
func (f *fakeRuleRepo) Update(ctx context.Context, rule *models.ProcessRule) error { return nil }
func (f *fakeRuleRepo) Delete(ctx context.Context, id string) error                { return nil }

type fakeAlertRepo struct {
	inserted []*models.ProcessAlert
}

func (f *fakeAlertRepo) Insert(ctx context.Context, alert *models.ProcessAlert) (int64, error) {
	f.inserted = append(f.inserted, alert)
	return int64(len(f.inserted)), nil
}
func (f *fakeAlertRepo) GetRecent(ctx context.Context, limit int) ([]*models.ProcessAlert, error) {
	return f.inserted, nil
}
func (f *fakeAlertRepo) CountByLevel(ctx context.Context, since time.Time) (map[string]int, error) {
	return nil, nil
}
func (f *fakeAlertRepo) CountByCategory(ctx context.Context, since time.Time) (map[string]int, error) {
	return nil, nil
}

type fakeBroadcaster struct {
	alerts []*alerts.Alert
}

func (f *fakeBroadcaster) BroadcastAlert(alert *alerts.Alert) {
	f.alerts = append(f.alerts, alert)
}

type failingBackend struct{}

func (failingBackend) CreateRule(ctx context.Context, id, content, ruleType, domain string) (*CompiledRule, error) {
	return nil, fmt.Errorf("backend unavailable")
}
func (failingBackend) ExecuteRule(ctx context.Context, id string, facts Event) (*ExecutionResult, error) {
	return nil, fmt.Errorf("backend unavailable")
}

func newTestEngine(ruleRepo *fakeRuleRepo, alertRepo *fakeAlertRepo, backend RuleBackend, broadcaster AlertBroadcaster) (*Engine, *analytics.Service) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	analyticsService := analytics.NewService(0, logger)
	classifier := alerts.NewClassifier(nil, logger)
	engine := NewEngine(ruleRepo, alertRepo, backend, classifier, analyticsService, broadcaster, nil, logger)
	return engine, analyticsService
}

func TestEvaluateSimpleRule(t *testing.T) {
	ruleRepo := &fakeRuleRepo{rules: []*models.ProcessRule{
		{
			ID:      "order_delay_check",
			Name:    "order delay check",
			Enabled: true,
			Type:    models.RuleTypeSimple,
			Condition: models.RuleCondition{
				Field:    "delay_minutes",
				Operator: "gt",
				Operand:  30,
				Level:    "warning",
				Solution: "retry order processing",
			},
		},
	}}
	alertRepo := &fakeAlertRepo{}
	broadcaster := &fakeBroadcaster{}
	engine, analyticsService := newTestEngine(ruleRepo, alertRepo, newTestBackend(), broadcaster)

	result, err := engine.Evaluate(context.Background(), Event{
		"source":        "business",
		"delay_minutes": 45.0,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"order delay check"}, result.Triggered)
	require.Equal(t, 1, result.TotalAlerts)

	alert := result.ClassifiedAlerts[0]
	assert.Equal(t, alerts.LevelWarning, alert.Level)
	assert.Equal(t, alerts.CategoryBusiness, alert.Category)
	assert.GreaterOrEqual(t, alert.Priority, 1)
	assert.LessOrEqual(t, alert.Priority, 10)

	// Alert persisted and broadcast.
	require.Len(t, alertRepo.inserted, 1)
	assert.Equal(t, "retry order processing", alertRepo.inserted[0].Solution)
	assert.Len(t, broadcaster.alerts, 1)

	// Execution recorded.
	summary := analyticsService.RulePerformanceSummary("order_delay_check", 1)
	assert.Equal(t, 1, summary.TotalExecutions)
	assert.Equal(t, 1.0, summary.MatchRate)
}

func TestEvaluateNoMatch(t *testing.T) {
	ruleRepo := &fakeRuleRepo{rules: []*models.ProcessRule{
		{
			ID:        "order_delay_check",
			Enabled:   true,
			Type:      models.RuleTypeSimple,
			Condition: models.RuleCondition{Field: "delay_minutes", Operator: "gt", Operand: 30},
		},
	}}
	engine, analyticsService := newTestEngine(ruleRepo, &fakeAlertRepo{}, newTestBackend(), nil)

	result, err := engine.Evaluate(context.Background(), Event{"delay_minutes": 10.0})
	require.NoError(t, err)
	assert.Empty(t, result.Triggered)
	assert.Zero(t, result.TotalAlerts)

	// Non-matching executions are still recorded.
	summary := analyticsService.RulePerformanceSummary("order_delay_check", 1)
	assert.Equal(t, 1, summary.TotalExecutions)
	assert.Equal(t, 0.0, summary.MatchRate)
}

func TestEvaluateSkipsDisabledRules(t *testing.T) {
	ruleRepo := &fakeRuleRepo{rules: []*models.ProcessRule{
		{
			ID:        "disabled_rule",
			Enabled:   false,
			Type:      models.RuleTypeSimple,
			Condition: models.RuleCondition{Field: "delay_minutes", Operator: "gt", Operand: 0},
		},
	}}
	engine, analyticsService := newTestEngine(ruleRepo, &fakeAlertRepo{}, newTestBackend(), nil)

	result, err := engine.Evaluate(context.Background(), Event{"delay_minutes": 99.0})
	require.NoError(t, err)
	assert.Empty(t, result.Triggered)

	summary := analyticsService.RulePerformanceSummary("disabled_rule", 1)
	assert.Equal(t, 0, summary.TotalExecutions)
}

func TestEvaluateDeclarativeRule(t *testing.T) {
	backend := newTestBackend()
	_, err := backend.CreateRule(context.Background(), "order_rule", "when delay then alert", "drl", "order")
	require.NoError(t, err)

	ruleRepo := &fakeRuleRepo{rules: []*models.ProcessRule{
		{ID: "order_rule", Enabled: true, Type: models.RuleTypeDeclarative, Domain: "order"},
	}}
	alertRepo := &fakeAlertRepo{}
	engine, _ := newTestEngine(ruleRepo, alertRepo, backend, nil)

	result, err := engine.Evaluate(context.Background(), Event{
		"source":        "business",
		"delay_minutes": 90.0,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"order_rule"}, result.Triggered)
	require.Equal(t, 1, result.TotalAlerts)
	assert.Equal(t, alerts.LevelCritical, result.ClassifiedAlerts[0].Level)
	assert.Len(t, alertRepo.inserted, 1)
}

func TestEvaluateBackendFailureDoesNotAbortBatch(t *testing.T) {
	ruleRepo := &fakeRuleRepo{rules: []*models.ProcessRule{
		{ID: "broken_rule", Enabled: true, Type: models.RuleTypeDeclarative, Domain: "order"},
		{
			ID:        "working_rule",
			Enabled:   true,
			Type:      models.RuleTypeSimple,
			Condition: models.RuleCondition{Field: "delay_minutes", Operator: "gt", Operand: 30},
		},
	}}
	engine, analyticsService := newTestEngine(ruleRepo, &fakeAlertRepo{}, failingBackend{}, nil)

	result, err := engine.Evaluate(context.Background(), Event{"delay_minutes": 45.0})
	require.NoError(t, err)

	// The simple rule still fired.
	assert.Equal(t, []string{"working_rule"}, result.Triggered)

	// The failure was recorded against the broken rule.
	summary := analyticsService.RulePerformanceSummary("broken_rule", 1)
	assert.Equal(t, 1, summary.TotalExecutions)
	assert.Equal(t, 0.0, summary.SuccessRate)
}

func TestEvaluateRuleStoreFailure(t *testing.T) {
	ruleRepo := &fakeRuleRepo{err: fmt.Errorf("db locked")}
	engine, _ := newTestEngine(ruleRepo, &fakeAlertRepo{}, newTestBackend(), nil)

	_, err := engine.Evaluate(context.Background(), Event{"delay_minutes": 45.0})
	assert.Error(t, err)
}
