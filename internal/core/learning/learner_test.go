package learning

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/ai"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/analytics"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/rules"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeedbackRepo struct {
	entries []*models.RuleFeedback
	err     error
}

func (f *fakeFeedbackRepo) Insert(ctx context.Context, fb *models.RuleFeedback) (int64, error) {
	f.entries = append(f.entries, fb)
	return int64(len(f.entries)), nil
}

func (f *fakeFeedbackRepo) GetRecent(ctx context.Context, ruleID string, since time.Time) ([]*models.RuleFeedback, error) {
	if f.err != nil {
		return nil, f.err
	}
	var matched []*models.RuleFeedback
	for _, e := range f.entries {
		if e.RuleID == ruleID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

type fakeRuleRepo struct {
	rules map[string]*models.ProcessRule
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *models.ProcessRule) error { return nil }
func (f *fakeRuleRepo) GetByID(ctx context.Context, id string) (*models.ProcessRule, error) {
	if rule, ok := f.rules[id]; ok {
		return rule, nil
	}
	return nil, fmt.Errorf("rule %s not found", id)
}
func (f *fakeRuleRepo) GetAll(ctx context.Context) ([]*models.ProcessRule, error) { return nil, nil }
func (f *fakeRuleRepo) Update(ctx context.Context, rule *models.ProcessRule) error {
	return nil
}
func (f *fakeRuleRepo) Delete(ctx context.Context, id string) error { return nil }

type recordingBackend struct {
	created map[string]string
	fail    bool
}

func (b *recordingBackend) CreateRule(ctx context.Context, id, content, ruleType, domain string) (*rules.CompiledRule, error) {
	if b.fail {
		return nil, fmt.Errorf("backend rejected rule")
	}
	if b.created == nil {
		b.created = map[string]string{}
	}
	b.created[id] = content
	return &rules.CompiledRule{ID: id, Compiled: true}, nil
}

func (b *recordingBackend) ExecuteRule(ctx context.Context, id string, facts rules.Event) (*rules.ExecutionResult, error) {
	return &rules.ExecutionResult{}, nil
}

type scriptedAdvisor struct {
	reply string
	err   error
}

func (a scriptedAdvisor) Advise(ctx context.Context, prompt string) (string, error) {
	return a.reply, a.err
}

func (a scriptedAdvisor) Name() string { return "scripted" }

func newTestLearner(feedback *fakeFeedbackRepo, ruleRepo *fakeRuleRepo, backend rules.RuleBackend, advisor ai.Advisor) (*Learner, *analytics.Service) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	analyticsService := analytics.NewService(0, logger)
	learner := NewLearner(analyticsService, feedback, ruleRepo, backend, advisor, logger)
	return learner, analyticsService
}

func complaint(ruleID, issue string, satisfaction float64) *models.RuleFeedback {
	return &models.RuleFeedback{
		RuleID:       ruleID,
		Type:         "complaint",
		Issue:        issue,
		Satisfaction: sql.NullFloat64{Float64: satisfaction, Valid: true},
	}
}

func TestAnalyzeRulePerformance(t *testing.T) {
	learner, analyticsService := newTestLearner(&fakeFeedbackRepo{}, &fakeRuleRepo{}, &recordingBackend{}, nil)

	// No data: empty suggestion list, no panic.
	analysis := learner.AnalyzeRulePerformance("fresh", 30)
	assert.Empty(t, analysis.Suggestions)

	// Slow, unreliable and noisy rule trips every heuristic.
	for i := 0; i < 10; i++ {
		analyticsService.RecordExecution("noisy", analytics.ExecutionData{
			Success:         i < 8,
			Matched:         true,
			ExecutionTime:   0.8,
			AlertsGenerated: 4,
		})
	}

	analysis = learner.AnalyzeRulePerformance("noisy", 30)
	types := map[string]bool{}
	for _, s := range analysis.Suggestions {
		types[s.Type] = true
	}
	assert.True(t, types["condition_tuning"])
	assert.True(t, types["reliability"])
	assert.True(t, types["performance"])
}

func TestLearnFromFeedbackHeuristics(t *testing.T) {
	feedback := &fakeFeedbackRepo{entries: []*models.RuleFeedback{
		complaint("r1", "too_many_alerts", 0.3),
		complaint("r1", "too_many_alerts", 0.4),
		complaint("r1", "missed_event", 0.2),
	}}
	learner, _ := newTestLearner(feedback, &fakeRuleRepo{}, &recordingBackend{}, ai.Disabled{})

	summary, err := learner.LearnFromFeedback(context.Background(), "r1", 30)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalFeedback)
	assert.Equal(t, 2, summary.ComplaintsByType["too_many_alerts"])
	assert.InDelta(t, 0.3, summary.AvgSatisfaction, 0.001)
	assert.False(t, summary.AdvisorUsed)
	assert.NotEmpty(t, summary.Suggestions)

	insights := learner.LearningInsights("")
	assert.Equal(t, 1, insights.TotalLearningRuns)
	assert.Equal(t, []string{"r1"}, insights.RulesLearned)
}

func TestLearnFromFeedbackDefaultSatisfaction(t *testing.T) {
	feedback := &fakeFeedbackRepo{entries: []*models.RuleFeedback{
		{RuleID: "r1", Type: "comment", Details: "works fine"},
	}}
	learner, _ := newTestLearner(feedback, &fakeRuleRepo{}, &recordingBackend{}, ai.Disabled{})

	summary, err := learner.LearnFromFeedback(context.Background(), "r1", 30)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, summary.AvgSatisfaction, 0.001)
}

func TestLearnFromFeedbackAdvisor(t *testing.T) {
	feedback := &fakeFeedbackRepo{entries: []*models.RuleFeedback{
		complaint("r1", "too_many_alerts", 0.4),
	}}
	advisor := scriptedAdvisor{reply: `Here you go: [{"type":"condition_tuning","priority":"high","description":"raise threshold to 50"}]`}
	learner, _ := newTestLearner(feedback, &fakeRuleRepo{}, &recordingBackend{}, advisor)

	summary, err := learner.LearnFromFeedback(context.Background(), "r1", 30)
	require.NoError(t, err)

	assert.True(t, summary.AdvisorUsed)
	require.Len(t, summary.Suggestions, 1)
	assert.Equal(t, "advisor", summary.Suggestions[0].Source)
	assert.Equal(t, "raise threshold to 50", summary.Suggestions[0].Description)
}

func TestLearnFromFeedbackAdvisorUnparseable(t *testing.T) {
	feedback := &fakeFeedbackRepo{entries: []*models.RuleFeedback{
		complaint("r1", "too_many_alerts", 0.4),
	}}
	advisor := scriptedAdvisor{reply: "I cannot help with that."}
	learner, _ := newTestLearner(feedback, &fakeRuleRepo{}, &recordingBackend{}, advisor)

	summary, err := learner.LearnFromFeedback(context.Background(), "r1", 30)
	require.NoError(t, err)

	// Unparseable advisor output degrades to heuristics.
	assert.False(t, summary.AdvisorUsed)
	require.NotEmpty(t, summary.Suggestions)
	assert.Equal(t, "heuristic", summary.Suggestions[0].Source)
}

func TestAutoOptimizeRule(t *testing.T) {
	feedback := &fakeFeedbackRepo{entries: []*models.RuleFeedback{
		complaint("r1", "too_many_alerts", 0.3),
	}}
	ruleRepo := &fakeRuleRepo{rules: map[string]*models.ProcessRule{
		"r1": {ID: "r1", Type: models.RuleTypeDeclarative, Domain: "order", Content: "when delay then alert"},
	}}
	backend := &recordingBackend{}
	learner, analyticsService := newTestLearner(feedback, ruleRepo, backend, ai.Disabled{})

	for i := 0; i < 4; i++ {
		analyticsService.RecordExecution("r1", analytics.ExecutionData{Success: i%2 == 0, Matched: true})
	}

	record, err := learner.AutoOptimizeRule(context.Background(), "r1", 30)
	require.NoError(t, err)

	assert.Equal(t, "applied", record.Status)
	assert.Equal(t, "r1_optimized", record.OptimizedID)
	assert.Contains(t, backend.created, "r1_optimized")
	assert.NotEmpty(t, record.Suggestions)

	// The record snapshots the rule's state from before the backend call.
	require.NotNil(t, record.PerformanceBefore)
	assert.Equal(t, 4, record.PerformanceBefore.TotalExecutions)
	assert.InDelta(t, 0.5, record.PerformanceBefore.SuccessRate, 0.001)
	assert.Equal(t, backend.created["r1_optimized"], record.OptimizedContent)
	assert.Contains(t, record.OptimizedContent, "when delay then alert")

	insights := learner.LearningInsights("")
	assert.Equal(t, 1, insights.TotalOptimizations)
	assert.Equal(t, []string{"r1"}, insights.RulesOptimized)
}

func TestAutoOptimizeRuleBackendFailure(t *testing.T) {
	feedback := &fakeFeedbackRepo{entries: []*models.RuleFeedback{
		complaint("r1", "too_many_alerts", 0.3),
	}}
	ruleRepo := &fakeRuleRepo{rules: map[string]*models.ProcessRule{
		"r1": {ID: "r1", Type: models.RuleTypeDeclarative, Domain: "order", Content: "when delay then alert"},
	}}
	learner, _ := newTestLearner(feedback, ruleRepo, &recordingBackend{fail: true}, ai.Disabled{})

	_, err := learner.AutoOptimizeRule(context.Background(), "r1", 30)
	require.Error(t, err)

	// A rejected variant leaves no applied record behind.
	insights := learner.LearningInsights("")
	assert.Equal(t, 0, insights.TotalOptimizations)
}

func TestLearningInsightsRuleFilter(t *testing.T) {
	feedback := &fakeFeedbackRepo{entries: []*models.RuleFeedback{
		complaint("r1", "too_many_alerts", 0.3),
		complaint("r2", "missed_event", 0.4),
	}}
	ruleRepo := &fakeRuleRepo{rules: map[string]*models.ProcessRule{
		"r1": {ID: "r1", Type: models.RuleTypeDeclarative, Domain: "order", Content: "when delay then alert"},
	}}
	learner, analyticsService := newTestLearner(feedback, ruleRepo, &recordingBackend{}, ai.Disabled{})

	// r1 starts at a 50% success rate, then recovers after optimization.
	for i := 0; i < 4; i++ {
		analyticsService.RecordExecution("r1", analytics.ExecutionData{Success: i%2 == 0, Matched: true})
	}

	_, err := learner.LearnFromFeedback(context.Background(), "r2", 30)
	require.NoError(t, err)
	_, err = learner.AutoOptimizeRule(context.Background(), "r1", 30)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		analyticsService.RecordExecution("r1", analytics.ExecutionData{Success: true, Matched: true})
	}

	filtered := learner.LearningInsights("r1")
	assert.Equal(t, 1, filtered.TotalLearningRuns)
	assert.Equal(t, []string{"r1"}, filtered.RulesLearned)
	assert.Equal(t, 1, filtered.TotalOptimizations)
	assert.Equal(t, []string{"r1"}, filtered.RulesOptimized)
	assert.InDelta(t, 0.25, filtered.AverageImprovement, 0.001)
	assert.Equal(t, "stable", filtered.RuleTrends["r1"])
	assert.NotContains(t, filtered.RuleTrends, "r2")
	assert.NotEmpty(t, filtered.KeyInsights)

	other := learner.LearningInsights("r2")
	assert.Equal(t, []string{"r2"}, other.RulesLearned)
	assert.Zero(t, other.TotalOptimizations)
	assert.Zero(t, other.AverageImprovement)

	all := learner.LearningInsights("")
	assert.Equal(t, 2, all.TotalLearningRuns)
	assert.Equal(t, 1, all.TotalOptimizations)
}

func TestAutoOptimizeRuleWithoutSuggestions(t *testing.T) {
	ruleRepo := &fakeRuleRepo{rules: map[string]*models.ProcessRule{
		"healthy": {ID: "healthy", Type: models.RuleTypeSimple},
	}}
	learner, _ := newTestLearner(&fakeFeedbackRepo{}, ruleRepo, &recordingBackend{}, ai.Disabled{})

	_, err := learner.AutoOptimizeRule(context.Background(), "healthy", 30)
	assert.Error(t, err)
}

func TestAutoOptimizeRuleMissingRule(t *testing.T) {
	learner, _ := newTestLearner(&fakeFeedbackRepo{}, &fakeRuleRepo{}, &recordingBackend{}, ai.Disabled{})

	_, err := learner.AutoOptimizeRule(context.Background(), "ghost", 30)
	assert.Error(t, err)
}
