package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/ai"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/analytics"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/rules"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
	"github.com/nexerp-ops/procmon-backend-go/internal/database/repositories"
	"github.com/sirupsen/logrus"
)

// Suggestion is one proposed adjustment to a rule.
type Suggestion struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// PerformanceAnalysis is the learner's view of a rule's recent behavior.
type PerformanceAnalysis struct {
	RuleID      string                        `json:"rule_id"`
	Summary     *analytics.PerformanceSummary `json:"summary"`
	Suggestions []Suggestion                  `json:"suggestions"`
}

// FeedbackSummary aggregates user feedback for a rule.
type FeedbackSummary struct {
	RuleID           string         `json:"rule_id"`
	TotalFeedback    int            `json:"total_feedback"`
	ComplaintsByType map[string]int `json:"complaints_by_issue"`
	AvgSatisfaction  float64        `json:"average_satisfaction"`
	Suggestions      []Suggestion   `json:"suggestions"`
	AdvisorUsed      bool           `json:"advisor_used"`
}

// LearningRecord is an entry in the learner's in-memory journal.
type LearningRecord struct {
	RuleID    string           `json:"rule_id"`
	Timestamp time.Time        `json:"timestamp"`
	Feedback  *FeedbackSummary `json:"feedback"`
}

// OptimizationRecord is written only after the backend accepted an
// optimized rule variant.
type OptimizationRecord struct {
	RuleID            string                        `json:"rule_id"`
	OptimizedID       string                        `json:"optimized_rule_id"`
	Timestamp         time.Time                     `json:"timestamp"`
	Status            string                        `json:"status"`
	Suggestions       []Suggestion                  `json:"applied_suggestions"`
	PerformanceBefore *analytics.PerformanceSummary `json:"performance_before"`
	OptimizedContent  string                        `json:"optimized_rule_content"`
}

// Insights summarizes the learner's accumulated activity. AverageImprovement
// compares each optimized rule's current success rate against the rate
// captured when the optimization was applied.
type Insights struct {
	TotalLearningRuns  int               `json:"total_learning_runs"`
	TotalOptimizations int               `json:"total_optimizations"`
	RulesLearned       []string          `json:"rules_learned"`
	RulesOptimized     []string          `json:"rules_optimized"`
	AverageImprovement float64           `json:"average_improvement"`
	RuleTrends         map[string]string `json:"rule_trends"`
	KeyInsights        []string          `json:"key_insights"`
	RecommendedActions []string          `json:"recommended_actions"`
	LastActivity       *time.Time        `json:"last_activity,omitempty"`
}

// Learner closes the loop from execution analytics and user feedback back to
// rule definitions. Optimized variants go through the backend like any other
// declarative rule; a backend rejection means nothing is recorded.
type Learner struct {
	mu            sync.RWMutex
	analytics     *analytics.Service
	feedback      repositories.FeedbackRepository
	rules         repositories.RuleRepository
	backend       rules.RuleBackend
	advisor       ai.Advisor
	learningLog   []LearningRecord
	optimizations []OptimizationRecord
	logger        *logrus.Logger
}

// NewLearner creates a learner. advisor may be ai.Disabled{}.
func NewLearner(
	analyticsService *analytics.Service,
	feedback repositories.FeedbackRepository,
	ruleRepo repositories.RuleRepository,
	backend rules.RuleBackend,
	advisor ai.Advisor,
	logger *logrus.Logger,
) *Learner {
	if advisor == nil {
		advisor = ai.Disabled{}
	}
	return &Learner{
		analytics: analyticsService,
		feedback:  feedback,
		rules:     ruleRepo,
		backend:   backend,
		advisor:   advisor,
		logger:    logger,
	}
}

// AnalyzeRulePerformance derives tuning suggestions from execution
// analytics alone.
func (l *Learner) AnalyzeRulePerformance(ruleID string, days int) *PerformanceAnalysis {
	summary := l.analytics.RulePerformanceSummary(ruleID, days)

	analysis := &PerformanceAnalysis{
		RuleID:      ruleID,
		Summary:     summary,
		Suggestions: []Suggestion{},
	}
	if summary.TotalExecutions == 0 {
		return analysis
	}

	if summary.MatchRate > 0.8 && summary.AvgAlertsPerExecution > 2 {
		analysis.Suggestions = append(analysis.Suggestions, Suggestion{
			Type:        "condition_tuning",
			Priority:    "medium",
			Description: "rule matches nearly every event and generates several alerts per run; tighten its conditions to cut false positives",
			Source:      "analytics",
		})
	}
	if summary.SuccessRate < 0.9 {
		analysis.Suggestions = append(analysis.Suggestions, Suggestion{
			Type:        "reliability",
			Priority:    "high",
			Description: "execution success rate is below 90%; review the rule for assumptions recent events violate",
			Source:      "analytics",
		})
	}
	if summary.AvgExecutionTime > 0.5 {
		analysis.Suggestions = append(analysis.Suggestions, Suggestion{
			Type:        "performance",
			Priority:    "medium",
			Description: "average execution time exceeds 500ms; simplify the rule's conditions",
			Source:      "analytics",
		})
	}

	return analysis
}

// LearnFromFeedback aggregates recent user feedback for a rule, asks the
// advisor for suggestions, and falls back to deterministic ones when the
// advisor is unavailable or unparseable. Every run appends a learning
// record.
func (l *Learner) LearnFromFeedback(ctx context.Context, ruleID string, days int) (*FeedbackSummary, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	entries, err := l.feedback.GetRecent(ctx, ruleID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}

	summary := &FeedbackSummary{
		RuleID:           ruleID,
		TotalFeedback:    len(entries),
		ComplaintsByType: map[string]int{},
		AvgSatisfaction:  0.7,
		Suggestions:      []Suggestion{},
	}

	var satisfactionSum float64
	satisfactionCount := 0
	for _, entry := range entries {
		if entry.Type == "complaint" && entry.Issue != "" {
			summary.ComplaintsByType[entry.Issue]++
		}
		if entry.Satisfaction.Valid {
			satisfactionSum += entry.Satisfaction.Float64
			satisfactionCount++
		}
	}
	if satisfactionCount > 0 {
		summary.AvgSatisfaction = satisfactionSum / float64(satisfactionCount)
	}

	suggestions, advisorUsed := l.suggestFromFeedback(ctx, ruleID, summary, entries)
	summary.Suggestions = suggestions
	summary.AdvisorUsed = advisorUsed

	l.mu.Lock()
	l.learningLog = append(l.learningLog, LearningRecord{
		RuleID:    ruleID,
		Timestamp: time.Now(),
		Feedback:  summary,
	})
	l.mu.Unlock()

	return summary, nil
}

// suggestFromFeedback tries the advisor first and degrades to deterministic
// heuristics.
func (l *Learner) suggestFromFeedback(ctx context.Context, ruleID string, summary *FeedbackSummary, entries []*models.RuleFeedback) ([]Suggestion, bool) {
	if len(entries) > 0 {
		if suggestions, err := l.askAdvisor(ctx, ruleID, summary, entries); err == nil {
			return suggestions, true
		} else if !errors.Is(err, ai.ErrAdvisorDisabled) {
			l.logger.WithError(err).WithField("rule_id", ruleID).Warn("Advisor unavailable, using heuristic suggestions")
		}
	}

	return l.heuristicSuggestions(summary), false
}

func (l *Learner) heuristicSuggestions(summary *FeedbackSummary) []Suggestion {
	suggestions := []Suggestion{}

	if summary.ComplaintsByType["too_many_alerts"] > 0 {
		suggestions = append(suggestions, Suggestion{
			Type:        "condition_tuning",
			Priority:    "high",
			Description: "users report excessive alerts; raise the rule's thresholds or add a repeat interval",
			Source:      "heuristic",
		})
	}
	if summary.ComplaintsByType["missed_event"] > 0 {
		suggestions = append(suggestions, Suggestion{
			Type:        "condition_tuning",
			Priority:    "high",
			Description: "users report missed events; loosen the rule's thresholds or widen its matched fields",
			Source:      "heuristic",
		})
	}
	if summary.AvgSatisfaction < 0.5 {
		suggestions = append(suggestions, Suggestion{
			Type:        "review",
			Priority:    "high",
			Description: "average satisfaction is low; review the rule's intent with its stakeholders",
			Source:      "heuristic",
		})
	}

	return suggestions
}

// askAdvisor prompts for JSON suggestions and parses strictly; anything
// unparseable counts as an advisor failure.
func (l *Learner) askAdvisor(ctx context.Context, ruleID string, summary *FeedbackSummary, entries []*models.RuleFeedback) ([]Suggestion, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rule %q received %d feedback entries (average satisfaction %.2f).\n", ruleID, summary.TotalFeedback, summary.AvgSatisfaction)
	for issue, count := range summary.ComplaintsByType {
		fmt.Fprintf(&sb, "- complaint %q: %d\n", issue, count)
	}
	limit := len(entries)
	if limit > 5 {
		limit = 5
	}
	for _, entry := range entries[:limit] {
		if entry.Details != "" {
			fmt.Fprintf(&sb, "- detail: %s\n", entry.Details)
		}
	}
	sb.WriteString(`Reply with a JSON array of suggestions, each {"type","priority","description"}.`)

	raw, err := l.advisor.Advise(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	var parsed []Suggestion
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("advisor reply was not a suggestion array: %w", err)
	}
	for i := range parsed {
		parsed[i].Source = "advisor"
	}
	return parsed, nil
}

// extractJSONArray pulls the first bracketed array out of a completion that
// may be wrapped in prose or code fences.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// AutoOptimizeRule combines performance analysis and feedback into a
// tightened rule variant and registers it with the backend. The
// optimization is recorded only after the backend accepted the variant.
func (l *Learner) AutoOptimizeRule(ctx context.Context, ruleID string, days int) (*OptimizationRecord, error) {
	rule, err := l.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule %s: %w", ruleID, err)
	}

	analysis := l.AnalyzeRulePerformance(ruleID, days)
	feedbackSummary, err := l.LearnFromFeedback(ctx, ruleID, days)
	if err != nil {
		return nil, err
	}

	suggestions := append([]Suggestion{}, analysis.Suggestions...)
	suggestions = append(suggestions, feedbackSummary.Suggestions...)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("rule %s has no optimization suggestions", ruleID)
	}

	optimizedID := ruleID + "_optimized"
	content := synthesizeVariant(rule, suggestions)

	if _, err := l.backend.CreateRule(ctx, optimizedID, content, rule.Type, rule.Domain); err != nil {
		return nil, fmt.Errorf("backend rejected optimized rule: %w", err)
	}

	record := OptimizationRecord{
		RuleID:            ruleID,
		OptimizedID:       optimizedID,
		Timestamp:         time.Now(),
		Status:            "applied",
		Suggestions:       suggestions,
		PerformanceBefore: analysis.Summary,
		OptimizedContent:  content,
	}

	l.mu.Lock()
	l.optimizations = append(l.optimizations, record)
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"rule_id":      ruleID,
		"optimized_id": optimizedID,
		"suggestions":  len(suggestions),
	}).Info("Applied rule optimization")

	return &record, nil
}

// synthesizeVariant annotates the rule content with the applied adjustments.
// The backend compiles the content; the annotations travel with it for
// auditability.
func synthesizeVariant(rule *models.ProcessRule, suggestions []Suggestion) string {
	var sb strings.Builder
	sb.WriteString(rule.Content)
	if rule.Content == "" {
		condition, _ := json.Marshal(rule.Condition)
		sb.Write(condition)
	}
	sb.WriteString("\n// optimized variant of ")
	sb.WriteString(rule.ID)
	for _, s := range suggestions {
		sb.WriteString("\n// ")
		sb.WriteString(s.Type)
		sb.WriteString(": ")
		sb.WriteString(s.Description)
	}
	return sb.String()
}

// LearningInsights reports the learner's accumulated activity. A non-empty
// ruleID restricts the report to that rule's records.
func (l *Learner) LearningInsights(ruleID string) *Insights {
	l.mu.RLock()
	defer l.mu.RUnlock()

	insights := &Insights{
		RulesLearned:       []string{},
		RulesOptimized:     []string{},
		RuleTrends:         map[string]string{},
		KeyInsights:        []string{},
		RecommendedActions: []string{},
	}

	seen := map[string]bool{}
	var last time.Time
	for _, record := range l.learningLog {
		if ruleID != "" && record.RuleID != ruleID {
			continue
		}
		insights.TotalLearningRuns++
		if !seen[record.RuleID] {
			seen[record.RuleID] = true
			insights.RulesLearned = append(insights.RulesLearned, record.RuleID)
		}
		if record.Timestamp.After(last) {
			last = record.Timestamp
		}
	}

	var improvementSum float64
	improvementCount := 0
	seenOpt := map[string]bool{}
	for _, record := range l.optimizations {
		if ruleID != "" && record.RuleID != ruleID {
			continue
		}
		insights.TotalOptimizations++
		if !seenOpt[record.RuleID] {
			seenOpt[record.RuleID] = true
			insights.RulesOptimized = append(insights.RulesOptimized, record.RuleID)
		}
		if record.Timestamp.After(last) {
			last = record.Timestamp
		}
		if record.PerformanceBefore != nil && record.PerformanceBefore.TotalExecutions > 0 {
			current := l.analytics.RulePerformanceSummary(record.RuleID, record.PerformanceBefore.PeriodDays)
			if current.TotalExecutions > 0 {
				improvementSum += current.SuccessRate - record.PerformanceBefore.SuccessRate
				improvementCount++
			}
		}
	}
	if improvementCount > 0 {
		insights.AverageImprovement = improvementSum / float64(improvementCount)
	}

	for id := range seen {
		insights.RuleTrends[id] = l.ruleTrendTag(id)
	}
	for id := range seenOpt {
		if _, ok := insights.RuleTrends[id]; !ok {
			insights.RuleTrends[id] = l.ruleTrendTag(id)
		}
	}

	if insights.TotalLearningRuns > 0 {
		insights.KeyInsights = append(insights.KeyInsights,
			fmt.Sprintf("%d learning runs recorded across %d rules", insights.TotalLearningRuns, len(insights.RulesLearned)))
	}
	if insights.TotalOptimizations > 0 {
		insights.KeyInsights = append(insights.KeyInsights,
			fmt.Sprintf("%d optimizations applied to %d rules", insights.TotalOptimizations, len(insights.RulesOptimized)))
	}
	if improvementCount > 0 {
		if insights.AverageImprovement >= 0 {
			insights.KeyInsights = append(insights.KeyInsights,
				fmt.Sprintf("success rates improved by %.1f%% on average since optimization", insights.AverageImprovement*100))
		} else {
			insights.KeyInsights = append(insights.KeyInsights,
				fmt.Sprintf("success rates dropped by %.1f%% on average since optimization", -insights.AverageImprovement*100))
			insights.RecommendedActions = append(insights.RecommendedActions,
				"review recently optimized rules; their success rates regressed")
		}
	}
	for id, tag := range insights.RuleTrends {
		if tag == "declining" && !seenOpt[id] {
			insights.RecommendedActions = append(insights.RecommendedActions,
				fmt.Sprintf("run auto-optimization for rule %s; its success rate is declining", id))
		}
	}
	sort.Strings(insights.RecommendedActions)
	if insights.TotalLearningRuns == 0 && insights.TotalOptimizations == 0 {
		insights.KeyInsights = append(insights.KeyInsights, "no learning activity recorded yet")
		insights.RecommendedActions = append(insights.RecommendedActions,
			"submit rule feedback to start the learning loop")
	}

	if !last.IsZero() {
		insights.LastActivity = &last
	}
	return insights
}

// ruleTrendTag condenses a rule's trend analysis to a single tag.
func (l *Learner) ruleTrendTag(ruleID string) string {
	summary := l.analytics.RulePerformanceSummary(ruleID, 7)
	if summary.Trends == nil {
		return "insufficient_data"
	}
	if summary.Trends.Status != "ok" {
		return summary.Trends.Status
	}
	return summary.Trends.SuccessTrend
}
