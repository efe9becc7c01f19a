package analytics

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultRetainedRecords bounds the execution history window.
const DefaultRetainedRecords = 1000

// ExecutionRecord captures one rule invocation. Records are appended, never
// mutated, and evicted oldest-first once the retention window is exceeded.
type ExecutionRecord struct {
	RuleID          string                 `json:"rule_id"`
	Timestamp       time.Time              `json:"timestamp"`
	ExecutionTime   float64                `json:"execution_time"`
	Success         bool                   `json:"success"`
	Matched         bool                   `json:"matched"`
	FactsCount      int                    `json:"facts_count"`
	ActionsCount    int                    `json:"actions_count"`
	AlertsGenerated int                    `json:"alerts_generated"`
	Context         map[string]interface{} `json:"context,omitempty"`
}

// ExecutionData is the caller-supplied part of an execution record.
type ExecutionData struct {
	ExecutionTime   float64                `json:"execution_time"`
	Success         bool                   `json:"success"`
	Matched         bool                   `json:"matched"`
	FactsCount      int                    `json:"facts_count"`
	ActionsCount    int                    `json:"actions_count"`
	AlertsGenerated int                    `json:"alerts_generated"`
	Context         map[string]interface{} `json:"context,omitempty"`
}

// TrendAnalysis is a coarse first-vs-last comparison across daily buckets,
// deliberately not a regression fit.
type TrendAnalysis struct {
	Status            string    `json:"status"`
	ExecutionTrend    string    `json:"execution_trend,omitempty"`
	SuccessTrend      string    `json:"success_trend,omitempty"`
	DailyExecutions   []int     `json:"daily_executions,omitempty"`
	DailySuccessRates []float64 `json:"daily_success_rates,omitempty"`
}

// PerformanceSummary is the derived per-rule view over a time window.
type PerformanceSummary struct {
	RuleID                string         `json:"rule_id"`
	PeriodDays            int            `json:"period_days"`
	TotalExecutions       int            `json:"total_executions"`
	SuccessRate           float64        `json:"success_rate"`
	MatchRate             float64        `json:"match_rate"`
	AvgExecutionTime      float64        `json:"average_execution_time"`
	MaxExecutionTime      float64        `json:"max_execution_time"`
	TotalAlerts           int            `json:"total_alerts_generated"`
	AvgAlertsPerExecution float64        `json:"average_alerts_per_execution"`
	PerformanceGrade      string         `json:"performance_grade,omitempty"`
	Trends                *TrendAnalysis `json:"trends,omitempty"`
	LastExecution         *time.Time     `json:"last_execution,omitempty"`
	Message               string         `json:"message,omitempty"`
}

// RuleRanking names a rule with the value it ranked by.
type RuleRanking struct {
	RuleID string  `json:"rule_id"`
	Value  float64 `json:"value"`
}

// Comparison aggregates summaries across rules.
type Comparison struct {
	PeriodDays       int                   `json:"period_days"`
	Rules            []*PerformanceSummary `json:"rules"`
	TotalRules       int                   `json:"total_rules"`
	AvgSuccessRate   float64               `json:"average_success_rate"`
	AvgExecutionTime float64               `json:"average_execution_time"`
	BestPerforming   *PerformanceSummary   `json:"best_performing_rule,omitempty"`
	Fastest          *PerformanceSummary   `json:"fastest_rule,omitempty"`
	MostActive       *PerformanceSummary   `json:"most_active_rule,omitempty"`
}

// SystemSummary rolls every rule together.
type SystemSummary struct {
	PeriodDays        int           `json:"period_days"`
	TotalExecutions   int           `json:"total_executions"`
	TotalRules        int           `json:"total_rules"`
	SystemSuccessRate float64       `json:"system_success_rate"`
	SystemMatchRate   float64       `json:"system_match_rate"`
	TotalAlerts       int           `json:"total_alerts_generated"`
	AvgExecutionTime  float64       `json:"average_execution_time"`
	MostActiveRules   []RuleRanking `json:"most_active_rules"`
	MostReliableRules []RuleRanking `json:"most_reliable_rules"`
	Message           string        `json:"message,omitempty"`
}

// ExportData is a serializable snapshot for a rule or the whole system.
type ExportData struct {
	ExportTime      time.Time         `json:"export_time"`
	PeriodDays      int               `json:"period_days"`
	RuleID          string            `json:"rule_id,omitempty"`
	Summary         interface{}       `json:"summary"`
	Records         []ExecutionRecord `json:"execution_records"`
	Recommendations []Recommendation  `json:"recommendations"`
}

// Service records rule executions and derives performance analytics. All
// shared state sits behind one mutex; concurrent RecordExecution calls from
// evaluation workers are safe.
type Service struct {
	mu       sync.RWMutex
	history  []*ExecutionRecord
	perRule  map[string][]*ExecutionRecord
	retained int
	logger   *logrus.Logger
	now      func() time.Time
}

// NewService creates an analytics service with the given retention window.
// retained <= 0 selects the default of 1000 records.
func NewService(retained int, logger *logrus.Logger) *Service {
	if retained <= 0 {
		retained = DefaultRetainedRecords
	}
	return &Service{
		history:  make([]*ExecutionRecord, 0, retained),
		perRule:  make(map[string][]*ExecutionRecord),
		retained: retained,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordExecution appends an execution record, evicting the oldest once the
// retention window is exceeded.
func (s *Service) RecordExecution(ruleID string, data ExecutionData) {
	record := &ExecutionRecord{
		RuleID:          ruleID,
		Timestamp:       s.now(),
		ExecutionTime:   data.ExecutionTime,
		Success:         data.Success,
		Matched:         data.Matched,
		FactsCount:      data.FactsCount,
		ActionsCount:    data.ActionsCount,
		AlertsGenerated: data.AlertsGenerated,
		Context:         data.Context,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, record)
	s.perRule[ruleID] = append(s.perRule[ruleID], record)

	for len(s.history) > s.retained {
		oldest := s.history[0]
		s.history = s.history[1:]

		ruleRecords := s.perRule[oldest.RuleID]
		if len(ruleRecords) > 0 && ruleRecords[0] == oldest {
			if len(ruleRecords) == 1 {
				delete(s.perRule, oldest.RuleID)
			} else {
				s.perRule[oldest.RuleID] = ruleRecords[1:]
			}
		}
	}
}

// RulePerformanceSummary computes the performance view of one rule over the
// last `days` days. A window with no records yields the no-data sentinel
// instead of an error.
func (s *Service) RulePerformanceSummary(ruleID string, days int) *PerformanceSummary {
	if days <= 0 {
		days = 30
	}
	cutoff := s.now().AddDate(0, 0, -days)

	s.mu.RLock()
	records := filterSince(s.perRule[ruleID], cutoff)
	s.mu.RUnlock()

	if len(records) == 0 {
		return &PerformanceSummary{
			RuleID:          ruleID,
			PeriodDays:      days,
			TotalExecutions: 0,
			Message:         "no data",
		}
	}

	total := len(records)
	successes := 0
	matches := 0
	totalAlerts := 0
	var sumTime, maxTime float64
	timed := 0

	for _, r := range records {
		if r.Success {
			successes++
		}
		if r.Matched {
			matches++
		}
		totalAlerts += r.AlertsGenerated
		if r.ExecutionTime > 0 {
			sumTime += r.ExecutionTime
			timed++
			if r.ExecutionTime > maxTime {
				maxTime = r.ExecutionTime
			}
		}
	}

	avgTime := 0.0
	if timed > 0 {
		avgTime = sumTime / float64(timed)
	}

	successRate := float64(successes) / float64(total)
	matchRate := float64(matches) / float64(total)
	last := records[len(records)-1].Timestamp

	return &PerformanceSummary{
		RuleID:                ruleID,
		PeriodDays:            days,
		TotalExecutions:       total,
		SuccessRate:           successRate,
		MatchRate:             matchRate,
		AvgExecutionTime:      avgTime,
		MaxExecutionTime:      maxTime,
		TotalAlerts:           totalAlerts,
		AvgAlertsPerExecution: float64(totalAlerts) / float64(total),
		PerformanceGrade:      performanceGrade(successRate, avgTime, matchRate),
		Trends:                analyzeTrends(records),
		LastExecution:         &last,
	}
}

// RuleComparison aggregates summaries for several rules and reports the best
// by success rate, the fastest and the most active.
func (s *Service) RuleComparison(ruleIDs []string, days int) *Comparison {
	if days <= 0 {
		days = 30
	}

	comparison := &Comparison{PeriodDays: days, Rules: []*PerformanceSummary{}}

	var sumSuccess, sumTime float64
	for _, id := range ruleIDs {
		summary := s.RulePerformanceSummary(id, days)
		if summary.TotalExecutions == 0 {
			continue
		}
		comparison.Rules = append(comparison.Rules, summary)
		sumSuccess += summary.SuccessRate
		sumTime += summary.AvgExecutionTime
	}

	n := len(comparison.Rules)
	if n == 0 {
		return comparison
	}

	comparison.TotalRules = n
	comparison.AvgSuccessRate = sumSuccess / float64(n)
	comparison.AvgExecutionTime = sumTime / float64(n)

	best := comparison.Rules[0]
	fastest := comparison.Rules[0]
	active := comparison.Rules[0]
	for _, r := range comparison.Rules[1:] {
		if r.SuccessRate > best.SuccessRate {
			best = r
		}
		if r.AvgExecutionTime < fastest.AvgExecutionTime {
			fastest = r
		}
		if r.TotalExecutions > active.TotalExecutions {
			active = r
		}
	}
	comparison.BestPerforming = best
	comparison.Fastest = fastest
	comparison.MostActive = active

	return comparison
}

// SystemAnalytics rolls every rule's records together over the window.
func (s *Service) SystemAnalytics(days int) *SystemSummary {
	if days <= 0 {
		days = 30
	}
	cutoff := s.now().AddDate(0, 0, -days)

	s.mu.RLock()
	records := filterSince(s.history, cutoff)
	s.mu.RUnlock()

	if len(records) == 0 {
		return &SystemSummary{PeriodDays: days, Message: "no data"}
	}

	type ruleStat struct {
		executions int
		successes  int
	}
	stats := make(map[string]*ruleStat)

	total := len(records)
	successes := 0
	matches := 0
	totalAlerts := 0
	var sumTime float64

	for _, r := range records {
		if r.Success {
			successes++
		}
		if r.Matched {
			matches++
		}
		totalAlerts += r.AlertsGenerated
		sumTime += r.ExecutionTime

		st := stats[r.RuleID]
		if st == nil {
			st = &ruleStat{}
			stats[r.RuleID] = st
		}
		st.executions++
		if r.Success {
			st.successes++
		}
	}

	mostActive := make([]RuleRanking, 0, len(stats))
	mostReliable := make([]RuleRanking, 0, len(stats))
	for id, st := range stats {
		mostActive = append(mostActive, RuleRanking{RuleID: id, Value: float64(st.executions)})
		mostReliable = append(mostReliable, RuleRanking{RuleID: id, Value: float64(st.successes) / float64(st.executions)})
	}
	sortRankingsDesc(mostActive)
	sortRankingsDesc(mostReliable)

	return &SystemSummary{
		PeriodDays:        days,
		TotalExecutions:   total,
		TotalRules:        len(stats),
		SystemSuccessRate: float64(successes) / float64(total),
		SystemMatchRate:   float64(matches) / float64(total),
		TotalAlerts:       totalAlerts,
		AvgExecutionTime:  sumTime / float64(total),
		MostActiveRules:   topN(mostActive, 5),
		MostReliableRules: topN(mostReliable, 5),
	}
}

// Export returns a serializable snapshot (summary, raw records and
// recommendations) for one rule, or for the whole system when ruleID is
// empty.
func (s *Service) Export(ruleID string, days int) *ExportData {
	if days <= 0 {
		days = 30
	}
	cutoff := s.now().AddDate(0, 0, -days)

	export := &ExportData{
		ExportTime:      s.now(),
		PeriodDays:      days,
		RuleID:          ruleID,
		Recommendations: []Recommendation{},
	}

	s.mu.RLock()
	var source []*ExecutionRecord
	if ruleID != "" {
		source = filterSince(s.perRule[ruleID], cutoff)
	} else {
		source = filterSince(s.history, cutoff)
	}
	records := make([]ExecutionRecord, len(source))
	for i, r := range source {
		records[i] = *r
	}
	s.mu.RUnlock()

	export.Records = records
	if ruleID != "" {
		export.Summary = s.RulePerformanceSummary(ruleID, days)
		export.Recommendations = s.OptimizationRecommendations(ruleID, days)
	} else {
		export.Summary = s.SystemAnalytics(days)
	}

	return export
}

// analyzeTrends buckets records by day and compares the first and last of
// the trailing seven buckets.
func analyzeTrends(records []*ExecutionRecord) *TrendAnalysis {
	if len(records) < 2 {
		return &TrendAnalysis{Status: "insufficient_data"}
	}

	type bucket struct {
		executions int
		successes  int
	}
	daily := make(map[string]*bucket)
	var days []string

	for _, r := range records {
		key := r.Timestamp.Format("2006-01-02")
		b := daily[key]
		if b == nil {
			b = &bucket{}
			daily[key] = b
			days = append(days, key)
		}
		b.executions++
		if r.Success {
			b.successes++
		}
	}

	if len(days) < 2 {
		return &TrendAnalysis{Status: "stable"}
	}

	sort.Strings(days)
	if len(days) > 7 {
		days = days[len(days)-7:]
	}

	executions := make([]int, len(days))
	successRates := make([]float64, len(days))
	for i, d := range days {
		b := daily[d]
		executions[i] = b.executions
		successRates[i] = float64(b.successes) / float64(b.executions)
	}

	executionTrend := "decreasing"
	if executions[len(executions)-1] > executions[0] {
		executionTrend = "increasing"
	}
	successTrend := "declining"
	if successRates[len(successRates)-1] > successRates[0] {
		successTrend = "improving"
	}

	return &TrendAnalysis{
		Status:            "ok",
		ExecutionTrend:    executionTrend,
		SuccessTrend:      successTrend,
		DailyExecutions:   executions,
		DailySuccessRates: successRates,
	}
}

// performanceGrade applies the weighted rubric: success rate 40, execution
// time 30, match rate 30, mapped to a letter.
func performanceGrade(successRate, avgTime, matchRate float64) string {
	score := 0

	switch {
	case successRate >= 0.95:
		score += 40
	case successRate >= 0.90:
		score += 30
	case successRate >= 0.80:
		score += 20
	default:
		score += 10
	}

	switch {
	case avgTime <= 0.1:
		score += 30
	case avgTime <= 0.5:
		score += 25
	case avgTime <= 1.0:
		score += 20
	default:
		score += 10
	}

	switch {
	case matchRate >= 0.8:
		score += 30
	case matchRate >= 0.6:
		score += 20
	case matchRate >= 0.4:
		score += 15
	default:
		score += 10
	}

	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	default:
		return "D"
	}
}

func filterSince(records []*ExecutionRecord, cutoff time.Time) []*ExecutionRecord {
	filtered := make([]*ExecutionRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func sortRankingsDesc(rankings []RuleRanking) {
	sort.Slice(rankings, func(i, j int) bool {
		return rankings[i].Value > rankings[j].Value
	})
}

func topN(rankings []RuleRanking, n int) []RuleRanking {
	if len(rankings) > n {
		return rankings[:n]
	}
	return rankings
}
