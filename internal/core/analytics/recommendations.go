package analytics

// Recommendation suggests a concrete tuning action for a rule.
type Recommendation struct {
	Type           string `json:"type"`
	Priority       string `json:"priority"`
	Recommendation string `json:"recommendation"`
	Details        string `json:"details"`
}

// OptimizationRecommendations derives threshold-keyed tuning advice from a
// rule's recent performance. A rule with no recorded executions gets generic
// bootstrap advice instead of an empty list.
func (s *Service) OptimizationRecommendations(ruleID string, days int) []Recommendation {
	summary := s.RulePerformanceSummary(ruleID, days)

	if summary.TotalExecutions == 0 {
		return []Recommendation{
			{
				Type:           "general",
				Priority:       "low",
				Recommendation: "initialize rule monitoring",
				Details:        "no execution data recorded yet; run the rule against representative events to establish a baseline",
			},
			{
				Type:           "general",
				Priority:       "low",
				Recommendation: "test rule against sample data",
				Details:        "exercise the rule with known matching and non-matching events to validate its conditions",
			},
		}
	}

	var recommendations []Recommendation

	if summary.SuccessRate < 0.9 {
		recommendations = append(recommendations, Recommendation{
			Type:           "reliability",
			Priority:       "high",
			Recommendation: "investigate execution failures",
			Details:        "success rate is below 90%; review recent failed executions for malformed events or backend errors",
		})
	}

	if summary.AvgExecutionTime > 1.0 {
		recommendations = append(recommendations, Recommendation{
			Type:           "performance",
			Priority:       "medium",
			Recommendation: "optimize rule conditions",
			Details:        "average execution time exceeds one second; simplify conditions or reduce the facts evaluated per run",
		})
	}

	if summary.MatchRate < 0.5 {
		recommendations = append(recommendations, Recommendation{
			Type:           "efficiency",
			Priority:       "medium",
			Recommendation: "review rule conditions for relevance",
			Details:        "fewer than half of executions match; the rule may be evaluated against events it was not designed for",
		})
	}

	if summary.Trends != nil && summary.Trends.SuccessTrend == "declining" {
		recommendations = append(recommendations, Recommendation{
			Type:           "trend",
			Priority:       "high",
			Recommendation: "investigate declining success rate",
			Details:        "daily success rate is trending down; recent data or environment changes may be breaking the rule",
		})
	}

	if summary.AvgAlertsPerExecution > 5 {
		recommendations = append(recommendations, Recommendation{
			Type:           "alerting",
			Priority:       "low",
			Recommendation: "consider alert aggregation",
			Details:        "the rule generates more than five alerts per execution on average; aggregation would reduce notification noise",
		})
	}

	return recommendations
}
