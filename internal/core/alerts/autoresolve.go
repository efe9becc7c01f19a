package alerts

// ResolveAutoResolution scans the configured remediation rules for the first
// one whose conditions cover the alert's source or metric and its level.
// Finding nothing is a normal outcome, not an error; execution and retry of
// the returned actions belong to an external executor.
func (c *Classifier) ResolveAutoResolution(source, metric string, level Level) AutoResolution {
	for _, rule := range c.tables.ResolutionRules {
		if !matchesConditions(rule.Conditions, source, metric, level) {
			continue
		}

		maxRetries := rule.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}
		retryInterval := rule.RetryInterval
		if retryInterval <= 0 {
			retryInterval = 60
		}

		return AutoResolution{
			Enabled:       true,
			RuleName:      rule.Name,
			Actions:       rule.Actions,
			MaxRetries:    maxRetries,
			RetryInterval: retryInterval,
		}
	}

	return AutoResolution{
		Enabled: false,
		Reason:  "no matching auto-resolution rule",
	}
}

func matchesConditions(conditions []string, source, metric string, level Level) bool {
	signalMatched := false
	levelMatched := false
	for _, cond := range conditions {
		if cond == source || cond == metric {
			signalMatched = true
		}
		if cond == string(level) {
			levelMatched = true
		}
	}
	return signalMatched && levelMatched
}
