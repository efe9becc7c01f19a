package alerts

// ResolveNotification maps (category, level) to the notification strategy.
// The policy set is chosen through the category → policy table; categories
// without an entry use the default set. The repeat interval depends on the
// level alone. Pure function of its inputs, no I/O.
func (c *Classifier) ResolveNotification(category Category, level Level) NotificationStrategy {
	policyName, ok := c.tables.CategoryPolicies[category]
	if !ok {
		policyName = "default"
	}
	policy, ok := c.tables.EscalationPolicies[policyName]
	if !ok {
		policy = c.tables.EscalationPolicies["default"]
	}

	rule, ok := policy.Levels[level]
	if !ok {
		rule = EscalationRule{Notify: []string{"system"}, EscalateAfter: 3600}
	}

	return NotificationStrategy{
		Channels:       rule.Notify,
		EscalateAfter:  rule.EscalateAfter,
		Immediate:      rule.EscalateImmediately,
		RepeatInterval: c.repeatInterval(level),
	}
}

func (c *Classifier) repeatInterval(level Level) int {
	if interval, ok := c.tables.RepeatIntervals[level]; ok {
		return interval
	}
	return 1800
}
