package alerts

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier() *Classifier {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewClassifier(nil, logger)
}

func TestClassifyRequiresSourceOrMetric(t *testing.T) {
	c := newTestClassifier()

	_, err := c.Classify(Signal{})
	assert.Error(t, err)

	alert, err := c.Classify(Signal{Metric: "cpu_usage", Value: 50})
	require.NoError(t, err)
	assert.Equal(t, "unknown", alert.Source)
}

func TestClassifyLevelThresholds(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name     string
		source   string
		metric   string
		value    float64
		expected Level
	}{
		{"cpu below warning", "system", "cpu_usage", 50, LevelInfo},
		{"cpu warning", "system", "cpu_usage", 72, LevelWarning},
		{"cpu error", "system", "cpu_usage", 88, LevelError},
		{"cpu critical", "system", "cpu_usage", 97, LevelCritical},
		{"order delay info", "business", "order_delay", 20, LevelInfo},
		{"order delay error", "business", "order_delay", 70, LevelError},
		{"order delay critical", "business", "order_delay", 150, LevelCritical},
		{"response time warning", "performance", "response_time", 2500, LevelWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, err := c.Classify(Signal{Source: tt.source, Metric: tt.metric, Value: tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, alert.Level)
		})
	}
}

func TestClassifyDefaultHeuristic(t *testing.T) {
	c := newTestClassifier()

	// No threshold table exists for this pair; the generic heuristic applies.
	tests := []struct {
		value    float64
		expected Level
	}{
		{50, LevelInfo},
		{65, LevelWarning},
		{85, LevelError},
		{150, LevelCritical},
	}

	for _, tt := range tests {
		alert, err := c.Classify(Signal{Source: "custom", Metric: "queue_depth", Value: tt.value})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, alert.Level, "value %v", tt.value)
	}
}

func TestClassifyCategory(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		source   string
		metric   string
		expected Category
	}{
		{"anything", "cpu_usage", CategorySystem},
		{"anything", "memory_usage", CategorySystem},
		{"anything", "response_time", CategoryPerformance},
		{"anything", "order_delay", CategoryBusiness},
		{"anything", "inventory_low", CategoryBusiness},
		{"security", "login_failures", CategorySecurity},
		{"unrecognized", "custom_metric", CategorySystem},
	}

	for _, tt := range tests {
		alert, err := c.Classify(Signal{Source: tt.source, Metric: tt.metric, Value: 10})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, alert.Category, "%s/%s", tt.source, tt.metric)
	}
}

func TestClassifySolutions(t *testing.T) {
	c := newTestClassifier()

	// Warning alerts drop the immediate steps.
	warning, err := c.Classify(Signal{Source: "system", Metric: "cpu_usage", Value: 72})
	require.NoError(t, err)
	for _, s := range warning.Solutions {
		assert.NotEqual(t, "immediate", s.Type)
	}

	// Higher severities keep them, capped at three.
	critical, err := c.Classify(Signal{Source: "system", Metric: "cpu_usage", Value: 97})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(critical.Solutions), 3)
	assert.Equal(t, "immediate", critical.Solutions[0].Type)

	// Unknown metric and source yields no solutions rather than an error.
	bare, err := c.Classify(Signal{Source: "custom", Metric: "queue_depth", Value: 10})
	require.NoError(t, err)
	assert.Empty(t, bare.Solutions)
}

func TestCalculatePriorityBounds(t *testing.T) {
	c := newTestClassifier()

	for _, level := range Levels() {
		for _, category := range Categories() {
			priority := c.calculatePriority(level, category)
			assert.GreaterOrEqual(t, priority, 1)
			assert.LessOrEqual(t, priority, 10)
		}
	}

	// emergency + security would overflow without the clamp
	assert.Equal(t, 10, c.calculatePriority(LevelEmergency, CategorySecurity))
	assert.Equal(t, 2, c.calculatePriority(LevelInfo, CategorySystem))
	assert.Equal(t, 8, c.calculatePriority(LevelError, CategoryBusiness))
}

func TestLevelOrdering(t *testing.T) {
	levels := Levels()
	require.Len(t, levels, 5)
	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i].Rank(), levels[i-1].Rank())
	}
	assert.Equal(t, -1, Level("bogus").Rank())
}

func TestResolveNotification(t *testing.T) {
	c := newTestClassifier()

	// Business alerts use the business_critical policy set.
	business := c.ResolveNotification(CategoryBusiness, LevelError)
	assert.Equal(t, []string{"all"}, business.Channels)
	assert.Equal(t, 300, business.EscalateAfter)
	assert.Equal(t, 900, business.RepeatInterval)

	// Other categories take the default set.
	system := c.ResolveNotification(CategorySystem, LevelWarning)
	assert.Equal(t, []string{"system", "admin"}, system.Channels)
	assert.Equal(t, 1800, system.EscalateAfter)

	// Emergency escalates immediately.
	emergency := c.ResolveNotification(CategorySystem, LevelEmergency)
	assert.True(t, emergency.Immediate)

	// A level missing from the selected policy set falls back to the fixed
	// default channel.
	missing := c.ResolveNotification(CategoryBusiness, LevelEmergency)
	assert.Equal(t, []string{"system"}, missing.Channels)
	assert.Equal(t, 3600, missing.EscalateAfter)
}

func TestResolveAutoResolution(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name     string
		source   string
		metric   string
		level    Level
		enabled  bool
		ruleName string
	}{
		{"order retry", "business", "order_delay", LevelError, true, "order_retry"},
		{"inventory alert", "business", "inventory_low", LevelWarning, true, "inventory_alert"},
		{"system restart", "system_error", "anything", LevelCritical, true, "system_restart"},
		{"wrong level", "business", "order_delay", LevelWarning, false, ""},
		{"no rule for metric", "system", "cpu_usage", LevelCritical, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolution := c.ResolveAutoResolution(tt.source, tt.metric, tt.level)
			assert.Equal(t, tt.enabled, resolution.Enabled)
			if tt.enabled {
				assert.Equal(t, tt.ruleName, resolution.RuleName)
				assert.NotEmpty(t, resolution.Actions)
				assert.GreaterOrEqual(t, resolution.MaxRetries, 1)
			} else {
				assert.NotEmpty(t, resolution.Reason)
			}
		})
	}
}

func TestEstimateResolution(t *testing.T) {
	c := newTestClassifier()

	assert.Equal(t, 240, c.estimateResolutionMinutes(LevelError, CategoryBusiness))
	assert.Equal(t, 30, c.estimateResolutionMinutes(LevelInfo, CategorySystem))
	assert.Equal(t, 120, c.estimateResolutionMinutes(Level("bogus"), CategorySystem))
}

func TestAlertIDFormat(t *testing.T) {
	first := newAlertID()
	second := newAlertID()
	assert.NotEqual(t, first, second)
	assert.Contains(t, first, "ALERT_")
}
