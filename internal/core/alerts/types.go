package alerts

import "time"

// Level is an alert severity. The ordering is total and fixed; threshold
// scans walk it from most to least severe.
type Level string

const (
	LevelInfo      Level = "info"
	LevelWarning   Level = "warning"
	LevelError     Level = "error"
	LevelCritical  Level = "critical"
	LevelEmergency Level = "emergency"
)

var levelRanks = map[Level]int{
	LevelInfo:      0,
	LevelWarning:   1,
	LevelError:     2,
	LevelCritical:  3,
	LevelEmergency: 4,
}

// Rank returns the severity rank of the level, -1 for unknown levels.
func (l Level) Rank() int {
	rank, ok := levelRanks[l]
	if !ok {
		return -1
	}
	return rank
}

// Valid reports whether the level is one of the five defined severities.
func (l Level) Valid() bool {
	_, ok := levelRanks[l]
	return ok
}

// Levels lists every level in ascending severity.
func Levels() []Level {
	return []Level{LevelInfo, LevelWarning, LevelError, LevelCritical, LevelEmergency}
}

// Category is an alert classification bucket.
type Category string

const (
	CategorySystem      Category = "system"
	CategoryBusiness    Category = "business"
	CategoryPerformance Category = "performance"
	CategorySecurity    Category = "security"
	CategoryData        Category = "data"
)

// Categories lists every defined category.
func Categories() []Category {
	return []Category{CategorySystem, CategoryBusiness, CategoryPerformance, CategorySecurity, CategoryData}
}

// Valid reports whether the category is defined.
func (c Category) Valid() bool {
	switch c {
	case CategorySystem, CategoryBusiness, CategoryPerformance, CategorySecurity, CategoryData:
		return true
	}
	return false
}

// Solution is one remediation step offered on an alert. Command is a shell
// hint for operators, Action an identifier for automated executors.
type Solution struct {
	Type        string `json:"type" yaml:"type"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Command     string `json:"command,omitempty" yaml:"command,omitempty"`
	Action      string `json:"action,omitempty" yaml:"action,omitempty"`
}

// NotificationStrategy is the resolved escalation policy for an alert.
type NotificationStrategy struct {
	Channels       []string `json:"channels"`
	EscalateAfter  int      `json:"escalate_after"`
	Immediate      bool     `json:"immediate"`
	RepeatInterval int      `json:"repeat_interval"`
}

// AutoResolution is the resolved remediation strategy for an alert. The
// dispatcher only decides; execution belongs to an external executor.
type AutoResolution struct {
	Enabled       bool     `json:"enabled"`
	RuleName      string   `json:"rule_name,omitempty"`
	Actions       []string `json:"actions,omitempty"`
	MaxRetries    int      `json:"max_retries,omitempty"`
	RetryInterval int      `json:"retry_interval,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Signal is the raw input to classification.
type Signal struct {
	Source string  `json:"source"`
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	RuleID string  `json:"rule_id,omitempty"`
}

// Alert is a fully classified alert.
type Alert struct {
	AlertID              string               `json:"alert_id"`
	Level                Level                `json:"level"`
	Category             Category             `json:"category"`
	Message              string               `json:"message"`
	Solutions            []Solution           `json:"solutions"`
	Priority             int                  `json:"priority"`
	EstimatedResolution  int                  `json:"estimated_resolution_minutes"`
	NotificationStrategy NotificationStrategy `json:"notification_strategy"`
	AutoResolution       AutoResolution       `json:"auto_resolution"`
	Source               string               `json:"source"`
	Metric               string               `json:"metric"`
	Value                float64              `json:"value"`
	RuleID               string               `json:"rule_id,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
}
