package alerts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LevelRule is one threshold entry in the per-(source, metric) level table.
type LevelRule struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Message   string  `json:"message" yaml:"message"`
}

// EscalationRule is the escalation entry for one level within a policy set.
type EscalationRule struct {
	Notify              []string `json:"notify" yaml:"notify"`
	EscalateAfter       int      `json:"escalate_after" yaml:"escalate_after"`
	EscalateImmediately bool     `json:"escalate_immediately" yaml:"escalate_immediately"`
}

// EscalationPolicy maps levels to escalation rules.
type EscalationPolicy struct {
	Levels map[Level]EscalationRule `json:"levels" yaml:"levels"`
}

// ResolutionRule is one configured auto-resolution rule. Conditions name the
// sources, metrics and levels it applies to; a rule matches an alert when the
// alert's source or metric appears in Conditions and its level does too.
type ResolutionRule struct {
	Name          string   `json:"name" yaml:"name"`
	Conditions    []string `json:"conditions" yaml:"conditions"`
	Actions       []string `json:"actions" yaml:"actions"`
	MaxRetries    int      `json:"max_retries" yaml:"max_retries"`
	RetryInterval int      `json:"retry_interval" yaml:"retry_interval"`
}

// Tables holds every data-shaped classification input: level thresholds,
// solution templates, escalation policies, auto-resolution rules and the
// priority/estimate lookups. Defaults cover the stock ERP deployment; a YAML
// file can replace any section.
type Tables struct {
	// level thresholds keyed by source then metric
	LevelRules map[string]map[string]map[Level]LevelRule `yaml:"level_rules"`

	// solution templates keyed by metric (falling back to source)
	SolutionTemplates map[string][]Solution `yaml:"solution_templates"`

	// escalation policy sets and the category → policy-set selection table
	EscalationPolicies map[string]EscalationPolicy `yaml:"escalation_policies"`
	CategoryPolicies   map[Category]string         `yaml:"category_policies"`

	// auto-resolution rules, scanned in order
	ResolutionRules []ResolutionRule `yaml:"resolution_rules"`

	// repeat notification interval per level, seconds
	RepeatIntervals map[Level]int `yaml:"repeat_intervals"`

	// priority computation inputs
	PriorityBase  map[Level]int    `yaml:"priority_base"`
	CategoryBoost map[Category]int `yaml:"category_boost"`

	// estimated resolution minutes by level then category
	ResolutionEstimates map[Level]map[Category]int `yaml:"resolution_estimates"`
}

// DefaultTables returns the built-in classification tables.
func DefaultTables() *Tables {
	return &Tables{
		LevelRules: map[string]map[string]map[Level]LevelRule{
			"system": {
				"cpu_usage": {
					LevelWarning:  {Threshold: 70, Message: "CPU usage elevated"},
					LevelError:    {Threshold: 85, Message: "CPU usage high"},
					LevelCritical: {Threshold: 95, Message: "CPU usage critically high"},
				},
				"memory_usage": {
					LevelWarning:  {Threshold: 75, Message: "memory usage elevated"},
					LevelError:    {Threshold: 90, Message: "memory usage high"},
					LevelCritical: {Threshold: 95, Message: "memory usage critically high"},
				},
			},
			"business": {
				"order_delay": {
					LevelInfo:     {Threshold: 15, Message: "order processing slightly delayed"},
					LevelWarning:  {Threshold: 30, Message: "order processing delayed"},
					LevelError:    {Threshold: 60, Message: "order processing severely delayed"},
					LevelCritical: {Threshold: 120, Message: "order processing timed out"},
				},
				"inventory_low": {
					LevelWarning:  {Threshold: 10, Message: "inventory low"},
					LevelError:    {Threshold: 5, Message: "inventory severely low"},
					LevelCritical: {Threshold: 1, Message: "inventory exhausted"},
				},
			},
			"performance": {
				"response_time": {
					LevelWarning:  {Threshold: 2000, Message: "response time slow"},
					LevelError:    {Threshold: 5000, Message: "response time very slow"},
					LevelCritical: {Threshold: 10000, Message: "response time critically slow"},
				},
			},
		},
		SolutionTemplates: map[string][]Solution{
			"cpu_usage": {
				{Type: "immediate", Title: "Check system load", Description: "Inspect running processes and current load", Command: "top -o cpu"},
				{Type: "short_term", Title: "Restart busy services", Description: "Restart the services consuming the most CPU", Command: "systemctl restart procmon-backend"},
				{Type: "long_term", Title: "Scale server resources", Description: "Add CPU cores or upgrade the host", Action: "contact_devops"},
			},
			"memory_usage": {
				{Type: "immediate", Title: "Check memory consumers", Description: "Inspect per-process memory usage", Command: "top -o mem"},
				{Type: "short_term", Title: "Restart leaking services", Description: "Restart services with growing resident sets", Command: "systemctl restart procmon-backend"},
				{Type: "long_term", Title: "Add memory", Description: "Increase host memory or tune caches", Action: "contact_devops"},
			},
			"order_delay": {
				{Type: "immediate", Title: "Check order queue", Description: "Look for blocked order processing", Command: "kubectl logs -f order-processor"},
				{Type: "immediate", Title: "Retry failed orders", Description: "Re-run orders that failed processing", Action: "retry_failed_orders"},
				{Type: "short_term", Title: "Scale order processors", Description: "Temporarily add processing instances", Action: "scale_order_processor"},
			},
			"inventory_low": {
				{Type: "immediate", Title: "Verify inventory data", Description: "Confirm stock figures are accurate", Action: "verify_inventory_data"},
				{Type: "immediate", Title: "Trigger reorder", Description: "Start the automatic reorder flow", Action: "auto_reorder"},
				{Type: "short_term", Title: "Contact supplier", Description: "Arrange an urgent restock with the supplier", Action: "contact_supplier"},
			},
		},
		EscalationPolicies: map[string]EscalationPolicy{
			"default": {
				Levels: map[Level]EscalationRule{
					LevelInfo:      {Notify: []string{"system"}, EscalateAfter: 3600},
					LevelWarning:   {Notify: []string{"system", "admin"}, EscalateAfter: 1800},
					LevelError:     {Notify: []string{"system", "admin", "manager"}, EscalateAfter: 900},
					LevelCritical:  {Notify: []string{"all"}, EscalateAfter: 300},
					LevelEmergency: {Notify: []string{"all"}, EscalateImmediately: true},
				},
			},
			"business_critical": {
				Levels: map[Level]EscalationRule{
					LevelWarning:  {Notify: []string{"admin", "manager"}, EscalateAfter: 600},
					LevelError:    {Notify: []string{"all"}, EscalateAfter: 300},
					LevelCritical: {Notify: []string{"all"}, EscalateImmediately: true},
				},
			},
		},
		CategoryPolicies: map[Category]string{
			CategoryBusiness: "business_critical",
		},
		ResolutionRules: []ResolutionRule{
			{
				Name:          "order_retry",
				Conditions:    []string{"order_delay", "error"},
				Actions:       []string{"retry_processing", "notify_admin"},
				MaxRetries:    3,
				RetryInterval: 60,
			},
			{
				Name:          "inventory_alert",
				Conditions:    []string{"inventory_low", "warning"},
				Actions:       []string{"auto_reorder", "notify_purchasing"},
				MaxRetries:    1,
				RetryInterval: 60,
			},
			{
				Name:          "system_restart",
				Conditions:    []string{"system_error", "critical"},
				Actions:       []string{"restart_service", "notify_devops"},
				MaxRetries:    1,
				RetryInterval: 30,
			},
		},
		RepeatIntervals: map[Level]int{
			LevelInfo:      3600,
			LevelWarning:   1800,
			LevelError:     900,
			LevelCritical:  300,
			LevelEmergency: 60,
		},
		PriorityBase: map[Level]int{
			LevelInfo:      2,
			LevelWarning:   4,
			LevelError:     6,
			LevelCritical:  8,
			LevelEmergency: 10,
		},
		CategoryBoost: map[Category]int{
			CategorySystem:      1,
			CategoryPerformance: 2,
			CategoryBusiness:    3,
			CategorySecurity:    4,
			CategoryData:        2,
		},
		ResolutionEstimates: map[Level]map[Category]int{
			LevelInfo:      {CategorySystem: 30, CategoryBusiness: 60, CategoryPerformance: 45, CategorySecurity: 20, CategoryData: 90},
			LevelWarning:   {CategorySystem: 60, CategoryBusiness: 120, CategoryPerformance: 90, CategorySecurity: 30, CategoryData: 180},
			LevelError:     {CategorySystem: 120, CategoryBusiness: 240, CategoryPerformance: 180, CategorySecurity: 60, CategoryData: 360},
			LevelCritical:  {CategorySystem: 240, CategoryBusiness: 480, CategoryPerformance: 360, CategorySecurity: 120, CategoryData: 720},
			LevelEmergency: {CategorySystem: 480, CategoryBusiness: 960, CategoryPerformance: 720, CategorySecurity: 240, CategoryData: 1440},
		},
	}
}

// LoadTables reads a YAML tables file and overlays it on the defaults.
// Sections absent from the file keep their built-in values.
func LoadTables(path string) (*Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier tables: %w", err)
	}

	var overlay Tables
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse classifier tables: %w", err)
	}

	if overlay.LevelRules != nil {
		tables.LevelRules = overlay.LevelRules
	}
	if overlay.SolutionTemplates != nil {
		tables.SolutionTemplates = overlay.SolutionTemplates
	}
	if overlay.EscalationPolicies != nil {
		tables.EscalationPolicies = overlay.EscalationPolicies
	}
	if overlay.CategoryPolicies != nil {
		tables.CategoryPolicies = overlay.CategoryPolicies
	}
	if overlay.ResolutionRules != nil {
		tables.ResolutionRules = overlay.ResolutionRules
	}
	if overlay.RepeatIntervals != nil {
		tables.RepeatIntervals = overlay.RepeatIntervals
	}
	if overlay.PriorityBase != nil {
		tables.PriorityBase = overlay.PriorityBase
	}
	if overlay.CategoryBoost != nil {
		tables.CategoryBoost = overlay.CategoryBoost
	}
	if overlay.ResolutionEstimates != nil {
		tables.ResolutionEstimates = overlay.ResolutionEstimates
	}

	return tables, nil
}
