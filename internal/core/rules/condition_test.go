package rules

import (
	"testing"

	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
	"github.com/stretchr/testify/assert"
)

func TestMatchCondition(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		cond     models.RuleCondition
		expected bool
	}{
		{
			name:     "gt match",
			event:    Event{"delay_minutes": 45.0},
			cond:     models.RuleCondition{Field: "delay_minutes", Operator: "gt", Operand: 30},
			expected: true,
		},
		{
			name:     "gt no match on equal",
			event:    Event{"delay_minutes": 30.0},
			cond:     models.RuleCondition{Field: "delay_minutes", Operator: "gt", Operand: 30},
			expected: false,
		},
		{
			name:     "gte match on equal",
			event:    Event{"delay_minutes": 30.0},
			cond:     models.RuleCondition{Field: "delay_minutes", Operator: "gte", Operand: 30},
			expected: true,
		},
		{
			name:     "lt match",
			event:    Event{"stock": 3},
			cond:     models.RuleCondition{Field: "stock", Operator: "lt", Operand: 5},
			expected: true,
		},
		{
			name:     "lte match",
			event:    Event{"stock": 5},
			cond:     models.RuleCondition{Field: "stock", Operator: "lte", Operand: 5},
			expected: true,
		},
		{
			name:     "eq numeric across types",
			event:    Event{"count": 5.0},
			cond:     models.RuleCondition{Field: "count", Operator: "eq", Operand: 5},
			expected: true,
		},
		{
			name:     "eq string",
			event:    Event{"status": "failed"},
			cond:     models.RuleCondition{Field: "status", Operator: "eq", Operand: "failed"},
			expected: true,
		},
		{
			name:     "eq string number vs number",
			event:    Event{"count": "5"},
			cond:     models.RuleCondition{Field: "count", Operator: "eq", Operand: 5},
			expected: true,
		},
		{
			name:     "neq",
			event:    Event{"status": "ok"},
			cond:     models.RuleCondition{Field: "status", Operator: "neq", Operand: "failed"},
			expected: true,
		},
		{
			name:     "contains",
			event:    Event{"message": "connection timeout on db-3"},
			cond:     models.RuleCondition{Field: "message", Operator: "contains", Operand: "timeout"},
			expected: true,
		},
		{
			name:     "missing field fails closed",
			event:    Event{"other": 99.0},
			cond:     models.RuleCondition{Field: "delay_minutes", Operator: "gt", Operand: 30},
			expected: false,
		},
		{
			name:     "non-numeric value fails closed",
			event:    Event{"delay_minutes": "not a number"},
			cond:     models.RuleCondition{Field: "delay_minutes", Operator: "gt", Operand: 30},
			expected: false,
		},
		{
			name:     "unknown operator fails closed",
			event:    Event{"delay_minutes": 45.0},
			cond:     models.RuleCondition{Field: "delay_minutes", Operator: "between", Operand: 30},
			expected: false,
		},
		{
			name:     "numeric string threshold",
			event:    Event{"delay_minutes": 45.0},
			cond:     models.RuleCondition{Field: "delay_minutes", Operator: "gt", Operand: "30"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchCondition(tt.event, tt.cond))
		})
	}
}

func TestFieldValue(t *testing.T) {
	event := Event{"a": 42.5, "b": "17", "c": "text"}

	assert.Equal(t, 42.5, FieldValue(event, "a"))
	assert.Equal(t, 17.0, FieldValue(event, "b"))
	assert.Equal(t, 0.0, FieldValue(event, "c"))
	assert.Equal(t, 0.0, FieldValue(event, "missing"))
}
