package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Rule types
const (
	RuleTypeSimple      = "simple"
	RuleTypeDeclarative = "declarative"
)

// Declarative rule domains. The backend dispatches by this tag instead of
// sniffing the rule id.
const (
	DomainInventory = "inventory"
	DomainOrder     = "order"
	DomainAlert     = "alert"
)

// RuleCondition is the single field/operator/threshold condition of a simple
// rule. Level and Solution seed the alert emitted when the condition fires.
// Operand keeps the "value" wire name; the Go field differs so the type can
// also satisfy driver.Valuer.
type RuleCondition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Operand  interface{} `json:"value"`
	Level    string      `json:"level,omitempty"`
	Solution string      `json:"solution,omitempty"`
}

// Value serializes the condition for storage.
func (c RuleCondition) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan deserializes a stored condition.
func (c *RuleCondition) Scan(value interface{}) error {
	if value == nil {
		*c = RuleCondition{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("cannot scan %T into RuleCondition", value)
	}
}

// ProcessRule is a monitoring rule owned by the rule store. The pipeline only
// reads transient snapshots of these during evaluation.
type ProcessRule struct {
	ID        string        `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Enabled   bool          `json:"enabled" db:"enabled"`
	Type      string        `json:"type" db:"type"`
	Domain    string        `json:"domain,omitempty" db:"domain"`
	Condition RuleCondition `json:"condition" db:"condition"`
	Content   string        `json:"content,omitempty" db:"content"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// ProcessAlert is a classified alert persisted after evaluation.
type ProcessAlert struct {
	ID        int64           `json:"id" db:"id"`
	AlertID   string          `json:"alert_id" db:"alert_id"`
	Level     string          `json:"level" db:"level"`
	Category  string          `json:"category" db:"category"`
	Message   string          `json:"message" db:"message"`
	Solution  string          `json:"solution" db:"solution"`
	Source    string          `json:"source" db:"source"`
	Extra     json.RawMessage `json:"extra,omitempty" db:"extra"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// RuleFeedback is user feedback on a rule's behavior, consumed by the learner.
type RuleFeedback struct {
	ID           int64           `json:"id" db:"id"`
	RuleID       string          `json:"rule_id" db:"rule_id"`
	Type         string          `json:"type" db:"type"`
	Issue        string          `json:"issue" db:"issue"`
	Satisfaction sql.NullFloat64 `json:"satisfaction" db:"satisfaction"`
	Details      string          `json:"details" db:"details"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
