package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexerp-ops/procmon-backend-go/internal/database/models"
)

// CompiledRule describes a rule held by the declarative backend.
type CompiledRule struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Domain    string    `json:"domain"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Compiled  bool      `json:"compiled"`
	CreatedAt time.Time `json:"created_at"`
}

// BackendAlert is an alert proposed by a declarative rule execution.
type BackendAlert struct {
	Level    string `json:"level"`
	Message  string `json:"message"`
	Solution string `json:"solution"`
	Priority string `json:"priority"`
}

// ExecutionResult is the outcome of one declarative rule execution.
type ExecutionResult struct {
	Matched bool           `json:"matched"`
	Alerts  []BackendAlert `json:"alerts"`
	Actions []string       `json:"actions"`
}

// RuleBackend is the pluggable boundary to a rule-compilation/execution
// engine for rules beyond simple field/operator conditions. Implementations
// may perform blocking I/O; they own their timeouts.
type RuleBackend interface {
	CreateRule(ctx context.Context, id, content, ruleType, domain string) (*CompiledRule, error)
	ExecuteRule(ctx context.Context, id string, facts Event) (*ExecutionResult, error)
}

// DomainHandler maps facts to an execution result for one rule domain.
type DomainHandler func(facts Event) *ExecutionResult

// SimulatedBackend is the in-process RuleBackend. Execution dispatches
// through a domain → handler table keyed by the rule's declared domain tag;
// handlers are replaceable without touching the dispatch logic.
type SimulatedBackend struct {
	mu       sync.RWMutex
	rules    map[string]*CompiledRule
	handlers map[string]DomainHandler
	logger   *logrus.Logger
}

// NewSimulatedBackend creates a simulated backend with the stock domain
// handlers registered.
func NewSimulatedBackend(logger *logrus.Logger) *SimulatedBackend {
	b := &SimulatedBackend{
		rules:    make(map[string]*CompiledRule),
		handlers: make(map[string]DomainHandler),
		logger:   logger,
	}
	b.RegisterDomain(models.DomainInventory, inventoryHandler)
	b.RegisterDomain(models.DomainOrder, orderHandler)
	b.RegisterDomain(models.DomainAlert, systemAlertHandler)
	return b
}

// RegisterDomain installs or replaces the handler for a domain.
func (b *SimulatedBackend) RegisterDomain(domain string, handler DomainHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[domain] = handler
}

// CreateRule compiles and stores a declarative rule.
func (b *SimulatedBackend) CreateRule(ctx context.Context, id, content, ruleType, domain string) (*CompiledRule, error) {
	if id == "" {
		return nil, fmt.Errorf("rule id is required")
	}
	if content == "" {
		return nil, fmt.Errorf("rule content is required")
	}
	if ruleType == "" {
		ruleType = "drl"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.handlers[domain]; !ok {
		return nil, fmt.Errorf("unknown rule domain %q", domain)
	}

	rule := &CompiledRule{
		ID:        id,
		Type:      ruleType,
		Domain:    domain,
		Content:   content,
		Status:    "active",
		Compiled:  true,
		CreatedAt: time.Now(),
	}
	b.rules[id] = rule

	b.logger.WithFields(logrus.Fields{"rule_id": id, "domain": domain}).Info("Declarative rule compiled")
	return rule, nil
}

// ExecuteRule runs a compiled rule against the facts. A missing rule is a
// reported error; callers treat it as non-fatal and continue the batch.
func (b *SimulatedBackend) ExecuteRule(ctx context.Context, id string, facts Event) (*ExecutionResult, error) {
	b.mu.RLock()
	rule, ok := b.rules[id]
	var handler DomainHandler
	if ok {
		handler = b.handlers[rule.Domain]
	}
	b.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("rule %s not found in backend", id)
	}
	if handler == nil {
		return nil, fmt.Errorf("no handler for domain %q", rule.Domain)
	}

	return handler(facts), nil
}

// GetRule returns a compiled rule, nil when absent.
func (b *SimulatedBackend) GetRule(id string) *CompiledRule {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rules[id]
}

// inventoryHandler flags stock shortages and overstock.
func inventoryHandler(facts Event) *ExecutionResult {
	result := &ExecutionResult{Alerts: []BackendAlert{}, Actions: []string{}}

	minStock := FieldValue(facts, "min_stock")
	if minStock == 0 {
		minStock = 10
	}
	if qty, ok := facts["stock_quantity"]; ok {
		if v, err := toFloat(qty); err == nil && v < minStock {
			result.Matched = true
			result.Alerts = append(result.Alerts, BackendAlert{
				Level:    "warning",
				Message:  "inventory below minimum stock",
				Solution: "restock before the shortage propagates to orders",
				Priority: "high",
			})
			result.Actions = append(result.Actions, "send_inventory_alert")
		}
	}

	if FieldValue(facts, "stock_days") > 90 {
		result.Matched = true
		result.Alerts = append(result.Alerts, BackendAlert{
			Level:    "info",
			Message:  "inventory overstocked",
			Solution: "consider promotion or transfer",
			Priority: "medium",
		})
	}

	return result
}

// orderHandler flags delayed order processing.
func orderHandler(facts Event) *ExecutionResult {
	result := &ExecutionResult{Alerts: []BackendAlert{}, Actions: []string{}}

	delay := FieldValue(facts, "delay_minutes")
	if delay > 30 {
		level := "warning"
		priority := "medium"
		if delay > 60 {
			level = "critical"
			priority = "high"
		}
		result.Matched = true
		result.Alerts = append(result.Alerts, BackendAlert{
			Level:    level,
			Message:  fmt.Sprintf("order processing delayed %.0f minutes", delay),
			Solution: "retry automatically or escalate to an operator",
			Priority: priority,
		})
		result.Actions = append(result.Actions, "retry_order_processing")
	}

	return result
}

// systemAlertHandler flags host-level pressure.
func systemAlertHandler(facts Event) *ExecutionResult {
	result := &ExecutionResult{Alerts: []BackendAlert{}, Actions: []string{}}

	if FieldValue(facts, "cpu_usage") > 80 {
		result.Matched = true
		result.Alerts = append(result.Alerts, BackendAlert{
			Level:    "warning",
			Message:  "system CPU usage high",
			Solution: "check load, scale out if sustained",
			Priority: "high",
		})
	}

	return result
}
