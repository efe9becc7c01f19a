package ai

import (
	"context"
)

// Advisor produces textual optimization advice for rule tuning. The
// pipeline never depends on an advisor being reachable; callers fall back to
// deterministic suggestions whenever Advise fails.
type Advisor interface {
	// Advise sends a prompt and returns the raw completion text.
	Advise(ctx context.Context, prompt string) (string, error)

	// Name identifies the backing provider for logging.
	Name() string
}

// Disabled is the advisor used when no provider is configured. It always
// errors so callers take their deterministic path.
type Disabled struct{}

func (Disabled) Advise(ctx context.Context, prompt string) (string, error) {
	return "", ErrAdvisorDisabled
}

func (Disabled) Name() string { return "disabled" }
