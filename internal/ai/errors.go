package ai

import "errors"

var (
	// ErrAdvisorDisabled is returned when no advisor provider is configured.
	ErrAdvisorDisabled = errors.New("advisor is disabled")

	// ErrEmptyCompletion is returned when the provider answered with no
	// usable choices.
	ErrEmptyCompletion = errors.New("advisor returned an empty completion")
)
