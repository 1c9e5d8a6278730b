package engine

import "fmt"

// ValidationError reports rejected input. It is raised synchronously before
// any packing work begins.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ConfigurationError reports an unusable service configuration, such as no
// data source being available. It is raised before dispatch.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Message
}

// InvariantViolation reports broken cut accounting. It is fatal: the call is
// aborted with no partial result.
type InvariantViolation struct {
	CutID   string
	Message string
}

func (e *InvariantViolation) Error() string {
	if e.CutID == "" {
		return "invariant violation: " + e.Message
	}
	return fmt.Sprintf("invariant violation: cut %s: %s", e.CutID, e.Message)
}

// UnsupportedAlgorithmError reports an unknown algorithm identifier.
type UnsupportedAlgorithmError struct {
	Algorithm string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported algorithm %q", e.Algorithm)
}
