package flowerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrStructural indicates a structural document violation occurred.
	ErrStructural = errors.New("structural error")

	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrCircularDependency indicates a circular dependency was detected
	// in the checkpoint/action graph.
	ErrCircularDependency = errors.New("circular dependency")

	// ErrType indicates an operand type incompatibility.
	ErrType = errors.New("type error")

	// ErrGraph indicates a dependency-graph violation other than a cycle.
	ErrGraph = errors.New("graph error")

	// ErrFlow indicates a pipeline flow-typing violation.
	ErrFlow = errors.New("flow error")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// StructuralError represents a violation of a spec node's declared shape:
// a wrong value kind, a missing required property, a forbidden property, a
// pattern or enum mismatch, or a mutually-exclusive constraint violation.
type StructuralError struct {
	// Path is the dotted path to the offending node, e.g.
	// "root.actions[0].operation".
	Path string
	// Message describes the structural violation.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a human-readable error message.
func (e *StructuralError) Error() string {
	msg := "structural error"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *StructuralError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// ReferenceError represents a failure to resolve a reference: a global
// reference by id or alias, a pipeline variable, a local variable, or a
// filter reference, including invalid dotted-path traversal over one.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve.
	Ref string
	// Path is the dotted document path where the reference occurred.
	Path string
	// IsCircular is true if this error is due to a circular dependency
	// reached while resolving the reference.
	IsCircular bool
	// Message provides additional context about the failure.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsCircular {
		msg = "circular dependency"
	}
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Ref != "" {
		msg += fmt.Sprintf(" (ref %q)", e.Ref)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type. Matches ErrReference
// unconditionally, and also ErrCircularDependency when IsCircular is set.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	return target == ErrCircularDependency && e.IsCircular
}

// TypeError represents an operand type incompatibility: a disallowed
// comparison operator for the operand types involved, a pipeline
// assignment type mismatch, or a nested-list violation.
type TypeError struct {
	// Path is the dotted path to the offending operand.
	Path string
	// Left and Right describe the operand types involved, when relevant.
	Left string
	// Right describes the right-hand operand type, when relevant.
	Right string
	// Message describes the incompatibility.
	Message string
}

// Error returns a human-readable error message.
func (e *TypeError) Error() string {
	msg := "type error"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Left != "" || e.Right != "" {
		msg += fmt.Sprintf(" (%s vs %s)", e.Left, e.Right)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *TypeError) Is(target error) bool {
	return target == ErrType
}

// GraphError represents a dependency-graph violation: a missing
// guaranteed ancestor, an out-of-scope reference to a thread-group
// variable, a duplicate object-promise fulfillment, an unreachable thread
// group, or a circular dependency among actions and checkpoints.
type GraphError struct {
	// DependencyPath is the cycle's action-id path, set only when
	// IsCircular is true.
	DependencyPath []string
	// IsCircular is true when this error represents a detected cycle.
	IsCircular bool
	// Path is the dotted document path associated with the violation.
	Path string
	// Message describes the violation.
	Message string
}

// Error returns a human-readable error message.
func (e *GraphError) Error() string {
	if e.IsCircular {
		return fmt.Sprintf("circular dependency detected (dependency path: %v)", e.DependencyPath)
	}
	msg := "graph error"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type. Matches ErrGraph
// unconditionally, and also ErrCircularDependency when IsCircular is set.
func (e *GraphError) Is(target error) bool {
	if target == ErrGraph {
		return true
	}
	return target == ErrCircularDependency && e.IsCircular
}

// FlowError represents a pipeline flow-typing violation: a variable used
// before assignment, an assignment to a traverse loop variable, an
// assignment to a variable from within a scope that only traverses it, or
// an unused variable.
type FlowError struct {
	// Path is the dotted path to the pipeline node.
	Path string
	// Variable is the pipeline or thread variable name involved.
	Variable string
	// Message describes the violation.
	Message string
}

// Error returns a human-readable error message.
func (e *FlowError) Error() string {
	msg := "flow error"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Variable != "" {
		msg += fmt.Sprintf(" (variable %q)", e.Variable)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *FlowError) Is(target error) bool {
	return target == ErrFlow
}

// ConfigError represents an invalid validator configuration: no input
// source supplied, more than one supplied, or an option value that is
// otherwise malformed.
type ConfigError struct {
	// Option is the name of the problematic configuration option.
	Option string
	// Value is the invalid value that was provided (may be nil).
	Value any
	// Message describes the configuration error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
