// Package flowerrors provides structured error types for the flowvalidate
// library.
//
// Import path: github.com/flowspec/flowvalidate/flowerrors
//
// This package enables programmatic error handling via [errors.Is] and
// [errors.As], letting callers distinguish between the diagnostic
// categories a workflow document can fail with and handle each
// appropriately.
//
// # Error Types
//
// The package provides six error types, one per diagnostic category named
// in the validator's error taxonomy:
//
//   - [StructuralError]: wrong value kind, missing/forbidden property, pattern
//     or enum mismatch, mutually-exclusive violation
//   - [ReferenceError]: invalid ref syntax, unresolved ref, wrong ref kind
//   - [TypeError]: operand type incompatibility, nested list, assignment
//     type mismatch
//   - [GraphError]: circular dependency, missing ancestor, unreachable
//     thread group, duplicate object-promise fulfillment
//   - [FlowError]: pipeline use-before-assignment, assignment to a loop
//     variable, unused variable
//   - [ConfigError]: invalid validator configuration (functional options)
//
// # Sentinel Errors
//
// Each error type has a corresponding sentinel for use with errors.Is():
// [ErrStructural], [ErrReference], [ErrCircularDependency], [ErrType],
// [ErrGraph], [ErrFlow], [ErrConfig].
//
// # Usage
//
//	err := &flowerrors.GraphError{IsCircular: true, DependencyPath: []string{"1", "2", "1"}}
//	if errors.Is(err, flowerrors.ErrCircularDependency) {
//	    fmt.Println(err) // circular dependency detected (dependency path: [1 2 1])
//	}
//
// The validator package reports its diagnostics as issues.Issue values in
// its Result and does not return these error types.
package flowerrors
