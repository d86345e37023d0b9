package validator

import (
	"fmt"
	"time"

	"github.com/flowspec/flowvalidate/document"
)

// Option configures a ValidateWithOptions call.
type Option func(*validateConfig) error

// validateConfig holds configuration for a validation operation.
type validateConfig struct {
	// Input source (exactly one must be set).
	filePath *string
	tree     any
	treeSet  bool

	includeWarnings bool
}

// WithFilePath specifies a file path as the input source.
func WithFilePath(path string) Option {
	return func(cfg *validateConfig) error {
		cfg.filePath = &path
		return nil
	}
}

// WithDocument specifies an already-decoded document tree as the input
// source, as returned by the document package's loaders.
func WithDocument(tree any) Option {
	return func(cfg *validateConfig) error {
		cfg.tree = tree
		cfg.treeSet = true
		return nil
	}
}

// WithIncludeWarnings enables or disables advisory diagnostics.
// Default: true.
func WithIncludeWarnings(enabled bool) Option {
	return func(cfg *validateConfig) error {
		cfg.includeWarnings = enabled
		return nil
	}
}

// applyOptions applies option functions and validates configuration.
func applyOptions(opts ...Option) (*validateConfig, error) {
	cfg := &validateConfig{includeWarnings: true}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	sourceCount := 0
	if cfg.filePath != nil {
		sourceCount++
	}
	if cfg.treeSet {
		sourceCount++
	}
	if sourceCount == 0 {
		return nil, fmt.Errorf("validator: must specify an input source (use WithFilePath or WithDocument)")
	}
	if sourceCount > 1 {
		return nil, fmt.Errorf("validator: must specify exactly one input source")
	}
	return cfg, nil
}

// ValidateWithOptions validates a workflow document using functional
// options, combining input source selection and configuration in a
// single call.
//
// Example:
//
//	result, err := validator.ValidateWithOptions(
//	    validator.WithFilePath("workflow.yaml"),
//	    validator.WithIncludeWarnings(false),
//	)
func ValidateWithOptions(opts ...Option) (*Result, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, err
	}

	v := &Validator{IncludeWarnings: cfg.includeWarnings}

	if cfg.treeSet {
		return v.ValidateDocument(cfg.tree, 0)
	}

	start := time.Now()
	tree, err := document.FromFile(*cfg.filePath)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	return v.ValidateDocument(tree, time.Since(start))
}
