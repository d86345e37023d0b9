package flowerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuralError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := &StructuralError{
			Path:    "root.parties[0]",
			Message: "missing required property: id",
			Cause:   cause,
		}
		assert.Equal(t, "structural error at root.parties[0]: missing required property: id: underlying error", err.Error())
	})

	t.Run("Error message with minimal fields", func(t *testing.T) {
		err := &StructuralError{}
		assert.Equal(t, "structural error", err.Error())
	})

	t.Run("Error message with path only", func(t *testing.T) {
		err := &StructuralError{Path: "root.object_types"}
		assert.Equal(t, "structural error at root.object_types", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("underlying")
		err := &StructuralError{Cause: cause}
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("Unwrap returns nil when no cause", func(t *testing.T) {
		err := &StructuralError{}
		assert.Nil(t, err.Unwrap())
	})

	t.Run("Is matches ErrStructural", func(t *testing.T) {
		err := &StructuralError{Message: "test"}
		assert.True(t, errors.Is(err, ErrStructural), "StructuralError should match ErrStructural")
	})

	t.Run("Is does not match other sentinels", func(t *testing.T) {
		err := &StructuralError{}
		assert.False(t, errors.Is(err, ErrReference), "StructuralError should not match ErrReference")
		assert.False(t, errors.Is(err, ErrType), "StructuralError should not match ErrType")
	})

	t.Run("As extracts StructuralError", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &StructuralError{Path: "root.actions[0]", Message: "bad kind"})
		var structErr *StructuralError
		require.True(t, errors.As(err, &structErr))
		assert.Equal(t, "root.actions[0]", structErr.Path)
	})
}

func TestReferenceError(t *testing.T) {
	t.Run("Error message for normal reference error", func(t *testing.T) {
		err := &ReferenceError{
			Ref:     "object_type:{Widget}",
			Path:    "root.actions[0].object_promise",
			Message: "not found",
		}
		assert.Equal(t, "reference error at root.actions[0].object_promise (ref \"object_type:{Widget}\"): not found", err.Error())
	})

	t.Run("Error message for circular dependency", func(t *testing.T) {
		err := &ReferenceError{
			Ref:        "checkpoint:3",
			IsCircular: true,
		}
		assert.Equal(t, "circular dependency (ref \"checkpoint:3\")", err.Error())
	})

	t.Run("Error message with cause", func(t *testing.T) {
		cause := errors.New("not an object in this scope")
		err := &ReferenceError{
			Ref:   "$x.name",
			Cause: cause,
		}
		assert.Equal(t, "reference error (ref \"$x.name\"): not an object in this scope", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("lookup failed")
		err := &ReferenceError{Cause: cause}
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("Is matches ErrReference", func(t *testing.T) {
		err := &ReferenceError{Ref: "test"}
		assert.True(t, errors.Is(err, ErrReference), "ReferenceError should match ErrReference")
	})

	t.Run("Is matches ErrCircularDependency when IsCircular", func(t *testing.T) {
		err := &ReferenceError{IsCircular: true}
		assert.True(t, errors.Is(err, ErrCircularDependency), "ReferenceError with IsCircular should match ErrCircularDependency")
		assert.True(t, errors.Is(err, ErrReference), "ReferenceError with IsCircular should also match ErrReference")
	})

	t.Run("Is does not match ErrCircularDependency when not circular", func(t *testing.T) {
		err := &ReferenceError{IsCircular: false}
		assert.False(t, errors.Is(err, ErrCircularDependency), "ReferenceError without IsCircular should not match ErrCircularDependency")
	})

	t.Run("As extracts ReferenceError", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &ReferenceError{
			Ref:        "checkpoint:1",
			IsCircular: true,
		})
		var refErr *ReferenceError
		require.True(t, errors.As(err, &refErr))
		assert.True(t, refErr.IsCircular)
	})
}

func TestTypeError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		err := &TypeError{
			Path:    "root.checkpoints[0].conditions[0]",
			Left:    "STRING",
			Right:   "INT",
			Message: "operator != not allowed between these types",
		}
		assert.Equal(t, "type error at root.checkpoints[0].conditions[0] (STRING vs INT): operator != not allowed between these types", err.Error())
	})

	t.Run("Error message with path only", func(t *testing.T) {
		err := &TypeError{Path: "root.actions[1].pipeline.variables[0]"}
		assert.Equal(t, "type error at root.actions[1].pipeline.variables[0]", err.Error())
	})

	t.Run("Error message minimal", func(t *testing.T) {
		err := &TypeError{}
		assert.Equal(t, "type error", err.Error())
	})

	t.Run("Is matches ErrType", func(t *testing.T) {
		err := &TypeError{Path: "test"}
		assert.True(t, errors.Is(err, ErrType), "TypeError should match ErrType")
	})

	t.Run("Is does not match other sentinels", func(t *testing.T) {
		err := &TypeError{}
		assert.False(t, errors.Is(err, ErrStructural), "TypeError should not match ErrStructural")
	})
}

func TestGraphError(t *testing.T) {
	t.Run("Error message for circular dependency", func(t *testing.T) {
		err := &GraphError{
			IsCircular:     true,
			DependencyPath: []string{"1", "2", "3", "1"},
		}
		assert.Equal(t, "circular dependency detected (dependency path: [1 2 3 1])", err.Error())
	})

	t.Run("Error message for non-circular graph violation", func(t *testing.T) {
		err := &GraphError{
			Path:    "root.actions[2]",
			Message: "object promise is not guaranteed to be fulfilled before this action",
		}
		assert.Equal(t, "graph error at root.actions[2]: object promise is not guaranteed to be fulfilled before this action", err.Error())
	})

	t.Run("Error message minimal", func(t *testing.T) {
		err := &GraphError{}
		assert.Equal(t, "graph error", err.Error())
	})

	t.Run("Is matches ErrGraph always", func(t *testing.T) {
		assert.True(t, errors.Is(&GraphError{}, ErrGraph))
		assert.True(t, errors.Is(&GraphError{IsCircular: true}, ErrGraph))
	})

	t.Run("Is matches ErrCircularDependency only when circular", func(t *testing.T) {
		assert.True(t, errors.Is(&GraphError{IsCircular: true}, ErrCircularDependency))
		assert.False(t, errors.Is(&GraphError{IsCircular: false}, ErrCircularDependency))
	})

	t.Run("As extracts GraphError", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &GraphError{IsCircular: true, DependencyPath: []string{"5", "6", "5"}})
		var graphErr *GraphError
		require.True(t, errors.As(err, &graphErr))
		assert.Equal(t, []string{"5", "6", "5"}, graphErr.DependencyPath)
	})
}

func TestFlowError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		err := &FlowError{
			Path:     "root.actions[0].pipeline.variables[2]",
			Variable: "$total",
			Message:  "used before assignment",
		}
		assert.Equal(t, "flow error at root.actions[0].pipeline.variables[2] (variable \"$total\"): used before assignment", err.Error())
	})

	t.Run("Error message minimal", func(t *testing.T) {
		err := &FlowError{}
		assert.Equal(t, "flow error", err.Error())
	})

	t.Run("Is matches ErrFlow", func(t *testing.T) {
		assert.True(t, errors.Is(&FlowError{}, ErrFlow))
	})
}

func TestConfigError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("invalid value")
		err := &ConfigError{
			Option:  "filePath",
			Value:   "",
			Message: "must be non-empty",
			Cause:   cause,
		}
		assert.Equal(t, "configuration error for filePath (value: ): must be non-empty: invalid value", err.Error())
	})

	t.Run("Error message with option only", func(t *testing.T) {
		err := &ConfigError{Option: "filePath"}
		assert.Equal(t, "configuration error for filePath", err.Error())
	})

	t.Run("Error message minimal", func(t *testing.T) {
		err := &ConfigError{}
		assert.Equal(t, "configuration error", err.Error())
	})

	t.Run("Error message with nil value excluded", func(t *testing.T) {
		err := &ConfigError{
			Option:  "input",
			Value:   nil,
			Message: "required",
		}
		assert.Equal(t, "configuration error for input: required", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("missing value")
		err := &ConfigError{Cause: cause}
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("Is matches ErrConfig", func(t *testing.T) {
		err := &ConfigError{Option: "test"}
		assert.True(t, errors.Is(err, ErrConfig), "ConfigError should match ErrConfig")
	})

	t.Run("Is does not match other sentinels", func(t *testing.T) {
		err := &ConfigError{}
		assert.False(t, errors.Is(err, ErrStructural), "ConfigError should not match ErrStructural")
	})

	t.Run("As extracts ConfigError", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &ConfigError{
			Option: "filePath",
			Value:  "missing.json",
		})
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "filePath", cfgErr.Option)
	})
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrStructural,
		ErrReference,
		ErrCircularDependency,
		ErrType,
		ErrGraph,
		ErrFlow,
		ErrConfig,
	}

	for i, s1 := range sentinels {
		for j, s2 := range sentinels {
			if i != j {
				assert.False(t, errors.Is(s1, s2), "sentinel errors should be distinct: %v should not match %v", s1, s2)
			}
		}
	}
}

func TestErrorChaining(t *testing.T) {
	t.Run("deeply wrapped StructuralError", func(t *testing.T) {
		structErr := &StructuralError{Path: "root.parties", Message: "invalid"}
		wrapped1 := fmt.Errorf("layer 1: %w", structErr)
		wrapped2 := fmt.Errorf("layer 2: %w", wrapped1)

		assert.True(t, errors.Is(wrapped2, ErrStructural), "deeply wrapped StructuralError should match ErrStructural")

		var extracted *StructuralError
		require.True(t, errors.As(wrapped2, &extracted))
		assert.Equal(t, "root.parties", extracted.Path)
	})

	t.Run("error wrapping with Cause", func(t *testing.T) {
		rootCause := errors.New("scope does not contain this variable")
		refErr := &ReferenceError{
			Ref:   "$_item",
			Cause: rootCause,
		}
		wrapped := fmt.Errorf("failed to resolve: %w", refErr)

		assert.True(t, errors.Is(wrapped, rootCause), "should be able to find root cause through Unwrap chain")
	})
}
