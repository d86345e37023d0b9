package pipeline

import (
	"strings"
	"testing"

	"github.com/flowspec/flowvalidate/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docWithPipeline(pl map[string]any) map[string]any {
	return map[string]any{
		"object_promises": []any{
			map[string]any{"id": 1.0, "name": "Invoice"},
		},
		"pipelines": []any{pl},
	}
}

func TestValidatePipelineHappyPath(t *testing.T) {
	pl := map[string]any{
		"object_promise": "object_promise:1",
		"variables": []any{
			map[string]any{"name": "total", "type": "NUMERIC", "initial": 0.0},
		},
		"apply": []any{
			map[string]any{"from": "$total", "to": "total", "method": "ADD"},
		},
		"output": []any{
			map[string]any{"from": "$total", "to": "amount"},
		},
	}
	g := graph.Build(docWithPipeline(pl))
	found := Validate(g)
	assert.Empty(t, found)
}

func TestValidatePipelineUndeclaredAssignTarget(t *testing.T) {
	pl := map[string]any{
		"object_promise": "object_promise:1",
		"apply": []any{
			map[string]any{"from": "$x", "to": "ghost", "method": "SET"},
		},
	}
	g := graph.Build(docWithPipeline(pl))
	found := Validate(g)
	var matched bool
	for _, i := range found {
		if strings.Contains(i.Message, "not a declared pipeline variable") {
			matched = true
		}
	}
	assert.True(t, matched)
}

func TestValidatePipelineUnusedVariable(t *testing.T) {
	pl := map[string]any{
		"object_promise": "object_promise:1",
		"variables": []any{
			map[string]any{"name": "orphan", "type": "NUMERIC", "initial": 0.0},
		},
	}
	g := graph.Build(docWithPipeline(pl))
	found := Validate(g)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Message, "never used")
}

func TestValidatePipelineUseBeforeAssignment(t *testing.T) {
	pl := map[string]any{
		"object_promise": "object_promise:1",
		"variables": []any{
			map[string]any{"name": "total", "type": "NUMERIC"},
		},
		"apply": []any{
			map[string]any{"from": "$total", "to": "total", "method": "ADD"},
		},
	}
	g := graph.Build(docWithPipeline(pl))
	found := Validate(g)
	var matched bool
	for _, i := range found {
		if strings.Contains(i.Message, "used before it is assigned") {
			matched = true
		}
	}
	assert.True(t, matched)
}

func TestValidatePipelineTraverseScopesLoopVariable(t *testing.T) {
	pl := map[string]any{
		"object_promise": "object_promise:1",
		"variables": []any{
			map[string]any{"name": "source", "type": "STRING_LIST", "initial": []any{}},
			map[string]any{"name": "items", "type": "STRING_LIST", "initial": []any{}},
		},
		"traverse": []any{
			map[string]any{"foreach": map[string]any{"foreach": "$source", "as": "item"}},
		},
		"apply": []any{
			map[string]any{"from": "$item", "to": "items", "method": "APPEND"},
		},
		"output": []any{
			map[string]any{"from": "$items", "to": "items"},
		},
	}
	g := graph.Build(docWithPipeline(pl))
	found := Validate(g)
	assert.Empty(t, found)
}

func TestValidatePipelineCannotWriteVariableWithinScopeThatTraversesIt(t *testing.T) {
	pl := map[string]any{
		"object_promise": "object_promise:1",
		"variables": []any{
			map[string]any{"name": "items", "type": "STRING_LIST", "initial": []any{}},
		},
		"traverse": []any{
			map[string]any{"foreach": map[string]any{"foreach": "$items", "as": "item"}},
		},
		"apply": []any{
			map[string]any{"from": "$item", "to": "items", "method": "APPEND"},
		},
	}
	g := graph.Build(docWithPipeline(pl))
	found := Validate(g)
	var matched bool
	for _, i := range found {
		if strings.Contains(i.Message, "within a scope that traverses it") {
			matched = true
		}
	}
	assert.True(t, matched)
}

func TestAggregatedFields(t *testing.T) {
	pl := map[string]any{
		"object_promise": "object_promise:1",
		"variables": []any{
			map[string]any{"name": "total", "type": "NUMERIC", "initial": 0.0},
		},
		"output": []any{
			map[string]any{"from": "$total", "to": "amount"},
		},
	}
	g := graph.Build(docWithPipeline(pl))
	got := AggregatedFields(g)
	require.Contains(t, got, 1)
	assert.True(t, got[1]["amount"])
}

func TestValidateRejectsCheckpointDependencyOnAggregatedField(t *testing.T) {
	doc := docWithPipeline(map[string]any{
		"object_promise": "object_promise:1",
		"variables": []any{
			map[string]any{"name": "total", "type": "NUMERIC", "initial": 0.0},
		},
		"output": []any{
			map[string]any{"from": "$total", "to": "amount"},
		},
	})
	doc["checkpoints"] = []any{
		map[string]any{
			"id": 1.0,
			"dependencies": []any{
				map[string]any{
					"left":     "object_promise:1.amount",
					"right":    100.0,
					"operator": "GREATER_THAN",
				},
			},
		},
	}
	g := graph.Build(doc)
	found := Validate(g)
	var matched bool
	for _, i := range found {
		if strings.Contains(i.Message, "cannot depend on aggregated field") {
			matched = true
		}
	}
	assert.True(t, matched)
}

func TestValidateAllowsCheckpointDependencyOnNonAggregatedField(t *testing.T) {
	doc := docWithPipeline(map[string]any{
		"object_promise": "object_promise:1",
		"variables": []any{
			map[string]any{"name": "total", "type": "NUMERIC", "initial": 0.0},
		},
		"output": []any{
			map[string]any{"from": "$total", "to": "amount"},
		},
	})
	doc["checkpoints"] = []any{
		map[string]any{
			"id": 1.0,
			"dependencies": []any{
				map[string]any{
					"left":     "object_promise:1.name",
					"right":    "test",
					"operator": "EQUALS",
				},
			},
		},
	}
	g := graph.Build(doc)
	found := Validate(g)
	for _, i := range found {
		assert.NotContains(t, i.Message, "cannot depend on aggregated field")
	}
}
