// Package specs is the concrete catalog of named object specs describing
// a workflow document's shape: root, party, object type, object promise,
// action, checkpoint, thread group, and pipeline nodes. Each entry is
// built from the spec package's tagged-union types, grounded directly on
// the document structure a workflow document's root object declares.
package specs

import "github.com/flowspec/flowvalidate/spec"

// FieldType is the closed set of object-type attribute kinds.
const (
	FieldBoolean          = "BOOLEAN"
	FieldBooleanList      = "BOOLEAN_LIST"
	FieldNumeric          = "NUMERIC"
	FieldNumericList      = "NUMERIC_LIST"
	FieldString           = "STRING"
	FieldStringList       = "STRING_LIST"
	FieldEdge             = "EDGE"
	FieldEdgeCollection   = "EDGE_COLLECTION"
)

var fieldTypeValues = []any{
	FieldBoolean, FieldBooleanList,
	FieldNumeric, FieldNumericList,
	FieldString, FieldStringList,
	FieldEdge, FieldEdgeCollection,
}

// gateTypeValues is the closed set of checkpoint gate types.
var gateTypeValues = []any{"AND", "OR", "XOR", "NAND", "NOR"}

// operatorValues is the closed set of comparison operators.
var operatorValues = []any{
	"EQUALS", "DOES_NOT_EQUAL",
	"GREATER_THAN", "LESS_THAN", "GREATER_THAN_OR_EQUAL_TO", "LESS_THAN_OR_EQUAL_TO",
	"CONTAINS", "DOES_NOT_CONTAIN",
	"ONE_OF", "NONE_OF",
	"CONTAINS_ANY_OF", "CONTAINS_NONE_OF",
	"IS_SUBSET_OF", "IS_SUPERSET_OF",
}

var milestoneValues = []any{"REAL", "CLEAR_OWNERSHIP", "PERMANENT", "ADDITIONAL", "VERIFIABLE"}

var aggregateOperatorValues = []any{"SUM", "AVG", "MIN", "MAX", "FIRST", "LAST", "COUNT", "AND", "OR"}

var applyMethodValues = []any{"ADD", "SUBTRACT", "MULTIPLY", "DIVIDE", "APPEND", "PREPEND", "CONCAT", "SELECT", "SET", "AND", "OR"}

// hexColorPattern is the hex-color pattern supplemented from
// original_source's validation/patterns.py for Party.hex_code.
const hexColorPattern = `^#(?:[0-9a-fA-F]{3}){1,2}$`

// operandSpec matches a comparison operand: a literal scalar, a global
// ref, a pipeline/thread variable, a local ref, or a filter ref.
var operandSpec = spec.MultiTypeSpec{
	Types: []spec.Spec{
		spec.ScalarSpec{Kind: spec.KindScalar, Nullable: true},
		spec.RefSpec{RefTypes: []spec.RefType{
			spec.RefAction, spec.RefObjectPromise, spec.RefParty,
			spec.RefLocalRef, spec.RefFilterRef,
		}},
	},
}

func refSpec(kinds ...spec.RefType) spec.RefSpec {
	return spec.RefSpec{RefTypes: kinds}
}

// Catalog builds the full named-spec catalog.
func Catalog() map[string]spec.Spec {
	c := map[string]spec.Spec{}

	// object_type is optional for every field_type. Nothing checks that
	// an EDGE or EDGE_COLLECTION attribute declares one; such an attribute
	// without it resolves to an empty object-type tag.
	c["object_type_attribute"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"field_type":  spec.EnumSpec{Values: fieldTypeValues},
			"object_type": refSpec(spec.RefObjectType),
		},
		Constraints: spec.ObjectConstraints{Optional: []string{"object_type"}},
	}

	c["party"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"id":       spec.ScalarSpec{Kind: spec.KindInteger},
			"name":     spec.ScalarSpec{Kind: spec.KindString},
			"hex_code": spec.ScalarSpec{Kind: spec.KindString, Patterns: []string{hexColorPattern}},
		},
		Constraints: spec.ObjectConstraints{Optional: []string{"hex_code"}},
		RefConfig:   &spec.RefConfig{Collection: "parties", IDField: "id", AliasField: "name"},
	}

	c["object_type"] = spec.ObjectSpec{
		Keys:   spec.ScalarSpec{Kind: spec.KindString},
		Values: spec.SpecByName{ObjSpecName: "object_type_attribute"},
	}

	c["object_promise"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"id":          spec.ScalarSpec{Kind: spec.KindInteger},
			"name":        spec.ScalarSpec{Kind: spec.KindString},
			"object_type": refSpec(spec.RefObjectType),
			"context":     refSpec(spec.RefThreadGroup),
		},
		Constraints: spec.ObjectConstraints{Optional: []string{"context"}},
		RefConfig:   &spec.RefConfig{Collection: "object_promises", IDField: "id", AliasField: "name"},
	}

	c["action_operation"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"include":            spec.ArraySpec{Values: spec.ScalarSpec{Kind: spec.KindString}},
			"exclude":            spec.ArraySpec{Values: spec.ScalarSpec{Kind: spec.KindString}},
			"default_values":     spec.ObjectSpec{Keys: spec.ScalarSpec{Kind: spec.KindString}, Values: spec.ScalarSpec{Kind: spec.KindScalar, Nullable: true}},
			"default_edges":      spec.ObjectSpec{Keys: spec.ScalarSpec{Kind: spec.KindString}, Values: refSpec(spec.RefObjectPromise)},
			"appends_objects_to": refSpec(spec.RefObjectPromise),
		},
		Constraints: spec.ObjectConstraints{
			Optional:          []string{"include", "exclude", "default_values", "default_edges", "appends_objects_to"},
			MutuallyExclusive: [][]string{{"include", "exclude"}},
		},
	}

	c["action"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"id":             spec.ScalarSpec{Kind: spec.KindInteger},
			"object_promise": refSpec(spec.RefObjectPromise),
			"party":          refSpec(spec.RefParty),
			"operation":      spec.SpecByName{ObjSpecName: "action_operation"},
			"depends_on":     refSpec(spec.RefCheckpoint),
			"context":        refSpec(spec.RefThreadGroup),
			"milestones":     spec.ArraySpec{Values: spec.EnumSpec{Values: milestoneValues}, Constraints: spec.ArrayConstraints{Distinct: true}},
		},
		Constraints: spec.ObjectConstraints{Optional: []string{"depends_on", "context", "milestones"}},
		RefConfig:   &spec.RefConfig{Collection: "actions", IDField: "id"},
	}

	c["comparison"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"left":     operandSpec,
			"right":    operandSpec,
			"operator": spec.EnumSpec{Values: operatorValues},
		},
	}

	c["checkpoint_reference"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"checkpoint": refSpec(spec.RefCheckpoint),
		},
	}

	c["checkpoint_dependency"] = spec.AnyOfSpecs{AnyOfSpecNames: []string{"comparison", "checkpoint_reference"}}

	c["checkpoint"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"id":           spec.ScalarSpec{Kind: spec.KindInteger},
			"alias":        spec.ScalarSpec{Kind: spec.KindString},
			"gate_type":    spec.EnumSpec{Values: gateTypeValues},
			"dependencies": spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "checkpoint_dependency"}, Constraints: spec.ArrayConstraints{MinLength: 1}},
			"context":      refSpec(spec.RefThreadGroup),
		},
		Constraints: spec.ObjectConstraints{Optional: []string{"alias", "gate_type", "context"}},
		RefConfig:   &spec.RefConfig{Collection: "checkpoints", IDField: "id", AliasField: "alias"},
	}

	c["spawn"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"foreach": operandSpec,
			"as":      spec.ScalarSpec{Kind: spec.KindString},
		},
	}

	c["thread_group"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"id":         spec.ScalarSpec{Kind: spec.KindInteger},
			"alias":      spec.ScalarSpec{Kind: spec.KindString},
			"context":    refSpec(spec.RefThreadGroup),
			"depends_on": refSpec(spec.RefCheckpoint),
			"spawn":      spec.SpecByName{ObjSpecName: "spawn"},
		},
		Constraints: spec.ObjectConstraints{Optional: []string{"alias", "context", "depends_on"}},
		RefConfig:   &spec.RefConfig{Collection: "thread_groups", IDField: "id", AliasField: "alias"},
	}

	c["pipeline_variable"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"name":    spec.ScalarSpec{Kind: spec.KindString},
			"type":    spec.EnumSpec{Values: fieldTypeValues},
			"initial": spec.ScalarSpec{Kind: spec.KindScalar, Nullable: true},
		},
		Constraints: spec.ObjectConstraints{Optional: []string{"initial"}},
	}

	c["pipeline_traverse"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"foreach": spec.SpecByName{ObjSpecName: "spawn"},
		},
	}

	c["pipeline_apply"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"from":      operandSpec,
			"to":        spec.ScalarSpec{Kind: spec.KindString},
			"method":    spec.EnumSpec{Values: applyMethodValues},
			"aggregate": spec.ObjectSpec{Properties: map[string]spec.Spec{"field": spec.ScalarSpec{Kind: spec.KindString}, "operator": spec.EnumSpec{Values: aggregateOperatorValues}}},
			"filter":    spec.ObjectSpec{Properties: map[string]spec.Spec{"where": spec.SpecByName{ObjSpecName: "comparison"}}},
			"sort":      spec.ObjectSpec{Properties: map[string]spec.Spec{"by": spec.ScalarSpec{Kind: spec.KindString}, "descending": spec.ScalarSpec{Kind: spec.KindBoolean}}, Constraints: spec.ObjectConstraints{Optional: []string{"descending"}}},
			"select":    spec.ScalarSpec{Kind: spec.KindString},
		},
		Constraints: spec.ObjectConstraints{
			Optional:          []string{"aggregate", "filter", "sort", "select"},
			MutuallyExclusive: [][]string{{"aggregate", "filter", "sort", "select"}},
		},
		PropertyValidationPriority: []string{"from", "to", "method"},
	}

	c["pipeline_output"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"from": spec.ScalarSpec{Kind: spec.KindString},
			"to":   spec.ScalarSpec{Kind: spec.KindString},
		},
	}

	c["pipeline"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"object_promise": refSpec(spec.RefObjectPromise),
			"variables":      spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "pipeline_variable"}},
			"traverse":       spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "pipeline_traverse"}},
			"apply":          spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "pipeline_apply"}},
			"output":         spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "pipeline_output"}},
		},
		Constraints: spec.ObjectConstraints{Optional: []string{"variables", "traverse", "apply", "output"}},
	}

	c["root"] = spec.ObjectSpec{
		Properties: map[string]spec.Spec{
			"standard":        spec.ScalarSpec{Kind: spec.KindString},
			"parties":         spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "party"}, Constraints: spec.ArrayConstraints{Unique: []string{"id"}, UniqueIfNotNull: []string{"name"}}},
			"object_types":    spec.SpecByName{ObjSpecName: "object_type"},
			"object_promises": spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "object_promise"}, Constraints: spec.ArrayConstraints{Unique: []string{"id"}, UniqueIfNotNull: []string{"name"}}},
			"actions":         spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "action"}, Constraints: spec.ArrayConstraints{Unique: []string{"id"}}},
			"checkpoints":     spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "checkpoint"}, Constraints: spec.ArrayConstraints{Unique: []string{"id"}, UniqueIfNotNull: []string{"alias"}}},
			"thread_groups":   spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "thread_group"}, Constraints: spec.ArrayConstraints{Unique: []string{"id"}, UniqueIfNotNull: []string{"alias"}}},
			"pipelines":       spec.ArraySpec{Values: spec.SpecByName{ObjSpecName: "pipeline"}},
		},
		Constraints: spec.ObjectConstraints{Optional: []string{"checkpoints", "thread_groups", "pipelines"}},
	}

	return c
}
