package spec

import (
	"testing"

	"github.com/flowspec/flowvalidate/internal/pathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRootPath() *pathutil.PathBuilder {
	p := pathutil.Get()
	p.Push("root")
	return p
}

func TestWalkScalar(t *testing.T) {
	t.Run("matching string", func(t *testing.T) {
		ctx := NewContext(nil, nil)
		ctx.Walk(ScalarSpec{Kind: KindString}, "hello", newRootPath())
		assert.Empty(t, ctx.Issues)
	})

	t.Run("wrong kind", func(t *testing.T) {
		ctx := NewContext(nil, nil)
		ctx.Walk(ScalarSpec{Kind: KindString}, 5.0, newRootPath())
		require.Len(t, ctx.Issues, 1)
		assert.Contains(t, ctx.Issues[0].Message, "expected string")
	})

	t.Run("null rejected unless nullable", func(t *testing.T) {
		ctx := NewContext(nil, nil)
		ctx.Walk(ScalarSpec{Kind: KindString}, nil, newRootPath())
		require.Len(t, ctx.Issues, 1)

		ctx2 := NewContext(nil, nil)
		ctx2.Walk(ScalarSpec{Kind: KindString, Nullable: true}, nil, newRootPath())
		assert.Empty(t, ctx2.Issues)
	})

	t.Run("pattern mismatch", func(t *testing.T) {
		ctx := NewContext(nil, nil)
		ctx.Walk(ScalarSpec{Kind: KindString, Patterns: []string{`^#[0-9a-f]{6}$`}}, "not-a-color", newRootPath())
		require.Len(t, ctx.Issues, 1)
	})
}

func TestWalkEnum(t *testing.T) {
	ctx := NewContext(nil, nil)
	ctx.Walk(EnumSpec{Values: []any{"AND", "OR"}}, "XOR", newRootPath())
	require.Len(t, ctx.Issues, 1)

	ctx2 := NewContext(nil, nil)
	ctx2.Walk(EnumSpec{Values: []any{"AND", "OR"}}, "AND", newRootPath())
	assert.Empty(t, ctx2.Issues)
}

func TestWalkArray(t *testing.T) {
	s := ArraySpec{Values: ScalarSpec{Kind: KindString}, Constraints: ArrayConstraints{MinLength: 2}}

	ctx := NewContext(nil, nil)
	ctx.Walk(s, []any{"a"}, newRootPath())
	require.Len(t, ctx.Issues, 1)
	assert.Contains(t, ctx.Issues[0].Message, "at least 2")

	ctx2 := NewContext(nil, nil)
	ctx2.Walk(s, []any{"a", 5.0}, newRootPath())
	require.Len(t, ctx2.Issues, 1)
	assert.Contains(t, ctx2.Issues[0].Message, "expected string")
}

func TestWalkObjectRequiredAndOptional(t *testing.T) {
	s := ObjectSpec{
		Properties: map[string]Spec{
			"id":   ScalarSpec{Kind: KindInteger},
			"name": ScalarSpec{Kind: KindString},
		},
		Constraints: ObjectConstraints{Optional: []string{"name"}},
	}

	ctx := NewContext(nil, nil)
	ctx.Walk(s, map[string]any{}, newRootPath())
	require.Len(t, ctx.Issues, 1)
	assert.Contains(t, ctx.Issues[0].Message, "missing required property: id")
}

func TestWalkObjectForbidden(t *testing.T) {
	s := ObjectSpec{
		Properties: map[string]Spec{
			"id": ScalarSpec{Kind: KindInteger},
		},
		Constraints: ObjectConstraints{
			ForbiddenProperties: []string{"secret"},
			ForbiddenReason:     "secret is not allowed here",
		},
	}

	ctx := NewContext(nil, nil)
	ctx.Walk(s, map[string]any{"id": 1.0, "secret": "x"}, newRootPath())
	require.Len(t, ctx.Issues, 1)
	assert.Equal(t, "secret is not allowed here", ctx.Issues[0].Message)
}

func TestWalkObjectMutuallyExclusive(t *testing.T) {
	s := ObjectSpec{
		Properties: map[string]Spec{
			"include": ArraySpec{Values: ScalarSpec{Kind: KindString}},
			"exclude": ArraySpec{Values: ScalarSpec{Kind: KindString}},
		},
		Constraints: ObjectConstraints{
			Optional:          []string{"include", "exclude"},
			MutuallyExclusive: [][]string{{"include", "exclude"}},
		},
	}

	t.Run("neither present", func(t *testing.T) {
		ctx := NewContext(nil, nil)
		ctx.Walk(s, map[string]any{}, newRootPath())
		require.Len(t, ctx.Issues, 1)
		assert.Contains(t, ctx.Issues[0].Message, "exactly one of")
	})

	t.Run("both present", func(t *testing.T) {
		ctx := NewContext(nil, nil)
		ctx.Walk(s, map[string]any{"include": []any{"a"}, "exclude": []any{"b"}}, newRootPath())
		require.Len(t, ctx.Issues, 1)
		assert.Contains(t, ctx.Issues[0].Message, "only one of")
	})

	t.Run("exactly one present", func(t *testing.T) {
		ctx := NewContext(nil, nil)
		ctx.Walk(s, map[string]any{"include": []any{"a"}}, newRootPath())
		assert.Empty(t, ctx.Issues)
	})
}

func TestWalkObjectConditional(t *testing.T) {
	s := ObjectSpec{
		Properties: map[string]Spec{
			"operation": ScalarSpec{Kind: KindString},
		},
		If: []Conditional{
			{
				Triggers: []Trigger{{Path: "operation", Operator: OpEquals, Value: "CREATE"}},
				Override: Override{
					AddProperties: map[string]Spec{
						"default_values": ObjectSpec{Keys: ScalarSpec{Kind: KindString}, Values: ScalarSpec{Kind: KindAny}},
					},
				},
			},
		},
	}

	ctx := NewContext(nil, nil)
	ctx.Walk(s, map[string]any{"operation": "CREATE"}, newRootPath())
	require.Len(t, ctx.Issues, 1)
	assert.Contains(t, ctx.Issues[0].Message, "missing required property: default_values")

	ctx2 := NewContext(nil, nil)
	ctx2.Walk(s, map[string]any{"operation": "EDIT"}, newRootPath())
	assert.Empty(t, ctx2.Issues)
}

func TestWalkMultiType(t *testing.T) {
	s := MultiTypeSpec{Types: []Spec{ScalarSpec{Kind: KindString}, ScalarSpec{Kind: KindBoolean}}}

	ctx := NewContext(nil, nil)
	ctx.Walk(s, true, newRootPath())
	assert.Empty(t, ctx.Issues)

	ctx2 := NewContext(nil, nil)
	ctx2.Walk(s, 5.0, newRootPath())
	require.Len(t, ctx2.Issues, 1)
}

func TestWalkSpecByName(t *testing.T) {
	catalog := map[string]Spec{
		"party": ObjectSpec{Properties: map[string]Spec{"id": ScalarSpec{Kind: KindInteger}}},
	}
	ctx := NewContext(catalog, nil)
	ctx.Walk(SpecByName{ObjSpecName: "party"}, map[string]any{}, newRootPath())
	require.Len(t, ctx.Issues, 1)
}

func TestWalkAnyOfSpecs(t *testing.T) {
	catalog := map[string]Spec{
		"a": ScalarSpec{Kind: KindString},
		"b": ScalarSpec{Kind: KindBoolean},
	}
	ctx := NewContext(catalog, nil)
	ctx.Walk(AnyOfSpecs{AnyOfSpecNames: []string{"a", "b"}}, true, newRootPath())
	assert.Empty(t, ctx.Issues)

	ctx2 := NewContext(catalog, nil)
	ctx2.Walk(AnyOfSpecs{AnyOfSpecNames: []string{"a", "b"}}, 5.0, newRootPath())
	require.Len(t, ctx2.Issues, 1)
}

type fakeResolver struct {
	resolveErr error
	equalsOK   bool
	equalsErr  error
}

func (f fakeResolver) Resolve(string, []RefType) error { return f.resolveErr }
func (f fakeResolver) EqualsPath(string, string) (bool, error) {
	return f.equalsOK, f.equalsErr
}

func TestWalkRef(t *testing.T) {
	ctx := NewContext(nil, fakeResolver{})
	ctx.Walk(RefSpec{RefTypes: []RefType{RefAction}}, "action:0", newRootPath())
	assert.Empty(t, ctx.Issues)
}

func TestWalkRefUnresolved(t *testing.T) {
	ctx := NewContext(nil, fakeResolver{resolveErr: assertErr{"not found"}})
	ctx.Walk(RefSpec{RefTypes: []RefType{RefAction}}, "action:99", newRootPath())
	require.Len(t, ctx.Issues, 1)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
