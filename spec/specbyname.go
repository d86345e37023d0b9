package spec

import (
	"github.com/flowspec/flowvalidate/internal/pathutil"
)

func (c *Context) walkSpecByName(s SpecByName, value any, path *pathutil.PathBuilder) {
	named, ok := c.Catalog[s.ObjSpecName]
	if !ok {
		c.AddError(path.String(), "internal error: unknown obj spec %q", s.ObjSpecName)
		return
	}

	if s.ObjSpecModifier != nil {
		named = applyModifier(named, *s.ObjSpecModifier)
	}

	c.Walk(named, value, path)
}

// applyModifier patches an ObjectSpec's properties before evaluation with
// the modifiers a spec-by-name lookup carries. Non-object specs are
// returned unmodified.
func applyModifier(s Spec, mod ObjSpecModifier) Spec {
	obj, ok := s.(ObjectSpec)
	if !ok {
		return s
	}
	obj.Properties = cloneSpecMap(obj.Properties)
	for _, name := range mod.RemoveProperties {
		delete(obj.Properties, name)
	}
	for name, propSpec := range mod.AddProperties {
		obj.Properties[name] = propSpec
	}
	for name, propSpec := range mod.OverrideProperties {
		obj.Properties[name] = propSpec
	}
	return obj
}

func (c *Context) walkAnyOfSpecs(s AnyOfSpecs, value any, path *pathutil.PathBuilder) {
	var candidates []Spec
	for _, name := range s.AnyOfSpecNames {
		if named, ok := c.Catalog[name]; ok {
			candidates = append(candidates, named)
		}
	}
	if tryAny(c, candidates, value, path) {
		return
	}
	c.AddError(path.String(), "value does not match any of: %v", s.AnyOfSpecNames)
}
