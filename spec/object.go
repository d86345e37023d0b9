package spec

import (
	"sort"

	"github.com/flowspec/flowvalidate/internal/pathutil"
)

func (c *Context) walkObject(s ObjectSpec, value any, path *pathutil.PathBuilder) {
	obj, ok := value.(map[string]any)
	if !ok {
		c.AddError(path.String(), "expected object, got %s", describeKind(value))
		return
	}

	effective := resolveConditionals(s, obj)

	effective.Constraints = applyMutuallyExclusive(c, effective.Constraints, obj, path)

	c.checkRequiredProperties(effective, obj, path)

	c.validateProperties(effective, obj, path)

	if effective.Keys != nil || effective.Values != nil {
		c.walkOpenDictionary(effective, obj, path)
	}

	for _, fnName := range effective.Constraints.ValidationFunctions {
		fn, ok := c.ValidationFuncs[fnName]
		if !ok {
			c.AddError(path.String(), "internal error: unknown validation function %q", fnName)
			continue
		}
		c.Issues = append(c.Issues, fn(c, obj, path)...)
	}
}

// resolveConditionals evaluates `if` triggers and a `switch` dispatch
// against obj, merging matched overrides into a copy of s.
func resolveConditionals(s ObjectSpec, obj map[string]any) ObjectSpec {
	effective := s
	effective.Properties = cloneSpecMap(s.Properties)

	for _, cond := range s.If {
		if allTriggersMatch(cond.Triggers, obj) {
			applyOverride(&effective, cond.Override)
		}
	}

	if s.Switch != nil {
		dispatchValue, ok := lookupRelative(obj, s.Switch.Path)
		if ok {
			if key, ok := dispatchValue.(string); ok {
				if override, ok := s.Switch.Cases[key]; ok {
					applyOverride(&effective, override)
				}
			}
		}
	}

	return effective
}

func cloneSpecMap(m map[string]Spec) map[string]Spec {
	out := make(map[string]Spec, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func applyOverride(s *ObjectSpec, o Override) {
	for k, v := range o.AddProperties {
		s.Properties[k] = v
	}
	for k, v := range o.OverrideProperties {
		s.Properties[k] = v
	}
	if o.AddConstraints != nil {
		mergeConstraints(&s.Constraints, *o.AddConstraints)
	}
}

func mergeConstraints(dst *ObjectConstraints, src ObjectConstraints) {
	dst.Optional = append(dst.Optional, src.Optional...)
	dst.ForbiddenProperties = append(dst.ForbiddenProperties, src.ForbiddenProperties...)
	if src.ForbiddenReason != "" {
		dst.ForbiddenReason = src.ForbiddenReason
	}
	dst.MutuallyExclusive = append(dst.MutuallyExclusive, src.MutuallyExclusive...)
	dst.ValidationFunctions = append(dst.ValidationFunctions, src.ValidationFunctions...)
	dst.Unique = append(dst.Unique, src.Unique...)
}

func allTriggersMatch(triggers []Trigger, obj map[string]any) bool {
	for _, t := range triggers {
		if !triggerMatches(t, obj) {
			return false
		}
	}
	return true
}

func triggerMatches(t Trigger, obj map[string]any) bool {
	v, present := lookupRelative(obj, t.Path)
	switch t.Operator {
	case OpContainsKey:
		return present
	case OpEquals:
		return present && valuesEqual(v, t.Value)
	case OpGreaterThan:
		return present && isGreaterThan(v, t.Value)
	default:
		return false
	}
}

func valuesEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func isGreaterThan(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af > bf
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// applyMutuallyExclusive checks each mutually exclusive group, reporting
// an error when no member or more than one member is present. It returns
// cons unchanged: no member is added to the forbidden properties, and
// every present member is still walked against its property spec.
func applyMutuallyExclusive(c *Context, cons ObjectConstraints, obj map[string]any, path *pathutil.PathBuilder) ObjectConstraints {
	for _, group := range cons.MutuallyExclusive {
		present := presentMembers(group, obj)
		if len(present) == 0 {
			c.AddError(path.String(), "exactly one of %v must be specified", group)
		} else if len(present) > 1 {
			c.AddError(path.String(), "only one of %v may be specified, got %v", group, present)
		}
	}
	return cons
}

func presentMembers(names []string, obj map[string]any) []string {
	var present []string
	for _, n := range names {
		if _, ok := obj[n]; ok {
			present = append(present, n)
		}
	}
	return present
}

func (c *Context) checkRequiredProperties(s ObjectSpec, obj map[string]any, path *pathutil.PathBuilder) {
	optional := toSet(s.Constraints.Optional)
	forbidden := toSet(s.Constraints.ForbiddenProperties)

	names := sortedKeys(s.Properties)
	for _, name := range names {
		if optional[name] || forbidden[name] {
			continue
		}
		if _, ok := obj[name]; !ok {
			c.AddError(path.String(), "missing required property: %s", name)
		}
	}

	for name := range obj {
		if forbidden[name] {
			msg := "property is forbidden"
			if s.Constraints.ForbiddenReason != "" {
				msg = s.Constraints.ForbiddenReason
			}
			path.Push(name)
			c.AddError(path.String(), "%s", msg)
			path.Pop()
		}
	}
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func sortedKeys(m map[string]Spec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Context) validateProperties(s ObjectSpec, obj map[string]any, path *pathutil.PathBuilder) {
	order := propertyOrder(s)
	for _, name := range order {
		propSpec, ok := s.Properties[name]
		if !ok {
			continue
		}
		value, present := obj[name]
		if !present {
			continue
		}
		path.Push(name)
		c.Walk(propSpec, value, path)
		path.Pop()
	}
}

// propertyOrder returns property names respecting PropertyValidationPriority
// first, then the remaining properties in deterministic (sorted) order.
func propertyOrder(s ObjectSpec) []string {
	seen := make(map[string]bool, len(s.Properties))
	order := make([]string, 0, len(s.Properties))
	for _, name := range s.PropertyValidationPriority {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	for _, name := range sortedKeys(s.Properties) {
		if !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	return order
}

func (c *Context) walkOpenDictionary(s ObjectSpec, obj map[string]any, path *pathutil.PathBuilder) {
	for _, key := range sortedObjectKeys(obj) {
		if _, isNamed := s.Properties[key]; isNamed {
			continue
		}
		if s.Keys != nil {
			path.Push(key)
			c.Walk(s.Keys, key, path)
			path.Pop()
		}
		if s.Values != nil {
			path.Push(key)
			c.Walk(s.Values, obj[key], path)
			path.Pop()
		}
	}
}

func sortedObjectKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
