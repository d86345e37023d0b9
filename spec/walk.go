package spec

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/flowspec/flowvalidate/internal/pathutil"
	"github.com/flowspec/flowvalidate/internal/refpath"
)

// Walk validates value against s, appending diagnostics to ctx.Issues.
// It never returns an error — every failure is a recorded issue, so one
// malformed node doesn't stop the rest of the document from being checked.
func (c *Context) Walk(s Spec, value any, path *pathutil.PathBuilder) {
	if !c.enterDepth(path.String()) {
		return
	}
	defer c.leaveDepth()

	switch node := s.(type) {
	case ScalarSpec:
		c.walkScalar(node, value, path)
	case EnumSpec:
		c.walkEnum(node, value, path)
	case ArraySpec:
		c.walkArray(node, value, path)
	case ObjectSpec:
		c.walkObject(node, value, path)
	case RefSpec:
		c.walkRef(node, value, path)
	case MultiTypeSpec:
		c.walkMultiType(node, value, path)
	case SpecByName:
		c.walkSpecByName(node, value, path)
	case AnyOfSpecs:
		c.walkAnyOfSpecs(node, value, path)
	default:
		c.AddError(path.String(), "internal error: unknown spec kind %T", s)
	}
}

func (c *Context) walkScalar(s ScalarSpec, value any, path *pathutil.PathBuilder) {
	if value == nil {
		if s.Nullable {
			return
		}
		c.AddError(path.String(), "expected %s, got null", s.Kind)
		return
	}

	if !scalarKindMatches(s.Kind, value) {
		c.AddError(path.String(), "expected %s, got %s", s.Kind, describeKind(value))
		return
	}

	if s.ExpectedValue != nil && !reflect.DeepEqual(s.ExpectedValue, value) {
		c.AddError(path.String(), "expected value %v, got %v", s.ExpectedValue, value)
		return
	}

	if len(s.Patterns) > 0 {
		text, ok := value.(string)
		if !ok {
			c.AddError(path.String(), "pattern constraints require a string value")
			return
		}
		matched := false
		for _, pat := range s.Patterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				continue
			}
			if re.MatchString(text) {
				matched = true
				break
			}
		}
		if !matched {
			c.AddError(path.String(), "value %q does not match any allowed pattern", text)
		}
	}
}

func scalarKindMatches(kind ScalarKind, value any) bool {
	switch kind {
	case KindAny:
		return true
	case KindString:
		_, ok := value.(string)
		return ok
	case KindBoolean:
		_, ok := value.(bool)
		return ok
	case KindInteger:
		return isNumeric(value) && isWholeNumber(value)
	case KindDecimal:
		return isNumeric(value)
	case KindScalar:
		switch value.(type) {
		case string, bool:
			return true
		default:
			return isNumeric(value)
		}
	default:
		return false
	}
}

func isNumeric(value any) bool {
	switch value.(type) {
	case float64, float32, int, int64, int32:
		return true
	default:
		return false
	}
}

func isWholeNumber(value any) bool {
	switch v := value.(type) {
	case float64:
		return v == float64(int64(v))
	case float32:
		return v == float32(int64(v))
	default:
		return true
	}
}

func describeKind(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func (c *Context) walkEnum(s EnumSpec, value any, path *pathutil.PathBuilder) {
	for _, allowed := range s.Values {
		if reflect.DeepEqual(allowed, value) {
			return
		}
	}
	c.AddError(path.String(), "value %v is not one of the allowed values", value)
}

func (c *Context) walkArray(s ArraySpec, value any, path *pathutil.PathBuilder) {
	list, ok := value.([]any)
	if !ok {
		c.AddError(path.String(), "expected list, got %s", describeKind(value))
		return
	}

	if s.Constraints.MinLength > 0 && len(list) < s.Constraints.MinLength {
		c.AddError(path.String(), "expected at least %d items, got %d", s.Constraints.MinLength, len(list))
	}

	for i, item := range list {
		path.PushIndex(i)
		c.Walk(s.Values, item, path)
		path.Pop()
	}

	checkArrayUniqueness(c, s.Constraints, list, path)
}

func checkArrayUniqueness(c *Context, cons ArrayConstraints, list []any, path *pathutil.PathBuilder) {
	if cons.Distinct {
		seen := make(map[string]bool, len(list))
		for i, item := range list {
			key := fmt.Sprintf("%v", item)
			if seen[key] {
				c.AddError(path.String(), "item at index %d is not distinct", i)
				continue
			}
			seen[key] = true
		}
	}
	for _, field := range cons.Unique {
		checkFieldUnique(c, list, []string{field}, false, path)
	}
	for _, composite := range cons.UniqueComposites {
		checkFieldUnique(c, list, composite, false, path)
	}
	for _, field := range cons.UniqueIfNotNull {
		checkFieldUnique(c, list, []string{field}, true, path)
	}
}

func checkFieldUnique(c *Context, list []any, fields []string, skipNull bool, path *pathutil.PathBuilder) {
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key := ""
		allNull := true
		for _, f := range fields {
			v := obj[f]
			if v != nil {
				allNull = false
			}
			key += fmt.Sprintf("|%v", v)
		}
		if skipNull && allNull {
			continue
		}
		if seen[key] {
			c.AddError(path.String(), "item at index %d duplicates %v on %v", i, fields, key)
			continue
		}
		seen[key] = true
	}
}

// lookupRelative resolves a dotted path relative to value, using
// refpath's Name/Index segments over the generic decoded tree.
func lookupRelative(value any, dotted string) (any, bool) {
	p, err := refpath.Parse(dotted)
	if err != nil {
		return nil, false
	}
	cur := value
	for _, seg := range p.Segments() {
		switch s := seg.(type) {
		case refpath.Name:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := m[string(s)]
			if !ok {
				return nil, false
			}
			cur = v
		case refpath.Index:
			l, ok := cur.([]any)
			if !ok || int(s) < 0 || int(s) >= len(l) {
				return nil, false
			}
			cur = l[s]
		}
	}
	return cur, true
}
