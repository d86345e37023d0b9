// Package pipeline validates the aggregation pipeline attached to an
// object promise: its declared variables, nested traverse loops, the
// apply steps that mutate those variables, and the output step that
// feeds a computed value back into the object being created. It tracks,
// per pipeline, which variables were declared, which were assigned
// before use, and which were never read; flow-types every apply/output
// operand against the declared field-type algebra; and enforces loop
// -variable immutability and traversal-scope write rejection. It also
// rejects any checkpoint dependency that reaches back into a field one of
// these pipelines populates, since that value doesn't exist yet at
// dependency-evaluation time.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flowspec/flowvalidate/graph"
	"github.com/flowspec/flowvalidate/internal/issues"
	"github.com/flowspec/flowvalidate/internal/refpath"
	"github.com/flowspec/flowvalidate/internal/severity"
	"github.com/flowspec/flowvalidate/refparser"
	"github.com/flowspec/flowvalidate/typedetails"
)

// variable tracks one declared pipeline variable's lifecycle within a
// single validation pass.
type variable struct {
	typeDetails typedetails.TypeDetails
	assigned    bool // has an apply step (or a non-null initial value) set it
	nullInitial bool // declared null/without an initial: first write must use SET
	referenced  bool
	isLoop      bool // bound by a traverse[i].foreach.as, never itself assignable

	declaredAt      string   // scope path this variable was declared in
	traversalScopes []string // child scope paths this variable was used as a traverse[i].foreach source for
}

// writableFrom reports whether an apply step running in scope path p may
// assign to this variable: it must not be inside (or nested under) any
// scope this variable was itself used to traverse.
func (v *variable) writableFrom(p string) bool {
	for _, sp := range v.traversalScopes {
		if p == sp || strings.HasPrefix(p, sp+".") {
			return false
		}
	}
	return true
}

// scope is one level of the traverse nesting: its own variables plus a
// pointer to the enclosing scope for lookups that fall through.
type scope struct {
	path   string
	vars   map[string]*variable
	parent *scope
}

func newScope(parent *scope, path string) *scope {
	return &scope{path: path, vars: map[string]*variable{}, parent: parent}
}

func (s *scope) declare(name string, v *variable) {
	v.declaredAt = s.path
	s.vars[name] = v
}

func (s *scope) lookup(name string) (*variable, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Validate checks every pipeline attached to an object promise.
func Validate(g *graph.Graph) []issues.Issue {
	var out []issues.Issue
	ids := append([]int{}, g.ObjectPromiseIDs()...)
	sort.Ints(ids)
	for _, id := range ids {
		pl, ok := g.PipelineFor(id)
		if !ok {
			continue
		}
		out = append(out, validatePipeline(g, id, pl)...)
	}
	out = append(out, validateAggregatedFieldDependencies(g, AggregatedFields(g))...)
	return out
}

// AggregatedFields returns, for every object promise with a pipeline, the
// set of object-type field names that pipeline's output step populates.
func AggregatedFields(g *graph.Graph) map[int]map[string]bool {
	out := map[int]map[string]bool{}
	for _, id := range g.ObjectPromiseIDs() {
		pl, ok := g.PipelineFor(id)
		if !ok {
			continue
		}
		outputs, ok := pl["output"].([]any)
		if !ok {
			continue
		}
		for _, raw := range outputs {
			o, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			to, _ := o["to"].(string)
			if to == "" {
				continue
			}
			if out[id] == nil {
				out[id] = map[string]bool{}
			}
			out[id][to] = true
		}
	}
	return out
}

// validateAggregatedFieldDependencies rejects any checkpoint Comparison
// operand that references a pipeline-populated (aggregated) field on an
// object promise: that field has no value until the promise's pipeline
// runs, which happens after the promise is fulfilled, so nothing gating
// an action's dependencies can observe it at dependency-evaluation time.
func validateAggregatedFieldDependencies(g *graph.Graph, aggregated map[int]map[string]bool) []issues.Issue {
	if len(aggregated) == 0 {
		return nil
	}
	var out []issues.Issue
	ids := append([]int{}, g.CheckpointIDs()...)
	sort.Ints(ids)
	for _, id := range ids {
		cp, _ := g.Checkpoint(id)
		deps, _ := cp["dependencies"].([]any)
		for i, raw := range deps {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			stepPath := fmt.Sprintf("root.checkpoints[checkpoint:%d].dependencies[%d]", id, i)
			checkAggregatedOperand(g, aggregated, m["left"], stepPath, "left", &out)
			checkAggregatedOperand(g, aggregated, m["right"], stepPath, "right", &out)
		}
	}
	return out
}

// checkAggregatedOperand reports when raw is a global object_promise ref
// whose path resolves into a field that promise's pipeline populates via
// output.
func checkAggregatedOperand(g *graph.Graph, aggregated map[int]map[string]bool, raw any, stepPath, side string, out *[]issues.Issue) {
	s, ok := raw.(string)
	if !ok || s == "" {
		return
	}
	r, err := refparser.Parse(s)
	if err != nil || !r.IsGlobal() || r.Kind != refparser.KindObjectPromise || r.Path == nil || r.Path.Empty() {
		return
	}
	promiseID, ok := resolvePromiseRef(g, r)
	if !ok {
		return
	}
	fields, ok := aggregated[promiseID]
	if !ok {
		return
	}
	name, ok := r.Path.Segments()[0].(refpath.Name)
	if !ok {
		return
	}
	if fields[string(name)] {
		*out = append(*out, issues.Issue{
			Path:     stepPath,
			Message:  fmt.Sprintf("%s operand %q cannot depend on aggregated field %q", side, s, string(name)),
			Severity: severity.SeverityError,
		})
	}
}

func validatePipeline(g *graph.Graph, promiseID int, pl map[string]any) []issues.Issue {
	root := newScope(nil, "0")
	var out []issues.Issue

	path := fmt.Sprintf("root.pipelines[object_promise:%d]", promiseID)

	promise, _ := g.ObjectPromise(promiseID)
	ownTag := graph.PromiseObjectTypeTag(promise)
	attrs := g.AttributesFor(ownTag)
	_, typeKnown := g.ObjectType(ownTag)

	if vars, ok := pl["variables"].([]any); ok {
		for _, raw := range vars {
			v, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name, _ := v["name"].(string)
			if name == "" {
				continue
			}
			fieldType, _ := v["type"].(string)
			initial, hasInitial := v["initial"]
			nullInitial := !hasInitial || initial == nil
			root.declare(name, &variable{
				typeDetails: typedetails.FromFieldTypeName(fieldType),
				assigned:    !nullInitial,
				nullInitial: nullInitial,
			})
		}
	}

	cur := root
	if traversals, ok := pl["traverse"].([]any); ok {
		for i, raw := range traversals {
			t, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			foreach, ok := t["foreach"].(map[string]any)
			if !ok {
				continue
			}
			childPath := fmt.Sprintf("%s.%d", cur.path, i)
			stepPath := fmt.Sprintf("%s.traverse[%d]", path, i)

			var itemType typedetails.TypeDetails
			if src, ok := foreach["foreach"].(string); ok {
				markUse(cur, src, &out, stepPath)
				sourceType, resolved := resolveOperand(g, cur, src)
				if resolved {
					switch {
					case !sourceType.IsList:
						out = append(out, issues.Issue{
							Path:     stepPath,
							Message:  "foreach must resolve to a list-typed value",
							Severity: severity.SeverityError,
						})
					default:
						itemType = sourceType.Delistified()
					}
				}
				if srcName := refName(src); srcName != "" {
					if srcVar, ok := cur.lookup(srcName); ok {
						srcVar.traversalScopes = append(srcVar.traversalScopes, childPath)
					}
				}
			}

			child := newScope(cur, childPath)
			if as, ok := foreach["as"].(string); ok && as != "" {
				child.declare(as, &variable{typeDetails: itemType, assigned: true, isLoop: true})
			}
			cur = child
		}
	}

	if applies, ok := pl["apply"].([]any); ok {
		for i, raw := range applies {
			a, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			stepPath := fmt.Sprintf("%s.apply[%d]", path, i)
			out = append(out, validateApply(g, cur, a, stepPath)...)
		}
	}

	if outputs, ok := pl["output"].([]any); ok {
		for i, raw := range outputs {
			o, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			stepPath := fmt.Sprintf("%s.output[%d]", path, i)
			out = append(out, validateOutput(root, attrs, typeKnown, o, stepPath)...)
		}
	}

	out = append(out, unusedVariableWarnings(root, path)...)
	return out
}

func validateApply(g *graph.Graph, cur *scope, a map[string]any, stepPath string) []issues.Issue {
	var out []issues.Issue

	from, _ := a["from"].(string)
	if from != "" {
		markUse(cur, from, &out, stepPath)
	}
	to, _ := a["to"].(string)
	if to == "" {
		return out
	}
	method, _ := a["method"].(string)

	v, ok := cur.lookup(to)
	if !ok {
		out = append(out, issues.Issue{
			Path:     stepPath,
			Message:  fmt.Sprintf("apply assigns to %q, which is not a declared pipeline variable in scope", to),
			Severity: severity.SeverityError,
		})
		return out
	}
	if v.isLoop {
		out = append(out, issues.Issue{
			Path:     stepPath,
			Message:  fmt.Sprintf("cannot assign to loop variable \"$%s\"", to),
			Severity: severity.SeverityError,
		})
		return out
	}
	if !v.writableFrom(cur.path) {
		out = append(out, issues.Issue{
			Path:     stepPath,
			Message:  fmt.Sprintf("cannot apply to variable \"$%s\" within a scope that traverses it", to),
			Severity: severity.SeverityError,
		})
		return out
	}
	firstAssignment := v.nullInitial && !v.assigned
	if method != "" && method != "SET" && firstAssignment {
		out = append(out, issues.Issue{
			Path:     stepPath,
			Message:  fmt.Sprintf("variable \"$%s\" is used before it is assigned a value", to),
			Severity: severity.SeverityWarning,
		})
	}

	rightType, rightOK := computeRightType(g, cur, a, &out, stepPath)
	if rightOK && method != "" {
		if !methodCompatible(v.typeDetails, rightType, method, firstAssignment) {
			out = append(out, issues.Issue{
				Path:     stepPath,
				Message:  fmt.Sprintf("method %q is not valid between %s and %s", method, v.typeDetails, rightType),
				Severity: severity.SeverityError,
			})
		}
	}

	v.assigned = true
	return out
}

// computeRightType resolves the effective right-hand type an apply step
// produces, accounting for the aggregate/filter/sort/select modifier.
func computeRightType(g *graph.Graph, cur *scope, a map[string]any, out *[]issues.Issue, stepPath string) (typedetails.TypeDetails, bool) {
	fromRaw, _ := a["from"].(string)
	baseType, ok := resolveOperand(g, cur, fromRaw)
	if !ok {
		return typedetails.TypeDetails{}, false
	}

	if agg, ok := a["aggregate"].(map[string]any); ok {
		if !baseType.IsList {
			*out = append(*out, issues.Issue{Path: stepPath, Message: "aggregate requires a list-typed from value", Severity: severity.SeverityError})
			return typedetails.TypeDetails{}, false
		}
		itemType := baseType.Delistified()
		operator, _ := agg["operator"].(string)
		if !aggregateOperatorAllowed(itemType.ItemType, operator) {
			*out = append(*out, issues.Issue{Path: stepPath, Message: fmt.Sprintf("aggregate operator %q is not valid for %s items", operator, itemType), Severity: severity.SeverityError})
			return typedetails.TypeDetails{}, false
		}
		switch operator {
		case "FIRST", "LAST":
			return itemType, true
		case "COUNT":
			return typedetails.TypeDetails{ItemType: typedetails.Numeric}, true
		case "AND", "OR":
			return typedetails.TypeDetails{ItemType: typedetails.Boolean}, true
		default: // SUM, AVG, MIN, MAX
			return typedetails.TypeDetails{ItemType: typedetails.Numeric}, true
		}
	}

	if filter, ok := a["filter"].(map[string]any); ok {
		if !baseType.IsList {
			*out = append(*out, issues.Issue{Path: stepPath, Message: "filter requires a list-typed from value", Severity: severity.SeverityError})
			return typedetails.TypeDetails{}, false
		}
		if where, ok := filter["where"].(map[string]any); ok {
			validateFilterWhere(g, cur, baseType.Delistified(), where, stepPath, out)
		}
		return baseType, true
	}

	if _, ok := a["sort"].(map[string]any); ok {
		if !baseType.IsList {
			*out = append(*out, issues.Issue{Path: stepPath, Message: "sort requires a list-typed from value", Severity: severity.SeverityError})
			return typedetails.TypeDetails{}, false
		}
		return baseType, true
	}

	if selectField, ok := a["select"].(string); ok && selectField != "" {
		itemType := baseType
		if baseType.IsList {
			itemType = baseType.Delistified()
		}
		if itemType.ItemType != typedetails.Object && itemType.ItemType != typedetails.Edge {
			*out = append(*out, issues.Issue{Path: stepPath, Message: "select requires an object or object-list from value", Severity: severity.SeverityError})
			return typedetails.TypeDetails{}, false
		}
		attrs := g.AttributesFor(itemType.ItemTag)
		attr, ok := attrs[selectField]
		if !ok {
			*out = append(*out, issues.Issue{Path: stepPath, Message: fmt.Sprintf("select names %q, which is not an attribute of %s", selectField, itemType.ItemTag), Severity: severity.SeverityError})
			return typedetails.TypeDetails{}, false
		}
		fieldType, _ := attr["field_type"].(string)
		result := typedetails.FromFieldTypeName(fieldType)
		if baseType.IsList && result.IsList {
			*out = append(*out, issues.Issue{Path: stepPath, Message: "nested list types are not supported", Severity: severity.SeverityError})
			return typedetails.TypeDetails{}, false
		}
		if baseType.IsList {
			result.IsList = true
		}
		return result, true
	}

	return baseType, true
}

func aggregateOperatorAllowed(item typedetails.ItemType, operator string) bool {
	switch item {
	case typedetails.Numeric:
		switch operator {
		case "SUM", "AVG", "MIN", "MAX", "FIRST", "LAST", "COUNT":
			return true
		}
	case typedetails.String:
		switch operator {
		case "FIRST", "LAST", "COUNT":
			return true
		}
	case typedetails.Boolean:
		switch operator {
		case "AND", "OR", "COUNT":
			return true
		}
	case typedetails.Object, typedetails.Edge:
		switch operator {
		case "FIRST", "LAST", "COUNT":
			return true
		}
	}
	return false
}

func validateFilterWhere(g *graph.Graph, cur *scope, itemType typedetails.TypeDetails, where map[string]any, stepPath string, out *[]issues.Issue) {
	left, _ := where["left"]
	right, _ := where["right"]
	op, _ := where["operator"].(string)

	leftIsItem := operandIsFilterItem(left)
	rightIsItem := operandIsFilterItem(right)
	if !leftIsItem && !rightIsItem {
		*out = append(*out, issues.Issue{
			Path:     stepPath,
			Message:  "filter.where must have exactly one operand referencing $_item",
			Severity: severity.SeverityError,
		})
		return
	}

	leftType, leftOK := resolveFilterOperand(g, cur, left, itemType)
	rightType, rightOK := resolveFilterOperand(g, cur, right, itemType)
	if !leftOK || !rightOK || op == "" {
		return
	}
	if !typedetails.Comparable(leftType, rightType, typedetails.Operator(op)) {
		*out = append(*out, issues.Issue{
			Path:     stepPath,
			Message:  fmt.Sprintf("operator %q is not valid between %s and %s", op, leftType, rightType),
			Severity: severity.SeverityError,
		})
	}
}

func operandIsFilterItem(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	r, err := refparser.Parse(s)
	return err == nil && r.Form == refparser.FormFilterItem
}

func resolveFilterOperand(g *graph.Graph, cur *scope, v any, itemType typedetails.TypeDetails) (typedetails.TypeDetails, bool) {
	s, ok := v.(string)
	if !ok {
		return literalType(v), true
	}
	r, err := refparser.Parse(s)
	if err != nil {
		return literalType(v), true
	}
	if r.Form == refparser.FormFilterItem {
		if r.Path == nil || r.Path.Empty() {
			return itemType, true
		}
		if itemType.ItemType != typedetails.Object && itemType.ItemType != typedetails.Edge {
			return typedetails.TypeDetails{}, false
		}
		details, err := g.ResolveAttributePath(itemType.ItemTag, r.Path)
		if err != nil {
			return typedetails.TypeDetails{}, false
		}
		return details, true
	}
	return resolveOperand(g, cur, s)
}

func validateOutput(root *scope, attrs map[string]map[string]any, typeKnown bool, o map[string]any, stepPath string) []issues.Issue {
	var out []issues.Issue
	from, _ := o["from"].(string)
	to, _ := o["to"].(string)
	if from == "" || to == "" {
		return out
	}

	markUse(root, from, &out, stepPath)
	name := refName(from)
	v, ok := root.vars[name]
	if !ok {
		if _, ok := root.lookup(name); ok {
			out = append(out, issues.Issue{
				Path:     stepPath,
				Message:  fmt.Sprintf("output.from %q must reference a top-level pipeline variable, not one declared inside a traverse scope", from),
				Severity: severity.SeverityError,
			})
		}
		return out
	}

	if !typeKnown {
		return out // object type not resolvable here; nothing further to check
	}

	attr, ok := attrs[to]
	if !ok {
		out = append(out, issues.Issue{
			Path:     stepPath,
			Message:  fmt.Sprintf("output.to names %q, which is not an attribute of the promised object type", to),
			Severity: severity.SeverityError,
		})
		return out
	}
	fieldType, _ := attr["field_type"].(string)
	if fieldType == "EDGE" || fieldType == "EDGE_COLLECTION" {
		out = append(out, issues.Issue{
			Path:     stepPath,
			Message:  fmt.Sprintf("output.to %q names an edge attribute; pipeline output may only populate non-edge fields", to),
			Severity: severity.SeverityError,
		})
		return out
	}
	if !typedetails.FromFieldTypeName(fieldType).Equal(v.typeDetails) {
		out = append(out, issues.Issue{
			Path:     stepPath,
			Message:  fmt.Sprintf("output.to %q has type %s, which does not match %q's type %s", to, fieldType, from, v.typeDetails),
			Severity: severity.SeverityError,
		})
	}
	return out
}

// resolveOperand resolves a literal, pipeline/thread variable, or global
// ref operand to its TypeDetails. The second return value is false when
// the operand can't be resolved here (an unresolvable ref, a local ref,
// or a lookup failure already reported elsewhere) — callers should skip
// further type checks silently rather than cascade a second diagnostic.
func resolveOperand(g *graph.Graph, s *scope, raw any) (typedetails.TypeDetails, bool) {
	str, ok := raw.(string)
	if !ok {
		return literalType(raw), true
	}
	r, err := refparser.Parse(str)
	if err != nil {
		return literalType(raw), true
	}
	switch r.Form {
	case refparser.FormVariable:
		v, found := s.lookup(r.Name)
		if !found {
			return typedetails.TypeDetails{}, false
		}
		if r.Path == nil || r.Path.Empty() {
			return v.typeDetails, true
		}
		if v.typeDetails.ItemType != typedetails.Object && v.typeDetails.ItemType != typedetails.Edge {
			return typedetails.TypeDetails{}, false
		}
		details, err := g.ResolveAttributePath(v.typeDetails.ItemTag, r.Path)
		if err != nil {
			return typedetails.TypeDetails{}, false
		}
		if v.typeDetails.IsList {
			details.IsList = true
		}
		return details, true
	case refparser.FormGlobalByID, refparser.FormGlobalByAlias:
		if r.Kind != refparser.KindObjectPromise {
			return typedetails.TypeDetails{}, false
		}
		targetID, found := resolvePromiseRef(g, r)
		if !found {
			return typedetails.TypeDetails{}, false
		}
		promise, _ := g.ObjectPromise(targetID)
		tag := graph.PromiseObjectTypeTag(promise)
		details, err := g.ResolveAttributePath(tag, r.Path)
		if err != nil {
			return typedetails.TypeDetails{}, false
		}
		return details, true
	default:
		return typedetails.TypeDetails{}, false
	}
}

func resolvePromiseRef(g *graph.Graph, r refparser.Ref) (int, bool) {
	if r.Form == refparser.FormGlobalByID {
		_, ok := g.ObjectPromise(r.ID)
		return r.ID, ok
	}
	for _, id := range g.ObjectPromiseIDs() {
		p, _ := g.ObjectPromise(id)
		if p["name"] == r.Alias {
			return id, true
		}
	}
	return 0, false
}

func literalType(raw any) typedetails.TypeDetails {
	switch v := raw.(type) {
	case bool:
		return typedetails.TypeDetails{ItemType: typedetails.Boolean}
	case float64:
		return typedetails.TypeDetails{ItemType: typedetails.Numeric}
	case int:
		return typedetails.TypeDetails{ItemType: typedetails.Numeric}
	case string:
		return typedetails.TypeDetails{ItemType: typedetails.String}
	case []any:
		if len(v) == 0 {
			return typedetails.TypeDetails{IsList: true, ItemType: typedetails.Null}
		}
		item := literalType(v[0])
		item.IsList = true
		return item
	default:
		return typedetails.TypeDetails{ItemType: typedetails.Null}
	}
}

func methodCompatible(left, right typedetails.TypeDetails, method string, firstAssignment bool) bool {
	if method == "SET" || method == "SELECT" {
		return firstAssignment || left.Equal(right)
	}
	if firstAssignment {
		return false
	}
	switch {
	case left.ItemType == typedetails.String && !left.IsList:
		return method == "CONCAT" && right.ItemType == typedetails.String && !right.IsList
	case left.ItemType == typedetails.Numeric && !left.IsList:
		if right.ItemType != typedetails.Numeric || right.IsList {
			return false
		}
		switch method {
		case "ADD", "SUBTRACT", "MULTIPLY", "DIVIDE":
			return true
		}
		return false
	case left.ItemType == typedetails.Boolean && !left.IsList:
		if right.ItemType != typedetails.Boolean || right.IsList {
			return false
		}
		return method == "AND" || method == "OR"
	case left.IsList:
		switch method {
		case "CONCAT":
			return right.IsList && right.ItemType == left.ItemType && right.ItemTag == left.ItemTag
		case "APPEND", "PREPEND":
			return !right.IsList && right.ItemType == left.ItemType && right.ItemTag == left.ItemTag
		}
		return false
	default:
		return false
	}
}

// markUse records that a pipeline-variable reference was read, reporting
// an error when the name isn't declared in scope and a warning when it's
// declared but not yet assigned (use-before-assignment).
func markUse(s *scope, raw string, out *[]issues.Issue, path string) {
	r, err := refparser.Parse(raw)
	if err != nil || r.Form != refparser.FormVariable {
		return // not a pipeline-variable reference (literal, ref, filter item, etc.)
	}
	v, ok := s.lookup(r.Name)
	if !ok {
		*out = append(*out, issues.Issue{
			Path:     path,
			Message:  fmt.Sprintf("variable \"$%s\" is not defined in this scope", r.Name),
			Severity: severity.SeverityError,
		})
		return
	}
	v.referenced = true
	if !v.assigned {
		*out = append(*out, issues.Issue{
			Path:     path,
			Message:  fmt.Sprintf("variable \"$%s\" is used before it is assigned a value", r.Name),
			Severity: severity.SeverityWarning,
		})
	}
}

func refName(raw string) string {
	r, err := refparser.Parse(raw)
	if err != nil || r.Form != refparser.FormVariable {
		return ""
	}
	return r.Name
}

func unusedVariableWarnings(s *scope, path string) []issues.Issue {
	var out []issues.Issue
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := s.vars[name]
		if v.isLoop {
			continue
		}
		if !v.referenced {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("variable \"$%s\" is never used", name),
				Severity: severity.SeverityWarning,
			})
		}
	}
	return out
}
