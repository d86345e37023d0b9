// Package actionop validates the action operation layer: which action
// fulfills (CREATES) each object promise versus edits it, that the
// projection and default-value/default-edge/appends_objects_to fields of
// an operation are consistent with the promised object type and the
// dependency graph, and that an EDIT action runs in the same thread-group
// context as the promise's fulfiller.
package actionop

import (
	"fmt"
	"sort"

	"github.com/flowspec/flowvalidate/ancestry"
	"github.com/flowspec/flowvalidate/graph"
	"github.com/flowspec/flowvalidate/internal/issues"
	"github.com/flowspec/flowvalidate/internal/severity"
	"github.com/flowspec/flowvalidate/refparser"
)

// Validate runs the action-operation analyzer over every object promise
// and the actions that reference it.
func Validate(g *graph.Graph) []issues.Issue {
	var out []issues.Issue

	actionsByPromise := groupActionsByPromise(g)

	fulfillerOf := map[int]int{}
	promiseIDs := append([]int{}, g.ObjectPromiseIDs()...)
	sort.Ints(promiseIDs)
	for _, pid := range promiseIDs {
		ids := append([]int{}, actionsByPromise[pid]...)
		sort.Ints(ids)
		f, errs := resolveFulfiller(pid, ids, g)
		out = append(out, errs...)
		fulfillerOf[pid] = f
	}

	for _, pid := range promiseIDs {
		ids := actionsByPromise[pid]
		path := fmt.Sprintf("root.object_promises[object_promise:%d]", pid)
		if len(ids) == 0 {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  "object promise is never fulfilled by any action",
				Severity: severity.SeverityError,
			})
			continue
		}
		for _, aid := range ids {
			out = append(out, validateAction(g, pid, aid, fulfillerOf, actionsByPromise)...)
		}
	}

	return out
}

func groupActionsByPromise(g *graph.Graph) map[int][]int {
	out := map[int][]int{}
	ids := append([]int{}, g.ActionIDs()...)
	sort.Ints(ids)
	for _, id := range ids {
		a, _ := g.Action(id)
		ref, ok := refString(a["object_promise"])
		if !ok {
			continue
		}
		pid, ok := resolvePromiseIDFromRaw(g, ref)
		if !ok {
			continue
		}
		out[pid] = append(out[pid], id)
	}
	return out
}

// resolveFulfiller picks, among the actions referencing one promise, the
// one with no other such action as an ancestor (the CREATE). More than
// one candidate root means the promise is ambiguously fulfilled.
func resolveFulfiller(promiseID int, actionIDs []int, g *graph.Graph) (int, []issues.Issue) {
	if len(actionIDs) == 0 {
		return -1, nil
	}
	var roots []int
	for _, a := range actionIDs {
		isRoot := true
		for _, b := range actionIDs {
			if a == b {
				continue
			}
			if ancestry.HasAncestor(g, "action", a, b, false) {
				isRoot = false
				break
			}
		}
		if isRoot {
			roots = append(roots, a)
		}
	}
	if len(roots) <= 1 {
		if len(roots) == 0 {
			// every action on this promise sits in a cycle; ancestry.DetectCycles
			// already reports that, so just pick one to keep later checks useful.
			return actionIDs[0], nil
		}
		return roots[0], nil
	}

	path := fmt.Sprintf("root.object_promises[object_promise:%d]", promiseID)
	var out []issues.Issue
	for _, a := range roots {
		out = append(out, issues.Issue{
			Path:     path,
			Message:  fmt.Sprintf("object promise is fulfilled by more than one action (action %d)", a),
			Severity: severity.SeverityError,
		})
	}
	return roots[0], out
}

func validateAction(g *graph.Graph, promiseID, actionID int, fulfillerOf map[int]int, actionsByPromise map[int][]int) []issues.Issue {
	a, _ := g.Action(actionID)
	op, _ := a["operation"].(map[string]any)
	if op == nil {
		return nil
	}
	path := fmt.Sprintf("root.actions[action:%d].operation", actionID)

	promise, _ := g.ObjectPromise(promiseID)
	attrs := g.AttributesFor(graph.PromiseObjectTypeTag(promise))

	var out []issues.Issue
	out = append(out, checkAttributeNames(path, op, "include", attrs)...)
	out = append(out, checkAttributeNames(path, op, "exclude", attrs)...)

	fulfillerID := fulfillerOf[promiseID]
	if actionID != fulfillerID {
		out = append(out, validateEdit(g, path, promiseID, actionID, fulfillerID, op)...)
		return out
	}

	out = append(out, validateDefaultValues(path, op, attrs)...)
	out = append(out, validateDefaultEdges(g, path, actionID, op, attrs, fulfillerOf)...)
	out = append(out, validateAppendsObjectsTo(g, path, promiseID, actionID, op, fulfillerOf, actionsByPromise)...)
	return out
}

func validateEdit(g *graph.Graph, path string, promiseID, actionID, fulfillerID int, op map[string]any) []issues.Issue {
	var out []issues.Issue
	for _, key := range []string{"default_values", "default_edges", "appends_objects_to"} {
		if _, ok := op[key]; ok {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("%s is only valid on the action that creates the object promise, not on an edit", key),
				Severity: severity.SeverityError,
			})
		}
	}

	if fulfillerID < 0 {
		return out // already reported as "never fulfilled"
	}
	if !ancestry.HasAncestor(g, "action", actionID, fulfillerID, false) {
		out = append(out, issues.Issue{
			Path:     path,
			Message:  fmt.Sprintf("edit action must have the object promise's fulfilling action (action %d) as an ancestor", fulfillerID),
			Severity: severity.SeverityError,
		})
	}

	action, _ := g.Action(actionID)
	fulfiller, _ := g.Action(fulfillerID)
	if contextID(g, action["context"]) != contextID(g, fulfiller["context"]) {
		out = append(out, issues.Issue{
			Path:     path,
			Message:  "cannot edit an object promise outside of the thread-group context its fulfilling action ran in",
			Severity: severity.SeverityError,
		})
	}
	return out
}

func checkAttributeNames(path string, op map[string]any, key string, attrs map[string]map[string]any) []issues.Issue {
	list, ok := op[key].([]any)
	if !ok {
		return nil
	}
	var out []issues.Issue
	for _, raw := range list {
		name, _ := raw.(string)
		if name == "" {
			continue
		}
		if _, ok := attrs[name]; !ok {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("%s names %q, which is not an attribute of the promised object type", key, name),
				Severity: severity.SeverityError,
			})
		}
	}
	return out
}

func validateDefaultValues(path string, op map[string]any, attrs map[string]map[string]any) []issues.Issue {
	dv, ok := op["default_values"].(map[string]any)
	if !ok {
		return nil
	}
	var out []issues.Issue
	for name, val := range dv {
		attr, ok := attrs[name]
		if !ok {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("default_values names %q, which is not an attribute of the promised object type", name),
				Severity: severity.SeverityError,
			})
			continue
		}
		fieldType, _ := attr["field_type"].(string)
		if fieldType == "EDGE" || fieldType == "EDGE_COLLECTION" {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("default_values.%s targets an edge attribute; use default_edges instead", name),
				Severity: severity.SeverityError,
			})
			continue
		}
		if !valueMatchesFieldType(val, fieldType) {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("default_values.%s does not match the attribute's declared type %s", name, fieldType),
				Severity: severity.SeverityError,
			})
		}
	}
	return out
}

func validateDefaultEdges(g *graph.Graph, path string, actionID int, op map[string]any, attrs map[string]map[string]any, fulfillerOf map[int]int) []issues.Issue {
	de, ok := op["default_edges"].(map[string]any)
	if !ok {
		return nil
	}
	var out []issues.Issue
	for name, v := range de {
		attr, ok := attrs[name]
		if !ok {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("default_edges names %q, which is not an attribute of the promised object type", name),
				Severity: severity.SeverityError,
			})
			continue
		}
		fieldType, _ := attr["field_type"].(string)
		if fieldType != "EDGE" {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("default_edges.%s targets a non-EDGE attribute", name),
				Severity: severity.SeverityError,
			})
			continue
		}
		raw, _ := v.(string)
		r, err := refparser.Parse(raw)
		if err != nil || r.Kind != refparser.KindObjectPromise || !r.IsGlobal() {
			continue // ref syntax/kind already reported by the structural walk
		}
		targetPromiseID, ok := resolvePromiseID(g, r)
		if !ok {
			continue
		}
		targetPromise, _ := g.ObjectPromise(targetPromiseID)
		targetTag := graph.AttributeObjectTypeTag(attr)
		if graph.PromiseObjectTypeTag(targetPromise) != targetTag {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("default_edges.%s references an object promise of the wrong object type", name),
				Severity: severity.SeverityError,
			})
		}
		targetFulfiller, ok := fulfillerOf[targetPromiseID]
		if !ok || targetFulfiller < 0 {
			continue
		}
		if targetFulfiller != actionID && !ancestry.HasAncestor(g, "action", actionID, targetFulfiller, false) {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("default_edges.%s must reference an object promise fulfilled by this action or one of its ancestors", name),
				Severity: severity.SeverityError,
			})
		}
	}
	return out
}

func validateAppendsObjectsTo(g *graph.Graph, path string, promiseID, actionID int, op map[string]any, fulfillerOf map[int]int, actionsByPromise map[int][]int) []issues.Issue {
	raw, ok := op["appends_objects_to"].(string)
	if !ok || raw == "" {
		return nil
	}
	r, err := refparser.Parse(raw)
	if err != nil || !r.IsGlobal() || r.Kind != refparser.KindObjectPromise {
		return nil
	}
	targetPromiseID, ok := resolvePromiseID(g, r)
	if !ok {
		return nil
	}

	var out []issues.Issue
	targetPromise, _ := g.ObjectPromise(targetPromiseID)
	targetTag := graph.PromiseObjectTypeTag(targetPromise)
	targetAttrs := g.AttributesFor(targetTag)

	promise, _ := g.ObjectPromise(promiseID)
	ownTag := graph.PromiseObjectTypeTag(promise)

	var matchField string
	names := make([]string, 0, len(targetAttrs))
	for name := range targetAttrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attr := targetAttrs[name]
		ft, _ := attr["field_type"].(string)
		otag := graph.AttributeObjectTypeTag(attr)
		if ft == "EDGE_COLLECTION" && otag == ownTag {
			matchField = name
			break
		}
	}
	if matchField == "" {
		out = append(out, issues.Issue{
			Path:     path,
			Message:  fmt.Sprintf("appends_objects_to references an object promise of type %q, which has no edge collection of type %q", targetTag, ownTag),
			Severity: severity.SeverityError,
		})
		return out
	}

	targetFulfiller, hasFulfiller := fulfillerOf[targetPromiseID]
	if !hasFulfiller || targetFulfiller < 0 || !ancestry.HasAncestor(g, "action", actionID, targetFulfiller, true) {
		out = append(out, issues.Issue{
			Path:     path,
			Message:  "appends_objects_to target must be guaranteed to be an ancestor of this action along every dependency path",
			Severity: severity.SeverityError,
		})
	}

	for _, otherID := range actionsByPromise[targetPromiseID] {
		if otherID == actionID {
			continue
		}
		other, _ := g.Action(otherID)
		otherOp, _ := other["operation"].(map[string]any)
		if writable(otherOp, matchField) {
			out = append(out, issues.Issue{
				Path:     path,
				Message:  fmt.Sprintf("appends_objects_to field %q is also written by action %d's operation", matchField, otherID),
				Severity: severity.SeverityError,
			})
		}
	}

	if hasFulfiller && targetFulfiller >= 0 && referencedByCheckpoint(g, targetFulfiller) {
		out = append(out, issues.Issue{
			Path:     path,
			Message:  "appends_objects_to target's fulfilling action must not be referenced by any checkpoint dependency",
			Severity: severity.SeverityError,
		})
	}

	return out
}

func writable(op map[string]any, field string) bool {
	if op == nil {
		return false
	}
	if inc, ok := op["include"].([]any); ok {
		for _, v := range inc {
			if s, _ := v.(string); s == field {
				return true
			}
		}
		return false
	}
	if exc, ok := op["exclude"].([]any); ok {
		for _, v := range exc {
			if s, _ := v.(string); s == field {
				return false
			}
		}
		return true
	}
	return false
}

func referencedByCheckpoint(g *graph.Graph, actionID int) bool {
	for _, cid := range g.CheckpointIDs() {
		cp, _ := g.Checkpoint(cid)
		deps, _ := cp["dependencies"].([]any)
		for _, raw := range deps {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if operandReferencesAction(m["left"], actionID) || operandReferencesAction(m["right"], actionID) {
				return true
			}
		}
	}
	return false
}

func operandReferencesAction(v any, actionID int) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	r, err := refparser.Parse(s)
	if err != nil || !r.IsGlobal() || r.Kind != refparser.KindAction {
		return false
	}
	return r.ID == actionID
}

func valueMatchesFieldType(val any, fieldType string) bool {
	switch fieldType {
	case "BOOLEAN":
		_, ok := val.(bool)
		return ok
	case "NUMERIC":
		switch val.(type) {
		case float64, int:
			return true
		}
		return false
	case "STRING":
		_, ok := val.(string)
		return ok
	case "BOOLEAN_LIST":
		return isListOf(val, func(v any) bool { _, ok := v.(bool); return ok })
	case "NUMERIC_LIST":
		return isListOf(val, func(v any) bool {
			switch v.(type) {
			case float64, int:
				return true
			}
			return false
		})
	case "STRING_LIST":
		return isListOf(val, func(v any) bool { _, ok := v.(string); return ok })
	default:
		return true
	}
}

func isListOf(val any, pred func(any) bool) bool {
	list, ok := val.([]any)
	if !ok {
		return false
	}
	for _, v := range list {
		if !pred(v) {
			return false
		}
	}
	return true
}

func resolvePromiseID(g *graph.Graph, r refparser.Ref) (int, bool) {
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

func resolvePromiseIDFromRaw(g *graph.Graph, raw string) (int, bool) {
	r, err := refparser.Parse(raw)
	if err != nil || !r.IsGlobal() || r.Kind != refparser.KindObjectPromise {
		return 0, false
	}
	return resolvePromiseID(g, r)
}

func contextID(g *graph.Graph, raw any) int {
	s, ok := raw.(string)
	if !ok || s == "" {
		return -1
	}
	r, err := refparser.Parse(s)
	if err != nil || !r.IsGlobal() {
		return -1
	}
	if r.Form == refparser.FormGlobalByID {
		return r.ID
	}
	for _, id := range g.ThreadGroupIDs() {
		tg, _ := g.ThreadGroup(id)
		if tg["alias"] == r.Alias {
			return id
		}
	}
	return -1
}

func refString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}
