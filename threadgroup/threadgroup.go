// Package threadgroup validates the thread group / spawn layer: that a
// spawn's foreach source resolves to a list-typed value, that nested
// thread groups form a proper scope tree via context, and that every
// declared thread group is actually referenced by some action,
// checkpoint, or nested thread group's context.
package threadgroup

import (
	"strings"

	"github.com/flowspec/flowvalidate/graph"
	"github.com/flowspec/flowvalidate/internal/issues"
	"github.com/flowspec/flowvalidate/internal/severity"
	"github.com/flowspec/flowvalidate/refparser"
	"github.com/flowspec/flowvalidate/typedetails"
)

// Scope is a resolved thread group's position in the nesting tree: the
// dotted chain of ancestor thread group ids, outermost first.
type Scope struct {
	ThreadGroupID int
	AncestorIDs   []int
	LoopVariable  string // the name bound by this thread group's spawn.as, if any
}

// Path renders the scope the way pipeline variable tables key on it:
// dot-joined ancestor ids followed by this thread group's own id.
func (s Scope) Path() string {
	parts := make([]string, 0, len(s.AncestorIDs)+1)
	for _, id := range s.AncestorIDs {
		parts = append(parts, itoa(id))
	}
	parts = append(parts, itoa(s.ThreadGroupID))
	return strings.Join(parts, ".")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}

// Scopes resolves every thread group in the document into its nesting
// path. A context chain that loops is followed only until it revisits a
// thread group, so that group's scope holds a truncated ancestor chain;
// the loop itself is left to the cycle detector.
func Scopes(g *graph.Graph) map[int]Scope {
	out := map[int]Scope{}
	for _, id := range g.ThreadGroupIDs() {
		out[id] = resolveScope(g, id, map[int]bool{})
	}
	return out
}

func resolveScope(g *graph.Graph, id int, seen map[int]bool) Scope {
	if seen[id] {
		return Scope{ThreadGroupID: id}
	}
	seen[id] = true

	tg, ok := g.ThreadGroup(id)
	if !ok {
		return Scope{ThreadGroupID: id}
	}

	scope := Scope{ThreadGroupID: id}
	if spawn, ok := tg["spawn"].(map[string]any); ok {
		if as, ok := spawn["as"].(string); ok {
			scope.LoopVariable = as
		}
	}

	if ctxRef, ok := tg["context"].(string); ok && ctxRef != "" {
		if r, err := refparser.Parse(ctxRef); err == nil && r.Form == refparser.FormGlobalByID {
			parent := resolveScope(g, r.ID, seen)
			scope.AncestorIDs = append(append([]int{}, parent.AncestorIDs...), parent.ThreadGroupID)
		}
	}
	return scope
}

// ValidateSpawnSources reports an issue for every thread group whose
// spawn.foreach does not resolve to a list-typed value, per the
// non-list-spawn-source scenario this validator must reject.
func ValidateSpawnSources(g *graph.Graph, resolve func(raw string) (typedetails.TypeDetails, error)) []issues.Issue {
	var out []issues.Issue
	for _, id := range g.ThreadGroupIDs() {
		tg, _ := g.ThreadGroup(id)
		spawn, ok := tg["spawn"].(map[string]any)
		if !ok {
			continue
		}
		foreach, ok := spawn["foreach"]
		if !ok {
			continue
		}
		raw, ok := foreach.(string)
		if !ok {
			continue // a literal array is always list-typed
		}
		details, err := resolve(raw)
		if err != nil {
			out = append(out, issues.Issue{
				Path:     "root.thread_groups",
				Message:  "thread_group " + itoa(id) + ": spawn.foreach " + err.Error(),
				Severity: severity.SeverityError,
			})
			continue
		}
		if !details.IsList {
			out = append(out, issues.Issue{
				Path:     "root.thread_groups",
				Message:  "thread_group " + itoa(id) + ": spawn.foreach must resolve to a list-typed value",
				Severity: severity.SeverityError,
			})
		}
	}
	return out
}

// ValidateSpawnCollisions reports a thread group whose spawn.as name
// collides with the loop variable bound by an ancestor thread group or
// by any group nested beneath it; sibling thread groups are not compared (invariant 6 — forward-checked since a descendant group
// binding the same name would itself be unable to see both).
func ValidateSpawnCollisions(g *graph.Graph) []issues.Issue {
	scopes := Scopes(g)
	children := map[int][]int{}
	for _, id := range g.ThreadGroupIDs() {
		s := scopes[id]
		if len(s.AncestorIDs) > 0 {
			parent := s.AncestorIDs[len(s.AncestorIDs)-1]
			children[parent] = append(children[parent], id)
		}
	}

	var out []issues.Issue
	for _, id := range g.ThreadGroupIDs() {
		name := scopes[id].LoopVariable
		if name == "" {
			continue
		}
		if other, ok := collidesWithAncestor(scopes, id, name); ok {
			out = append(out, collisionIssue(id, name, other))
			continue
		}
		if other, ok := collidesWithDescendant(g, scopes, children, id, name); ok {
			out = append(out, collisionIssue(id, name, other))
		}
	}
	return out
}

func collidesWithAncestor(scopes map[int]Scope, id int, name string) (int, bool) {
	for _, ancestorID := range scopes[id].AncestorIDs {
		if scopes[ancestorID].LoopVariable == name {
			return ancestorID, true
		}
	}
	return 0, false
}

func collidesWithDescendant(g *graph.Graph, scopes map[int]Scope, children map[int][]int, id int, name string) (int, bool) {
	for _, childID := range children[id] {
		if scopes[childID].LoopVariable == name {
			return childID, true
		}
		if other, ok := collidesWithDescendant(g, scopes, children, childID, name); ok {
			return other, true
		}
	}
	return 0, false
}

func collisionIssue(id int, name string, other int) issues.Issue {
	return issues.Issue{
		Path:     "root.thread_groups",
		Message:  "thread_group " + itoa(id) + ": spawn.as name \"" + name + "\" collides with the variable bound by thread_group " + itoa(other),
		Severity: severity.SeverityError,
	}
}

// ValidateReferenced warns about thread groups no action, checkpoint, or
// nested thread group ever places itself inside via context.
func ValidateReferenced(g *graph.Graph) []issues.Issue {
	referenced := map[int]bool{}
	mark := func(raw any) {
		s, ok := raw.(string)
		if !ok || s == "" {
			return
		}
		r, err := refparser.Parse(s)
		if err == nil && r.Form == refparser.FormGlobalByID && r.Kind == refparser.KindThreadGroup {
			referenced[r.ID] = true
		}
	}

	for _, id := range g.ActionIDs() {
		a, _ := g.Action(id)
		mark(a["context"])
	}
	for _, id := range g.CheckpointIDs() {
		cp, _ := g.Checkpoint(id)
		mark(cp["context"])
	}
	for _, id := range g.ThreadGroupIDs() {
		tg, _ := g.ThreadGroup(id)
		mark(tg["context"])
	}

	var out []issues.Issue
	for _, id := range g.ThreadGroupIDs() {
		if !referenced[id] {
			out = append(out, issues.Issue{
				Path:     "root.thread_groups",
				Message:  "thread_group " + itoa(id) + " is never referenced",
				Severity: severity.SeverityWarning,
			})
		}
	}
	return out
}
