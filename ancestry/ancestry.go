// Package ancestry analyzes the dependency graph a workflow document's
// checkpoints, depends_on links, and context (thread group) nesting form:
// cycle detection across the whole document, and "has ancestor" queries
// used to validate that an action is guaranteed to run only after a
// particular upstream action or object promise has been fulfilled.
package ancestry

import (
	"fmt"
	"sort"

	"github.com/flowspec/flowvalidate/graph"
	"github.com/flowspec/flowvalidate/internal/issues"
	"github.com/flowspec/flowvalidate/internal/severity"
	"github.com/flowspec/flowvalidate/refparser"
)

// node identifies one graph vertex by kind and id.
type node struct {
	kind string
	id   int
}

func (n node) String() string { return fmt.Sprintf("%s:%d", n.kind, n.id) }

// edges builds the full dependency adjacency: action/thread_group ->
// checkpoint (depends_on), checkpoint -> checkpoint (dependencies),
// checkpoint -> action (actions named by a Comparison dependency's
// operands), action/checkpoint/thread_group -> thread_group (context),
// and thread_group -> action (the fulfiller of the promise its spawn
// iterates over).
func edges(g *graph.Graph) map[node][]node {
	adj := map[node][]node{}
	add := func(from, to node) { adj[from] = append(adj[from], to) }

	for _, id := range g.ActionIDs() {
		a, _ := g.Action(id)
		from := node{"action", id}
		if ref, ok := refOf(a["depends_on"]); ok && ref.Kind == refparser.KindCheckpoint {
			add(from, node{"checkpoint", ref.ID})
		}
		if ref, ok := refOf(a["context"]); ok && ref.Kind == refparser.KindThreadGroup {
			add(from, node{"thread_group", ref.ID})
		}
	}

	for _, id := range g.CheckpointIDs() {
		cp, _ := g.Checkpoint(id)
		from := node{"checkpoint", id}
		deps, _ := cp["dependencies"].([]any)
		for _, raw := range deps {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if ref, ok := refOf(m["checkpoint"]); ok {
				add(from, node{"checkpoint", ref.ID})
				continue
			}
			// A Comparison dependency's operands may reference an action
			// (an action property path); both operand action ids are
			// treated as direct ancestors of this checkpoint.
			if ref, ok := actionRefOf(m["left"]); ok {
				add(from, node{"action", ref.ID})
			}
			if ref, ok := actionRefOf(m["right"]); ok {
				add(from, node{"action", ref.ID})
			}
		}
		if ref, ok := refOf(cp["context"]); ok && ref.Kind == refparser.KindThreadGroup {
			add(from, node{"thread_group", ref.ID})
		}
	}

	for _, id := range g.ThreadGroupIDs() {
		tg, _ := g.ThreadGroup(id)
		from := node{"thread_group", id}
		if ref, ok := refOf(tg["depends_on"]); ok && ref.Kind == refparser.KindCheckpoint {
			add(from, node{"checkpoint", ref.ID})
		}
		if ref, ok := refOf(tg["context"]); ok && ref.Kind == refparser.KindThreadGroup {
			add(from, node{"thread_group", ref.ID})
		}
		if fulfillerID, ok := spawnSourceFulfiller(g, tg); ok {
			add(from, node{"action", fulfillerID})
		}
	}

	return adj
}

// spawnSourceFulfiller reports the action that fulfills the object promise
// a thread group spawns over (its spawn.foreach root), when that promise
// is rooted at a global object promise reference. A thread group can only
// iterate a promise's list-typed field once that promise has been
// fulfilled, so this is an unconditional ancestry edge: it holds regardless
// of any checkpoint gating, and in particular doesn't require the fulfiller
// to be named in any checkpoint dependency.
func spawnSourceFulfiller(g *graph.Graph, tg map[string]any) (int, bool) {
	spawn, ok := tg["spawn"].(map[string]any)
	if !ok {
		return 0, false
	}
	raw, ok := spawn["foreach"].(string)
	if !ok {
		return 0, false
	}
	r, err := refparser.Parse(raw)
	if err != nil || !r.IsGlobal() || r.Kind != refparser.KindObjectPromise {
		return 0, false
	}
	promiseID, ok := resolveObjectPromiseID(g, r)
	if !ok {
		return 0, false
	}
	fulfillerID, ok := g.FulfillerOf[promiseID]
	return fulfillerID, ok
}

func resolveObjectPromiseID(g *graph.Graph, r refparser.Ref) (int, bool) {
	if r.Form == refparser.FormGlobalByID {
		if _, ok := g.ObjectPromise(r.ID); ok {
			return r.ID, true
		}
		return 0, false
	}
	for _, id := range g.ObjectPromiseIDs() {
		p, _ := g.ObjectPromise(id)
		if name, _ := p["name"].(string); name == r.Alias {
			return id, true
		}
	}
	return 0, false
}

func refOf(v any) (refparser.Ref, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return refparser.Ref{}, false
	}
	r, err := refparser.Parse(s)
	if err != nil {
		return refparser.Ref{}, false
	}
	return r, true
}

// actionRefOf parses a Comparison operand and reports whether it's a
// global reference rooted at an action (an action property path, e.g.
// "action:5.operation.include"), ignoring literals and non-action refs.
func actionRefOf(v any) (refparser.Ref, bool) {
	r, ok := refOf(v)
	if !ok || !r.IsGlobal() || r.Kind != refparser.KindAction {
		return refparser.Ref{}, false
	}
	return r, true
}

// DetectCycles walks the full dependency graph and reports one issue per
// distinct cycle found, each carrying the dependency path that closes it.
func DetectCycles(g *graph.Graph) []issues.Issue {
	adj := edges(g)

	var all []node
	for n := range adj {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].kind != all[j].kind {
			return all[i].kind < all[j].kind
		}
		return all[i].id < all[j].id
	})

	visited := map[node]bool{}
	var out []issues.Issue

	var stack []node
	onStack := map[node]bool{}

	var visit func(n node)
	visit = func(n node) {
		if onStack[n] {
			out = append(out, issues.Issue{
				Path:     "root",
				Message:  fmt.Sprintf("circular dependency detected (dependency path: %v)", pathStrings(append(stack, n))),
				Severity: severity.SeverityError,
			})
			return
		}
		if visited[n] {
			return
		}
		visited[n] = true
		onStack[n] = true
		stack = append(stack, n)
		for _, next := range adj[n] {
			visit(next)
		}
		stack = stack[:len(stack)-1]
		onStack[n] = false
	}

	for _, n := range all {
		visit(n)
	}
	return out
}

func pathStrings(ns []node) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.String()
	}
	return out
}

// HasAncestor reports whether descendant (identified by kind/id) has
// ancestorID among its checkpoint/context ancestry chain. ancestorID
// always names an action (every call site passes "action" ancestors).
//
// With guarantee=false this is plain reachability over the dependency
// graph. With guarantee=true (used by the appends_objects_to rule and
// other guarantee-aware ancestry checks), an OR/XOR-gated checkpoint only
// propagates the guarantee when every one of its dependency branches
// independently guarantees the ancestor ran; an AND-gated (or single-dependency,
// gate-less) checkpoint propagates it if any one branch does, since an
// AND's dependencies must all have held, so any branch reaching the
// ancestor suffices; NAND/NOR never propagate a guarantee, since their
// satisfaction doesn't pin down which (if any) dependency held.
//
// A thread group also carries an unconditional, always-guaranteed edge to
// the action that fulfills the object promise it spawns over (see
// spawnSourceFulfiller): spawning per-item over a promise's list-typed
// field is only possible once that promise has been fulfilled, so that
// ancestry holds independent of checkpoint gating.
func HasAncestor(g *graph.Graph, descendantKind string, descendantID, ancestorID int, guarantee bool) bool {
	start := node{descendantKind, descendantID}
	if !guarantee {
		adj := edges(g)
		visited := map[node]bool{}
		var dfs func(n node) bool
		dfs = func(n node) bool {
			if visited[n] {
				return false
			}
			visited[n] = true
			for _, next := range adj[n] {
				if next.kind == "action" && next.id == ancestorID {
					return true
				}
				if dfs(next) {
					return true
				}
			}
			return false
		}
		return dfs(start)
	}
	return guaranteedReaches(g, start, ancestorID, map[node]bool{})
}

func cloneVisited(v map[node]bool) map[node]bool {
	out := make(map[node]bool, len(v))
	for k := range v {
		out[k] = true
	}
	return out
}

// guaranteedReaches walks outward from n (an action or thread_group)
// through its depends_on checkpoint and context chain, reporting whether
// reaching n guarantees ancestorID ran.
func guaranteedReaches(g *graph.Graph, n node, ancestorID int, visited map[node]bool) bool {
	if visited[n] {
		return false
	}
	visited[n] = true

	switch n.kind {
	case "action":
		if n.id == ancestorID {
			return true
		}
		a, ok := g.Action(n.id)
		if !ok {
			return false
		}
		if ref, ok := refOf(a["depends_on"]); ok && ref.Kind == refparser.KindCheckpoint {
			if guaranteedCheckpoint(g, ref.ID, ancestorID, visited) {
				return true
			}
		}
		if ref, ok := refOf(a["context"]); ok && ref.Kind == refparser.KindThreadGroup {
			if guaranteedReaches(g, node{"thread_group", ref.ID}, ancestorID, visited) {
				return true
			}
		}
		return false
	case "thread_group":
		tg, ok := g.ThreadGroup(n.id)
		if !ok {
			return false
		}
		if ref, ok := refOf(tg["depends_on"]); ok && ref.Kind == refparser.KindCheckpoint {
			if guaranteedCheckpoint(g, ref.ID, ancestorID, visited) {
				return true
			}
		}
		if ref, ok := refOf(tg["context"]); ok && ref.Kind == refparser.KindThreadGroup {
			if guaranteedReaches(g, node{"thread_group", ref.ID}, ancestorID, visited) {
				return true
			}
		}
		if fulfillerID, ok := spawnSourceFulfiller(g, tg); ok {
			if guaranteedReaches(g, node{"action", fulfillerID}, ancestorID, visited) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// guaranteedCheckpoint reports whether checkpointID having been satisfied
// guarantees ancestorID ran, per the gate-type combinator described on
// HasAncestor.
func guaranteedCheckpoint(g *graph.Graph, checkpointID, ancestorID int, visited map[node]bool) bool {
	n := node{"checkpoint", checkpointID}
	if visited[n] {
		return false
	}
	visited[n] = true

	cp, ok := g.Checkpoint(checkpointID)
	if !ok {
		return false
	}
	deps, _ := cp["dependencies"].([]any)
	gate, _ := cp["gate_type"].(string)

	var results []bool
	for _, raw := range deps {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		branchVisited := cloneVisited(visited)
		var r bool
		if ref, ok := refOf(m["checkpoint"]); ok {
			r = guaranteedCheckpoint(g, ref.ID, ancestorID, branchVisited)
		} else {
			if aref, ok := actionRefOf(m["left"]); ok && guaranteedReaches(g, node{"action", aref.ID}, ancestorID, cloneVisited(branchVisited)) {
				r = true
			}
			if !r {
				if aref, ok := actionRefOf(m["right"]); ok && guaranteedReaches(g, node{"action", aref.ID}, ancestorID, branchVisited) {
					r = true
				}
			}
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		return false
	}

	switch gate {
	case "", "AND":
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	case "OR", "XOR":
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	default: // NAND, NOR
		return false
	}
}
