// Package graph collects a decoded workflow document into indexed lookup
// tables (by id and by alias, per entity kind) and implements the
// spec.Resolver interface the structural walk uses to validate reference
// strings. It indexes the document as written and synthesizes no
// pseudo-checkpoints: an action or thread group that has both a context
// and its own depends_on gets no combined checkpoint, and the ancestry
// package follows the depends_on, context and checkpoint dependency
// edges directly.
package graph

import (
	"fmt"

	"github.com/flowspec/flowvalidate/internal/refpath"
	"github.com/flowspec/flowvalidate/refparser"
	"github.com/flowspec/flowvalidate/spec"
	"github.com/flowspec/flowvalidate/typedetails"
)

// entity is one indexed global object: its raw document value plus the
// id/alias it was registered under.
type entity struct {
	id    int
	alias string
	value map[string]any
}

// collection indexes one kind's entities by id and, when present, alias.
type collection struct {
	byID    map[int]entity
	byAlias map[string]entity
}

func newCollection() *collection {
	return &collection{byID: map[int]entity{}, byAlias: map[string]entity{}}
}

func (c *collection) add(e entity) {
	c.byID[e.id] = e
	if e.alias != "" {
		c.byAlias[e.alias] = e
	}
}

// Graph is the indexed view of a decoded workflow document.
type Graph struct {
	Document map[string]any

	parties        *collection
	objectPromises *collection
	actions        *collection
	checkpoints    *collection
	threadGroups   *collection
	objectTypes    map[string]map[string]any

	// ActionsDependingOn maps a checkpoint id to the ids of the actions
	// and thread groups whose depends_on names it.
	ActionsDependingOn map[int][]int

	// FulfillerOf maps an object promise id to the action id whose
	// operation creates it (an action with no appends_objects_to field is
	// implicitly the CREATE for its promise, so every promise has at most
	// one fulfiller).
	FulfillerOf map[int]int

	// pipelines indexes each declared pipeline by the id of the object
	// promise it populates.
	pipelines map[int]map[string]any
}

// Build indexes every global collection named in the document's root
// object. Malformed entries (missing id, non-map elements) are skipped;
// the structural spec walk is responsible for reporting those as errors,
// so Build degrades gracefully rather than panicking.
func Build(document map[string]any) *Graph {
	g := &Graph{
		Document:           document,
		parties:            newCollection(),
		objectPromises:     newCollection(),
		actions:            newCollection(),
		checkpoints:        newCollection(),
		threadGroups:       newCollection(),
		objectTypes:        map[string]map[string]any{},
		ActionsDependingOn: map[int][]int{},
		FulfillerOf:        map[int]int{},
		pipelines:          map[int]map[string]any{},
	}

	indexList(document, "parties", "name", g.parties)
	indexList(document, "object_promises", "name", g.objectPromises)
	indexList(document, "actions", "", g.actions)
	indexList(document, "checkpoints", "alias", g.checkpoints)
	indexList(document, "thread_groups", "alias", g.threadGroups)

	if types, ok := document["object_types"].(map[string]any); ok {
		for tag, attrs := range types {
			if m, ok := attrs.(map[string]any); ok {
				g.objectTypes[tag] = m
			}
		}
	}

	if pipelines, ok := document["pipelines"].([]any); ok {
		for _, raw := range pipelines {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			ref, ok := asRefString(m["object_promise"])
			if !ok {
				continue
			}
			r, err := refparser.Parse(ref)
			if err != nil || r.Form != refparser.FormGlobalByID {
				continue
			}
			g.pipelines[r.ID] = m
		}
	}

	g.buildDependencyIndex()
	g.buildFulfillerIndex()

	return g
}

func indexList(document map[string]any, key, aliasField string, c *collection) {
	list, ok := document[key].([]any)
	if !ok {
		return
	}
	for _, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, ok := intField(m, "id")
		if !ok {
			continue
		}
		alias := ""
		if aliasField != "" {
			if s, ok := m[aliasField].(string); ok {
				alias = s
			}
		}
		c.add(entity{id: id, alias: alias, value: m})
	}
}

func intField(m map[string]any, field string) (int, bool) {
	v, ok := m[field]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func (g *Graph) buildDependencyIndex() {
	for id, e := range g.actions.byID {
		if ref, ok := asRefString(e.value["depends_on"]); ok {
			g.recordDependency(ref, id)
		}
	}
	for id, e := range g.threadGroups.byID {
		if ref, ok := asRefString(e.value["depends_on"]); ok {
			g.recordDependency(ref, id)
		}
	}
}

func (g *Graph) recordDependency(rawRef string, dependentID int) {
	r, err := refparser.Parse(rawRef)
	if err != nil || r.Form != refparser.FormGlobalByID || r.Kind != refparser.KindCheckpoint {
		return
	}
	g.ActionsDependingOn[r.ID] = append(g.ActionsDependingOn[r.ID], dependentID)
}

func (g *Graph) buildFulfillerIndex() {
	for id, e := range g.actions.byID {
		promiseRef, ok := asRefString(e.value["object_promise"])
		if !ok {
			continue
		}
		op, _ := e.value["operation"].(map[string]any)
		if op != nil {
			if _, hasAppend := op["appends_objects_to"]; hasAppend {
				continue // EDIT-style append, not the fulfiller
			}
		}
		r, err := refparser.Parse(promiseRef)
		if err != nil || r.Form != refparser.FormGlobalByID {
			continue
		}
		g.FulfillerOf[r.ID] = id
	}
}

func asRefString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

// Resolve implements spec.Resolver.
func (g *Graph) Resolve(raw string, allowed []spec.RefType) error {
	r, err := refparser.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid reference %q: %w", raw, err)
	}
	if !spec.MatchesRefType(r, allowed) {
		return fmt.Errorf("reference %q is not one of the allowed kinds %v", raw, allowed)
	}
	if !r.IsGlobal() {
		return nil // local/filter/variable forms resolve dynamically, not here
	}
	c := g.collectionFor(r.Kind)
	if c == nil {
		return fmt.Errorf("reference %q names an unknown kind %q", raw, r.Kind)
	}
	if _, ok := g.lookup(c, r); !ok {
		return fmt.Errorf("reference %q does not resolve to any known %s", raw, r.Kind)
	}
	return nil
}

// EqualsPath implements spec.Resolver.
func (g *Graph) EqualsPath(raw, documentPath string) (bool, error) {
	r, err := refparser.Parse(raw)
	if err != nil {
		return false, err
	}
	if !r.IsGlobal() {
		return false, fmt.Errorf("EqualsPath requires a global reference, got %q", raw)
	}
	c := g.collectionFor(r.Kind)
	if c == nil {
		return false, fmt.Errorf("reference %q names an unknown kind %q", raw, r.Kind)
	}
	e, ok := g.lookup(c, r)
	if !ok {
		return false, fmt.Errorf("reference %q does not resolve", raw)
	}

	p, err := refpath.Parse(documentPath)
	if err != nil {
		return false, err
	}
	target, ok := navigate(g.Document, p)
	if !ok {
		return false, fmt.Errorf("path %q does not resolve in the document", documentPath)
	}
	return fmt.Sprint(target) == fmt.Sprint(e.value["id"]), nil
}

func (g *Graph) collectionFor(kind refparser.Kind) *collection {
	switch kind {
	case refparser.KindParty:
		return g.parties
	case refparser.KindObjectPromise:
		return g.objectPromises
	case refparser.KindAction:
		return g.actions
	case refparser.KindCheckpoint:
		return g.checkpoints
	case refparser.KindThreadGroup:
		return g.threadGroups
	default:
		return nil
	}
}

func (g *Graph) lookup(c *collection, r refparser.Ref) (entity, bool) {
	if r.Form == refparser.FormGlobalByID {
		e, ok := c.byID[r.ID]
		return e, ok
	}
	e, ok := c.byAlias[r.Alias]
	return e, ok
}

func navigate(root any, p *refpath.Path) (any, bool) {
	cur := root
	for _, seg := range p.Segments() {
		switch s := seg.(type) {
		case refpath.Name:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			cur, ok = m[string(s)]
			if !ok {
				return nil, false
			}
		case refpath.Index:
			list, ok := cur.([]any)
			if !ok || int(s) < 0 || int(s) >= len(list) {
				return nil, false
			}
			cur = list[s]
		default:
			return nil, false
		}
	}
	return cur, true
}

// ActionIDs returns every indexed action id, sorted is left to the caller.
func (g *Graph) ActionIDs() []int {
	return collectionIDs(g.actions)
}

// CheckpointIDs returns every indexed checkpoint id.
func (g *Graph) CheckpointIDs() []int {
	return collectionIDs(g.checkpoints)
}

// ThreadGroupIDs returns every indexed thread group id.
func (g *Graph) ThreadGroupIDs() []int {
	return collectionIDs(g.threadGroups)
}

func collectionIDs(c *collection) []int {
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	return ids
}

// Action looks up an action by id.
func (g *Graph) Action(id int) (map[string]any, bool) {
	e, ok := g.actions.byID[id]
	return e.value, ok
}

// Checkpoint looks up a checkpoint by id.
func (g *Graph) Checkpoint(id int) (map[string]any, bool) {
	e, ok := g.checkpoints.byID[id]
	return e.value, ok
}

// ThreadGroup looks up a thread group by id.
func (g *Graph) ThreadGroup(id int) (map[string]any, bool) {
	e, ok := g.threadGroups.byID[id]
	return e.value, ok
}

// ObjectPromise looks up an object promise by id.
func (g *Graph) ObjectPromise(id int) (map[string]any, bool) {
	e, ok := g.objectPromises.byID[id]
	return e.value, ok
}

// ObjectPromiseIDs returns every indexed object promise id.
func (g *Graph) ObjectPromiseIDs() []int {
	return collectionIDs(g.objectPromises)
}

// PartyIDs returns every indexed party id.
func (g *Graph) PartyIDs() []int {
	return collectionIDs(g.parties)
}

// Party looks up a party by id.
func (g *Graph) Party(id int) (map[string]any, bool) {
	e, ok := g.parties.byID[id]
	return e.value, ok
}

// ObjectType looks up an object type's attribute map by tag.
func (g *Graph) ObjectType(tag string) (map[string]any, bool) {
	m, ok := g.objectTypes[tag]
	return m, ok
}

// ObjectTypeTags returns every declared object type's tag.
func (g *Graph) ObjectTypeTags() []string {
	tags := make([]string, 0, len(g.objectTypes))
	for tag := range g.objectTypes {
		tags = append(tags, tag)
	}
	return tags
}

// AttributesFor returns the attribute definitions of the object type
// named by tag, normalized to map[string]map[string]any for callers that
// need to inspect field_type/object_type per attribute.
func (g *Graph) AttributesFor(tag string) map[string]map[string]any {
	out := map[string]map[string]any{}
	raw, ok := g.objectTypes[tag]
	if !ok {
		return out
	}
	for name, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out[name] = m
		}
	}
	return out
}

// ResolveAttributePath walks a dotted path over the attributes of the
// object type named by tag, returning the TypeDetails the path resolves
// to. EDGE/EDGE_COLLECTION steps continue traversal against the target
// tag; a list encountered while already inside a list is rejected, per
// the "nested list types are not supported" rule shared by the type
// resolver, the thread-group spawn-source check, and the pipeline
// analyzer.
func (g *Graph) ResolveAttributePath(tag string, path *refpath.Path) (typedetails.TypeDetails, error) {
	cur := typedetails.TypeDetails{ItemType: typedetails.Object, ItemTag: tag}
	if path == nil {
		return cur, nil
	}
	for _, seg := range path.Segments() {
		name, ok := seg.(refpath.Name)
		if !ok {
			return typedetails.TypeDetails{}, fmt.Errorf("has a non-name path segment where an attribute name was expected")
		}
		if cur.ItemType != typedetails.Object && cur.ItemType != typedetails.Edge {
			return typedetails.TypeDetails{}, fmt.Errorf("cannot traverse into a scalar attribute")
		}
		attrs := g.AttributesFor(cur.ItemTag)
		attr, ok := attrs[string(name)]
		if !ok {
			return typedetails.TypeDetails{}, fmt.Errorf("has no attribute %q", string(name))
		}
		fieldType, _ := attr["field_type"].(string)
		next := typedetails.FromFieldTypeName(fieldType)
		if fieldType == "EDGE" || fieldType == "EDGE_COLLECTION" {
			next.ItemTag = AttributeObjectTypeTag(attr)
		}
		if cur.IsList && next.IsList {
			return typedetails.TypeDetails{}, fmt.Errorf("nested list types are not supported")
		}
		if cur.IsList {
			next.IsList = true
		}
		cur = next
	}
	return cur, nil
}

// PromiseObjectTypeTag returns the object-type tag an object promise
// declares, parsed from its object_type alias ref (object_types is a
// by-tag dictionary, so promises always reference it by alias).
func PromiseObjectTypeTag(promise map[string]any) string {
	s, _ := promise["object_type"].(string)
	r, err := refparser.Parse(s)
	if err != nil || r.Form != refparser.FormGlobalByAlias {
		return ""
	}
	return r.Alias
}

// AttributeObjectTypeTag returns the bare object-type tag an EDGE/
// EDGE_COLLECTION attribute definition's "object_type" ref names, parsed
// the same way PromiseObjectTypeTag parses a promise's own object_type
// field. Attribute definitions and promises both carry this field as an
// "object_type:{Tag}" alias ref (per the specs package's shared
// refSpec(spec.RefObjectType)), so both must be compared as parsed tags,
// never as raw ref strings.
func AttributeObjectTypeTag(attr map[string]any) string {
	s, _ := attr["object_type"].(string)
	r, err := refparser.Parse(s)
	if err != nil || r.Form != refparser.FormGlobalByAlias {
		return ""
	}
	return r.Alias
}

// PipelineFor looks up the pipeline populating a given object promise.
func (g *Graph) PipelineFor(promiseID int) (map[string]any, bool) {
	m, ok := g.pipelines[promiseID]
	return m, ok
}

// ReferencedCheckpoints reports which checkpoint ids have at least one
// dependent action or thread group, for the "checkpoint is never
// referenced" diagnostic.
func (g *Graph) ReferencedCheckpoints() map[int]bool {
	referenced := map[int]bool{}
	for id := range g.ActionsDependingOn {
		referenced[id] = true
	}
	for _, e := range g.checkpoints.byID {
		for _, dep := range dependencyRefs(e.value) {
			if dep.Form == refparser.FormGlobalByID && dep.Kind == refparser.KindCheckpoint {
				referenced[dep.ID] = true
			}
		}
	}
	return referenced
}

func dependencyRefs(checkpoint map[string]any) []refparser.Ref {
	var refs []refparser.Ref
	list, _ := checkpoint["dependencies"].([]any)
	for _, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if cpRef, ok := asRefString(m["checkpoint"]); ok {
			if r, err := refparser.Parse(cpRef); err == nil {
				refs = append(refs, r)
			}
		}
	}
	return refs
}
