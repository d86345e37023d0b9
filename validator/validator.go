// Package validator orchestrates a full workflow document validation:
// load the document, index it into a graph, structurally walk it against
// the spec catalog, then run the semantic passes (cycle detection, thread
// group scoping, pipeline variable tracking) that the generic spec walk
// can't express on its own.
package validator

import (
	"fmt"
	"time"

	"github.com/flowspec/flowvalidate/actionop"
	"github.com/flowspec/flowvalidate/ancestry"
	"github.com/flowspec/flowvalidate/document"
	"github.com/flowspec/flowvalidate/graph"
	"github.com/flowspec/flowvalidate/internal/issues"
	"github.com/flowspec/flowvalidate/internal/pathutil"
	"github.com/flowspec/flowvalidate/internal/refpath"
	"github.com/flowspec/flowvalidate/internal/severity"
	"github.com/flowspec/flowvalidate/pipeline"
	"github.com/flowspec/flowvalidate/refparser"
	"github.com/flowspec/flowvalidate/spec"
	"github.com/flowspec/flowvalidate/specs"
	"github.com/flowspec/flowvalidate/threadgroup"
	"github.com/flowspec/flowvalidate/typedetails"
)

// Result is the outcome of validating one workflow document.
type Result struct {
	// Valid is true if no errors were found (warnings are allowed).
	Valid bool
	// Errors contains all validation errors.
	Errors []issues.Issue
	// Warnings contains all validation warnings.
	Warnings []issues.Issue
	// LoadTime is the time taken to load and decode the source document.
	LoadTime time.Duration
	// Summary counts each top-level entity collection the document
	// declares (parties, object_types, object_promises, actions,
	// checkpoints, thread_groups), keyed by collection name.
	Summary map[string]int
}

// allIssues returns errors followed by warnings, the order diagnostics
// are rendered in.
func (r *Result) allIssues() []issues.Issue {
	out := make([]issues.Issue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	out = append(out, r.Warnings...)
	return out
}

// Validator runs document validation with a fixed configuration.
type Validator struct {
	// IncludeWarnings determines whether advisory diagnostics (unused
	// pipeline variables, unreferenced thread groups, use-before-assign)
	// are included in the result.
	IncludeWarnings bool
}

// New creates a Validator with default settings.
func New() *Validator {
	return &Validator{IncludeWarnings: true}
}

// Validate loads the document at path (JSON or YAML, by extension) and
// validates it.
func (v *Validator) Validate(path string) (*Result, error) {
	start := time.Now()
	tree, err := document.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	loadTime := time.Since(start)
	return v.ValidateDocument(tree, loadTime)
}

// ValidateDocument validates an already-decoded document tree.
func (v *Validator) ValidateDocument(tree any, loadTime time.Duration) (*Result, error) {
	root, ok := tree.(map[string]any)
	if !ok {
		return &Result{
			Valid:    false,
			Errors:   []issues.Issue{{Path: "root", Message: "document root must be an object", Severity: severity.SeverityError}},
			LoadTime: loadTime,
		}, nil
	}

	g := graph.Build(root)
	catalog := specs.Catalog()
	ctx := spec.NewContext(catalog, g)

	path := pathutil.Get()
	defer pathutil.Put(path)
	path.Push("root")
	ctx.Walk(spec.SpecByName{ObjSpecName: "root"}, root, path)

	found := append([]issues.Issue{}, ctx.Issues...)
	found = append(found, ancestry.DetectCycles(g)...)
	found = append(found, threadgroup.ValidateSpawnSources(g, resolverFor(g, ctx))...)
	found = append(found, threadgroup.ValidateReferenced(g)...)
	found = append(found, threadgroup.ValidateSpawnCollisions(g)...)
	found = append(found, pipeline.Validate(g)...)
	found = append(found, actionop.Validate(g)...)

	result := &Result{
		LoadTime: loadTime,
		Summary: map[string]int{
			"parties":         len(g.PartyIDs()),
			"object_types":    len(g.ObjectTypeTags()),
			"object_promises": len(g.ObjectPromiseIDs()),
			"actions":         len(g.ActionIDs()),
			"checkpoints":     len(g.CheckpointIDs()),
			"thread_groups":   len(g.ThreadGroupIDs()),
		},
	}
	for _, i := range found {
		if i.IsError() {
			result.Errors = append(result.Errors, i)
		} else if v.IncludeWarnings {
			result.Warnings = append(result.Warnings, i)
		}
	}
	result.Valid = len(result.Errors) == 0
	return result, nil
}

// resolverFor adapts a $variable/ref string to a TypeDetails lookup for
// spawn.foreach validation. Only a global object_promise reference into
// one of its object type's own attributes is type-resolved here; a
// thread-group or pipeline variable's type depends on the chain of
// enclosing spawns that bound it, which this implementation does not
// flow-type, so those are reported as unresolvable (a documented
// simplification, not a silent pass).
func resolverFor(g *graph.Graph, ctx *spec.Context) func(string) (typedetails.TypeDetails, error) {
	return func(raw string) (typedetails.TypeDetails, error) {
		r, err := refparser.Parse(raw)
		if err != nil {
			return typedetails.TypeDetails{}, err
		}
		if !r.IsGlobal() || r.Kind != refparser.KindObjectPromise {
			return typedetails.TypeDetails{}, fmt.Errorf("is not defined in this scope")
		}

		var promise map[string]any
		var ok bool
		if r.Form == refparser.FormGlobalByID {
			promise, ok = g.ObjectPromise(r.ID)
		} else {
			for _, id := range g.ObjectPromiseIDs() {
				p, _ := g.ObjectPromise(id)
				if p["name"] == r.Alias {
					promise, ok = p, true
					break
				}
			}
		}
		if !ok {
			return typedetails.TypeDetails{}, fmt.Errorf("does not resolve to a known object promise")
		}

		tag, _ := promise["object_type"].(string)
		tagRef, err := refparser.Parse(tag)
		if err != nil {
			return typedetails.TypeDetails{}, fmt.Errorf("has no resolvable object type")
		}
		attrs, ok := g.ObjectType(tagRef.Alias)
		if !ok {
			return typedetails.TypeDetails{}, fmt.Errorf("names an unknown object type")
		}

		segs := r.Path.Segments()
		if len(segs) == 0 {
			return typedetails.TypeDetails{}, fmt.Errorf("must name a specific attribute to use as a spawn source")
		}
		name, ok := segs[0].(refpath.Name)
		if !ok {
			return typedetails.TypeDetails{}, fmt.Errorf("has a non-name path segment")
		}
		attr, ok := attrs[string(name)].(map[string]any)
		if !ok {
			return typedetails.TypeDetails{}, fmt.Errorf("has no attribute %q", name)
		}
		fieldType, _ := attr["field_type"].(string)
		return typedetails.FromFieldTypeName(fieldType), nil
	}
}
