package spec

import (
	"fmt"

	"github.com/flowspec/flowvalidate/internal/issues"
	"github.com/flowspec/flowvalidate/internal/pathutil"
	"github.com/flowspec/flowvalidate/internal/severity"
	"github.com/flowspec/flowvalidate/refparser"
)

// maxDocumentDepth bounds recursive descent so a pathological document
// fails with one diagnostic instead of a stack overflow.
const maxDocumentDepth = 200

// Resolver lets the Ref spec kind validate against the document's
// cross-reference graph without the spec package importing it.
// graph.Graph implements this.
type Resolver interface {
	// Resolve parses and looks up ref, reporting whether it resolves to
	// an entity whose kind is among allowed, plus an error message
	// suitable for a diagnostic when it does not.
	Resolve(raw string, allowed []RefType) error
	// EqualsPath resolves the ref string and the value at documentPath
	// (dotted, relative to root) and reports whether they name the same
	// entity.
	EqualsPath(raw, documentPath string) (bool, error)
}

// ValidationFunc is a named, attachable object-level check invoked after
// structural validation has passed.
type ValidationFunc func(ctx *Context, value map[string]any, path *pathutil.PathBuilder) []issues.Issue

// Context carries everything a walk needs beyond the spec/value pair:
// the named spec catalog, the issue sink, the action-context stack used
// to render "(action id: N)" suffixes, the ref resolver, and the
// validation function registry.
type Context struct {
	Catalog          map[string]Spec
	Resolver         Resolver
	ValidationFuncs  map[string]ValidationFunc
	Issues           []issues.Issue
	actionContextIDs []string
	depth            int
}

// NewContext builds a walk context over the given spec catalog.
func NewContext(catalog map[string]Spec, resolver Resolver) *Context {
	return &Context{
		Catalog:         catalog,
		Resolver:        resolver,
		ValidationFuncs: make(map[string]ValidationFunc),
	}
}

// PushActionContext marks that the walk has entered the given action's
// subtree, so issues raised underneath it carry an "(action id: N)"
// suffix.
func (c *Context) PushActionContext(actionID string) {
	c.actionContextIDs = append(c.actionContextIDs, actionID)
}

// PopActionContext leaves the innermost action's subtree.
func (c *Context) PopActionContext() {
	if len(c.actionContextIDs) > 0 {
		c.actionContextIDs = c.actionContextIDs[:len(c.actionContextIDs)-1]
	}
}

func (c *Context) currentActionContext() string {
	if len(c.actionContextIDs) == 0 {
		return ""
	}
	return c.actionContextIDs[len(c.actionContextIDs)-1]
}

// AddError records a structural/reference/type error at path.
func (c *Context) AddError(path string, format string, args ...any) {
	c.Issues = append(c.Issues, issues.Issue{
		Path:          path,
		Message:       fmt.Sprintf(format, args...),
		Severity:      severity.SeverityError,
		ActionContext: c.currentActionContext(),
	})
}

// AddWarning records an advisory diagnostic at path.
func (c *Context) AddWarning(path string, format string, args ...any) {
	c.Issues = append(c.Issues, issues.Issue{
		Path:          path,
		Message:       fmt.Sprintf(format, args...),
		Severity:      severity.SeverityWarning,
		ActionContext: c.currentActionContext(),
	})
}

// enterDepth increments the recursion guard, reporting false (and a
// single diagnostic) when the document nests too deep to continue.
func (c *Context) enterDepth(path string) bool {
	c.depth++
	if c.depth > maxDocumentDepth {
		c.AddError(path, "document nesting exceeds maximum depth of %d", maxDocumentDepth)
		return false
	}
	return true
}

func (c *Context) leaveDepth() {
	c.depth--
}

// MatchesRefType reports whether a parsed ref matches one of the allowed
// kind names, covering the local/filter pseudo-kinds alongside the four
// global-ref kinds and party. Exported for use by Resolver
// implementations outside this package.
func MatchesRefType(r refparser.Ref, allowed []RefType) bool {
	for _, a := range allowed {
		switch a {
		case RefLocalRef:
			if r.Form == refparser.FormLocal {
				return true
			}
		case RefFilterRef:
			if r.Form == refparser.FormFilterItem {
				return true
			}
		case RefAction, RefObjectPromise, RefCheckpoint, RefThreadGroup, RefParty, RefObjectType:
			if r.IsGlobal() && string(r.Kind) == string(a) {
				return true
			}
		}
	}
	return false
}
