// Package refparser parses the five reference forms a workflow document
// can use to point at another entity: global-by-id, global-by-alias,
// pipeline/thread variable, local variable, and filter-item refs, each
// with an optional trailing dotted path handled by [refpath].
package refparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flowspec/flowvalidate/internal/refpath"
)

// Kind is the namespace a global ref (by id or alias) is looked up in.
type Kind string

const (
	KindAction      Kind = "action"
	KindObjectPromise Kind = "object_promise"
	KindCheckpoint  Kind = "checkpoint"
	KindThreadGroup Kind = "thread_group"
	KindParty       Kind = "party"
	KindObjectType  Kind = "object_type"
)

// Form identifies which of the five ref syntaxes was parsed.
type Form int

const (
	// FormGlobalByID is "kind:<integer>".
	FormGlobalByID Form = iota
	// FormGlobalByAlias is "kind:{<alias>}".
	FormGlobalByAlias
	// FormVariable is "$name[.path]", a pipeline or thread variable.
	FormVariable
	// FormLocal is "$_name[.path]" where name is "object" or "party".
	FormLocal
	// FormFilterItem is "$_item[.path]", the filter loop variable.
	FormFilterItem
)

// Ref is a parsed reference, resolved form and trailing path kept
// separate from the identifying token so a resolver never re-parses.
type Ref struct {
	Raw   string
	Form  Form
	Kind  Kind   // set only for FormGlobalByID / FormGlobalByAlias
	ID    int    // set only for FormGlobalByID
	Alias string // set only for FormGlobalByAlias
	Name  string // variable name for FormVariable/FormLocal (without "$" or "$_")
	Path  *refpath.Path
}

// IsGlobal reports whether this ref names an entity by (kind, id|alias).
func (r Ref) IsGlobal() bool {
	return r.Form == FormGlobalByID || r.Form == FormGlobalByAlias
}

// Parse parses a raw ref string into its form, identifying token, and
// trailing dotted path.
func Parse(raw string) (Ref, error) {
	if raw == "" {
		return Ref{}, fmt.Errorf("refparser: empty ref")
	}
	if strings.HasPrefix(raw, "$") {
		return parseVariableForm(raw)
	}
	return parseGlobalForm(raw)
}

func parseGlobalForm(raw string) (Ref, error) {
	colon := strings.IndexByte(raw, ':')
	if colon < 0 {
		return Ref{}, fmt.Errorf("refparser: %q is not a valid ref (missing ':')", raw)
	}
	kind := Kind(raw[:colon])
	rest := raw[colon+1:]

	if strings.HasPrefix(rest, "{") {
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return Ref{}, fmt.Errorf("refparser: %q has an unterminated alias", raw)
		}
		alias := rest[1:end]
		if alias == "" {
			return Ref{}, fmt.Errorf("refparser: %q has an empty alias", raw)
		}
		path, err := parseTrailingPath(raw, rest[end+1:])
		if err != nil {
			return Ref{}, err
		}
		return Ref{Raw: raw, Form: FormGlobalByAlias, Kind: kind, Alias: alias, Path: path}, nil
	}

	idText, pathText, _ := strings.Cut(rest, ".")
	id, err := strconv.Atoi(idText)
	if err != nil {
		return Ref{}, fmt.Errorf("refparser: %q does not have a valid integer id: %w", raw, err)
	}
	path, err := refpath.Parse(pathText)
	if err != nil {
		return Ref{}, fmt.Errorf("refparser: %q has an invalid path: %w", raw, err)
	}
	return Ref{Raw: raw, Form: FormGlobalByID, Kind: kind, ID: id, Path: path}, nil
}

// parseTrailingPath requires rest to be empty or start with '.'.
func parseTrailingPath(raw, rest string) (*refpath.Path, error) {
	if rest == "" {
		p, _ := refpath.Parse("")
		return p, nil
	}
	if !strings.HasPrefix(rest, ".") {
		return nil, fmt.Errorf("refparser: %q has trailing characters after the alias", raw)
	}
	return refpath.Parse(rest[1:])
}

func parseVariableForm(raw string) (Ref, error) {
	body := raw[1:] // drop leading "$"
	nameText, pathText, _ := strings.Cut(body, ".")
	if nameText == "" {
		return Ref{}, fmt.Errorf("refparser: %q has an empty variable name", raw)
	}
	path, err := refpath.Parse(pathText)
	if err != nil {
		return Ref{}, fmt.Errorf("refparser: %q has an invalid path: %w", raw, err)
	}

	if !strings.HasPrefix(nameText, "_") {
		return Ref{Raw: raw, Form: FormVariable, Name: nameText, Path: path}, nil
	}

	localName := strings.TrimPrefix(nameText, "_")
	if localName == "item" {
		return Ref{Raw: raw, Form: FormFilterItem, Name: localName, Path: path}, nil
	}
	return Ref{Raw: raw, Form: FormLocal, Name: localName, Path: path}, nil
}
