// Package refpath provides a minimal dotted-path representation for
// reference traversal over object-type attributes and pipeline variables.
//
// A path like "line_items.0.unit_price" is parsed once into a [Path] of
// typed [Segment] values — [Name] for an attribute and [Index] for a list
// element — so resolvers walk a small typed slice instead of re-splitting
// a string at every traversal step.
//
// Supported syntax:
//   - field or .field (attribute access)
//   - .0 or [0] (list index)
//
// Not supported: wildcards, filter expressions, recursive descent — this
// package resolves a single concrete attribute chain, not a query.
package refpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step in a dotted path: either a [Name] or an [Index].
type Segment interface {
	segmentType() string
}

// Name selects an attribute by key.
type Name string

func (n Name) segmentType() string { return "name" }

// Index selects an element of a list by position.
type Index int

func (i Index) segmentType() string { return "index" }

// Path is a parsed dotted path, ready for repeated traversal.
type Path struct {
	raw      string
	segments []Segment
}

// String returns the original path text.
func (p *Path) String() string {
	return p.raw
}

// Segments returns the parsed segments in traversal order.
func (p *Path) Segments() []Segment {
	return p.segments
}

// Empty reports whether the path has no segments.
func (p *Path) Empty() bool {
	return len(p.segments) == 0
}

// Parse parses a dotted path expression into a [Path]. An empty string
// parses to a [Path] with zero segments, representing "no further
// traversal" — the common case for a bare ref with no trailing path.
//
// Examples:
//
//	Parse("")                     // no segments
//	Parse("name")                 // [Name("name")]
//	Parse("line_items.0.sku")     // [Name("line_items"), Index(0), Name("sku")]
//	Parse("line_items[0].sku")    // same, bracket form also accepted
func Parse(expr string) (*Path, error) {
	if expr == "" {
		return &Path{raw: expr}, nil
	}

	var segments []Segment
	for _, part := range splitPath(expr) {
		if part == "" {
			return nil, fmt.Errorf("refpath: empty segment in path %q", expr)
		}
		if n, err := strconv.Atoi(part); err == nil {
			segments = append(segments, Index(n))
			continue
		}
		segments = append(segments, Name(part))
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("refpath: path %q has no segments", expr)
	}

	return &Path{raw: expr, segments: segments}, nil
}

// splitPath normalizes bracket-index syntax to dot syntax, then splits on
// dots: "line_items[0].sku" -> ["line_items", "0", "sku"].
func splitPath(expr string) []string {
	normalized := strings.NewReplacer("[", ".", "]", "").Replace(expr)
	normalized = strings.TrimPrefix(normalized, ".")
	return strings.Split(normalized, ".")
}
