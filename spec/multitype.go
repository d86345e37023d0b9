package spec

import (
	"github.com/flowspec/flowvalidate/internal/pathutil"
)

func (c *Context) walkMultiType(s MultiTypeSpec, value any, path *pathutil.PathBuilder) {
	if tryAny(c, s.Types, value, path) {
		return
	}
	c.AddError(path.String(), "value does not match any of the %d allowed types", len(s.Types))
}

// tryAny attempts each candidate spec against value using a scratch
// context so a rejecting candidate's diagnostics never leak into the
// caller; it commits no candidate's issues and only reports whether any
// candidate accepted the value.
func tryAny(c *Context, candidates []Spec, value any, path *pathutil.PathBuilder) bool {
	for _, candidate := range candidates {
		scratch := *c
		scratch.Issues = nil
		scratch.Walk(candidate, value, path)
		if len(scratch.Issues) == 0 {
			return true
		}
	}
	return false
}
