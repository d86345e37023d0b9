package spec

import (
	"github.com/flowspec/flowvalidate/internal/pathutil"
)

func (c *Context) walkRef(s RefSpec, value any, path *pathutil.PathBuilder) {
	raw, ok := value.(string)
	if !ok {
		c.AddError(path.String(), "expected a reference string, got %s", describeKind(value))
		return
	}

	if c.Resolver == nil {
		c.AddError(path.String(), "internal error: no reference resolver configured")
		return
	}

	if err := c.Resolver.Resolve(raw, s.RefTypes); err != nil {
		c.AddError(path.String(), "%s", err.Error())
		return
	}

	if s.ExpectedValue != nil && s.ExpectedValue.EqualsPath != "" {
		equal, err := c.Resolver.EqualsPath(raw, s.ExpectedValue.EqualsPath)
		if err != nil {
			c.AddError(path.String(), "%s", err.Error())
			return
		}
		if !equal {
			c.AddError(path.String(), "reference %q does not match the expected value at %s", raw, s.ExpectedValue.EqualsPath)
		}
	}
}
