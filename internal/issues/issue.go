// Package issues provides a unified diagnostic type for the workflow
// document validator.
package issues

import (
	"fmt"

	"github.com/flowspec/flowvalidate/internal/severity"
)

// Issue represents a single problem found while validating a workflow
// document.
type Issue struct {
	// Path is the dotted path to the problematic field, e.g.
	// "root.actions[0].operation".
	Path string
	// Message is a human-readable description of the problem.
	Message string
	// Severity indicates whether this is an error or a warning.
	Severity severity.Severity
	// ActionContext names the innermost action containing this node, when
	// one exists, so the rendered diagnostic can carry a "(action id: N)"
	// suffix. Empty when the node is not inside an action.
	ActionContext string
}

// String renders the issue as the dotted path, an optional
// "(action id: N)" suffix, and the message.
func (i Issue) String() string {
	if i.ActionContext != "" {
		return fmt.Sprintf("%s (action id: %s): %s", i.Path, i.ActionContext, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// IsError reports whether this issue is an error (as opposed to a warning).
func (i Issue) IsError() bool {
	return i.Severity == severity.SeverityError
}
