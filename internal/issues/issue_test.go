package issues

import (
	"testing"

	"github.com/flowspec/flowvalidate/internal/severity"
	"github.com/stretchr/testify/assert"
)

func TestIssueString(t *testing.T) {
	tests := []struct {
		name     string
		issue    Issue
		expected string
	}{
		{
			name: "error with no action context",
			issue: Issue{
				Path:     "root.parties",
				Message:  "missing required property: id",
				Severity: severity.SeverityError,
			},
			expected: "root.parties: missing required property: id",
		},
		{
			name: "error with action context",
			issue: Issue{
				Path:          "root.actions[0].operation",
				Message:       "exactly one of include or exclude must be specified",
				Severity:      severity.SeverityError,
				ActionContext: "3",
			},
			expected: "root.actions[0].operation (action id: 3): exactly one of include or exclude must be specified",
		},
		{
			name: "warning carries the same shape as an error",
			issue: Issue{
				Path:     "root.actions[0].pipeline.variables[0]",
				Message:  "variable \"$x\" is never used",
				Severity: severity.SeverityWarning,
			},
			expected: "root.actions[0].pipeline.variables[0]: variable \"$x\" is never used",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.issue.String())
		})
	}
}

func TestIssueIsError(t *testing.T) {
	assert.True(t, Issue{Severity: severity.SeverityError}.IsError())
	assert.False(t, Issue{Severity: severity.SeverityWarning}.IsError())
}
