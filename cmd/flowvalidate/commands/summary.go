package commands

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// summaryOrder fixes the display order of the validator.Result.Summary
// counts, since map iteration order is not stable.
var summaryOrder = []string{
	"parties",
	"object_types",
	"object_promises",
	"actions",
	"checkpoints",
	"thread_groups",
}

// titleCaser renders a snake_case collection name as a display label, the
// same Unicode-correct title casing used for generated identifiers
// elsewhere in this stack (strings.Title is deprecated and mishandles
// non-ASCII names).
var titleCaser = cases.Title(language.English)

// FormatSummaryLine renders a document's entity counts as a single
// "Label: N" line per collection, in a fixed order, skipping empty
// collections so a document with no thread groups doesn't print one.
func FormatSummaryLine(summary map[string]int) string {
	var parts []string
	for _, key := range summaryOrder {
		count, ok := summary[key]
		if !ok || count == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", displayLabel(key), count))
	}
	return strings.Join(parts, ", ")
}

func displayLabel(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}
