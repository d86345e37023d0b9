// Package document loads a workflow document into the untyped tree the
// spec interpreter walks: nested map[string]any / []any / string / float64
// / bool / nil, the same shape JSON decoding produces. The loader itself
// never parses the workflow's own semantics — it only gets bytes into a
// tree.
package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowspec/flowvalidate/internal/pathutil"
	yaml "go.yaml.in/yaml/v4"
)

// FromTree wraps an already-decoded tree, the form most callers embedding
// this module will use directly.
func FromTree(tree any) any {
	return tree
}

// FromJSON decodes a JSON-serialized document string into the untyped tree.
func FromJSON(raw string) (any, error) {
	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, fmt.Errorf("document: invalid JSON: %w", err)
	}
	return normalize(tree), nil
}

// FromString decodes inline document content of unknown format: JSON is
// tried first, and YAML (a superset of JSON syntax) is tried as a
// fallback so plain YAML content still decodes.
func FromString(raw string) (any, error) {
	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err == nil {
		return normalize(tree), nil
	}
	if err := yaml.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, fmt.Errorf("document: invalid JSON/YAML content: %w", err)
	}
	return normalize(tree), nil
}

// FromFile reads a document from disk, decoding as YAML or JSON based on
// the file extension (.yaml/.yml use YAML, everything else is treated as
// JSON).
func FromFile(path string) (any, error) {
	safe, err := pathutil.SanitizePath(path)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}

	raw, err := os.ReadFile(safe)
	if err != nil {
		return nil, fmt.Errorf("document: cannot read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(safe))
	if ext == ".yaml" || ext == ".yml" {
		var tree any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("document: invalid YAML in %s: %w", path, err)
		}
		return normalize(tree), nil
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("document: invalid JSON in %s: %w", path, err)
	}
	return normalize(tree), nil
}

// normalize walks a decoded tree converting any map[any]any produced by a
// YAML decoder into map[string]any, and any integer-keyed map into the
// same, so the spec interpreter only ever sees map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}
