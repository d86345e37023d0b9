package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON(t *testing.T) {
	tree, err := FromJSON(`{"standard": "1.0", "actions": [{"id": 0}]}`)
	require.NoError(t, err)
	m, ok := tree.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.0", m["standard"])
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON(`{not json`)
	assert.Error(t, err)
}

func TestFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"standard": "1.0"}`), 0o600))

	tree, err := FromFile(path)
	require.NoError(t, err)
	m, ok := tree.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.0", m["standard"])
}

func TestFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("standard: \"1.0\"\nparties:\n  - id: 0\n    name: Project\n"), 0o600))

	tree, err := FromFile(path)
	require.NoError(t, err)
	m, ok := tree.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.0", m["standard"])
	parties, ok := m["parties"].([]any)
	require.True(t, ok)
	require.Len(t, parties, 1)
	party := parties[0].(map[string]any)
	assert.Equal(t, "Project", party["name"])
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile("/nonexistent/path/to/doc.json")
	assert.Error(t, err)
}

func TestFromTree(t *testing.T) {
	in := map[string]any{"a": 1}
	assert.Equal(t, in, FromTree(in))
}
