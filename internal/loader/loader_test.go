package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "FluidStyleguide.yaml", "FluidStyleguide:\n  ComponentContext: '|'\n")

	doc, err := New().Load(path)
	require.NoError(t, err)

	v, ok := doc.Lookup("FluidStyleguide", "ComponentContext")
	require.True(t, ok)
	assert.Equal(t, "|", v.String())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", "FluidStyleguide: [")

	_, err := New().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "present.yaml", "")

	l := New()
	assert.True(t, l.Exists(path))
	assert.False(t, l.Exists(filepath.Join(dir, "absent.yaml")))
	assert.False(t, l.Exists(dir), "directories are not documents")
}
