package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// osReader reads straight from disk without caching
type osReader struct{}

func (osReader) ReadFile(path string) ([]byte, error) {
	//nolint:gosec // G304: test fixture paths
	return os.ReadFile(path)
}

func (osReader) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// writeFile creates root/rel with content and returns the absolute path
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
