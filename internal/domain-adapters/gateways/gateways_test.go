package gateways

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/sbomgen/internal/domain/entities"
)

func TestChecksumSidecar(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "curl.spdx.json")
	require.NoError(t, os.WriteFile(testFile, []byte(`{"name":"curl"}`), 0600))

	verifier := NewChecksumVerifier()
	sum, err := verifier.CalculateChecksum(testFile)
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	sidecar, err := verifier.WriteSidecar(testFile)
	require.NoError(t, err)
	assert.Equal(t, testFile+ChecksumSuffix, sidecar)

	content, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	assert.Equal(t, sum+"  curl.spdx.json\n", string(content))

	t.Run("valid sidecar", func(t *testing.T) {
		assert.NoError(t, verifier.VerifySidecar(context.Background(), testFile))
	})

	t.Run("modified document", func(t *testing.T) {
		require.NoError(t, os.WriteFile(testFile, []byte(`{"name":"wget"}`), 0600))
		assert.Error(t, verifier.VerifySidecar(context.Background(), testFile))
	})

	t.Run("non-existent file", func(t *testing.T) {
		assert.Error(t, verifier.VerifyChecksum(context.Background(), "/nonexistent/file.json", sum))
	})
}

func TestDocumentWriter_WriteDocument(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "out", "curl.spdx.json")
	doc := &entities.Document{
		SPDXVersion: entities.SPDXVersion,
		SPDXID:      entities.SPDXDocumentID,
		Name:        "curl",
	}

	writer := NewDocumentWriter()
	require.NoError(t, writer.WriteDocument(context.Background(), doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"spdxVersion\""), "document is pretty-printed")

	var decoded entities.Document
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "curl", decoded.Name)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")

	sidecar, err := writer.WriteChecksum(path)
	require.NoError(t, err)
	assert.FileExists(t, sidecar)
}

func TestDocumentWriter_RemoveDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curl.spdx.json")
	writer := NewDocumentWriter()
	require.NoError(t, writer.WriteDocument(context.Background(), &entities.Document{Name: "curl"}, path))
	_, err := writer.WriteChecksum(path)
	require.NoError(t, err)

	require.NoError(t, writer.RemoveDocument(path))
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+ChecksumSuffix)

	assert.NoError(t, writer.RemoveDocument(path), "removing twice is fine")
}

func TestDocumentWriter_CanceledContextLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curl.spdx.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewDocumentWriter().WriteDocument(ctx, &entities.Document{Name: "curl"}, path)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestSourceReader_CachesReads(t *testing.T) {
	tmpDir := t.TempDir()
	header := filepath.Join(tmpDir, "lua.h")
	require.NoError(t, os.WriteFile(header, []byte(`#define LUA_RELEASE "Lua 5.1.5"`), 0600))

	reader := NewSourceReader(4)
	data, err := reader.ReadFile(header)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LUA_RELEASE")

	// Served from cache after the file is gone
	require.NoError(t, os.Remove(header))
	data, err = reader.ReadFile(header)
	require.NoError(t, err)
	assert.Contains(t, string(data), "5.1.5")
	assert.Equal(t, 1, reader.Len())

	_, err = reader.ReadFile(filepath.Join(tmpDir, "missing.h"))
	assert.Error(t, err)
	_, err = reader.ReadFile(tmpDir)
	assert.Error(t, err, "directories are not readable as sources")
}

func TestSourceReader_Glob(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "hiredis.pc.in"), []byte("Version: 1.2.0\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "hiredis.c"), []byte(""), 0600))

	matches, err := NewSourceReader(0).Glob(filepath.Join(tmpDir, "*.pc.in"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tmpDir, "hiredis.pc.in")}, matches)
}

func TestTargetFinder_FindTargets(t *testing.T) {
	metaDir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(metaDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	write("dynamic_libs.json", `{"binary": "/build/src/curl", "dynamic_libs": {}}`)
	write("libcurl/dynamic_libs.json", `{"binary": "/build/lib/.libs/libcurl.so", "dynamic_libs": {}}`)
	write("broken/dynamic_libs.json", `not json`)
	write("libcurl/notes.txt", `ignored`)

	targets, err := NewTargetFinder().FindTargets(metaDir, "/out")
	require.NoError(t, err)
	require.Len(t, targets, 3)

	assert.Equal(t, "broken", targets[0].Binary)
	assert.Equal(t, "curl", targets[1].Binary)
	assert.Equal(t, metaDir, targets[1].DynlibDir)
	assert.Equal(t, "libcurl.so", targets[2].Binary)
	assert.Equal(t, filepath.Join("/out", "libcurl.so.spdx.json"), targets[2].Output)
	assert.True(t, targets[2].IncludeVendored)
}

func TestTargetFinder_MissingDir(t *testing.T) {
	_, err := NewTargetFinder().FindTargets(filepath.Join(t.TempDir(), "nope"), "/out")
	assert.Error(t, err)
}
