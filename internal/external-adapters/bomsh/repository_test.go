package bomsh

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/sbomgen/internal/domain/entities"
)

func writeMeta(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

func TestRepository_LoadProvenanceGraph(t *testing.T) {
	bomDir := t.TempDir()
	writeMeta(t, filepath.Join(bomDir, "metadata", "bomsh"), TreeDBFile, `{
  "bbbb": {"file_path": "/repos/curl/src/tool_main.o", "build_cmd": "gcc -c tool_main.c"},
  "aaaa": {"file_path": "/repos/curl/src/tool_main.c"},
  "cccc": "not an object",
  "dddd": {}
}`)

	records, err := NewRepository(bomDir, nil).LoadProvenanceGraph(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, entities.ArtifactRecord{ContentHash: "aaaa", FilePath: "/repos/curl/src/tool_main.c"}, records[0])
	assert.Equal(t, "gcc -c tool_main.c", records[1].BuildCommand)
	assert.Equal(t, "dddd", records[2].ContentHash)
	assert.Empty(t, records[2].FilePath)
}

func TestRepository_LoadProvenanceGraph_Missing(t *testing.T) {
	_, err := NewRepository(t.TempDir(), nil).LoadProvenanceGraph(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestRepository_LoadDocumentMapping(t *testing.T) {
	bomDir := t.TempDir()
	repo := NewRepository(bomDir, nil)

	mapping, err := repo.LoadDocumentMapping(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mapping, "missing mapping is not an error")

	writeMeta(t, filepath.Join(bomDir, "metadata", "bomsh"), DocMappingFile, `{"aaaa": "1111", "bbbb": 7, "cccc": ""}`)
	mapping, err = repo.LoadDocumentMapping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"aaaa": "1111"}, mapping)
}

func TestRepository_LoadBuildOutputHashes(t *testing.T) {
	bomDir := t.TempDir()
	repo := NewRepository(bomDir, nil)

	hashes, err := repo.LoadBuildOutputHashes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, hashes)

	writeMeta(t, filepath.Join(bomDir, "metadata", "bomsh"), RawLogFile,
		"build_cmd: gcc -o curl\n"+
			"outfile: 0123456789abcdef0123456789abcdef01234567 path: /repos/curl/src/curl\n"+
			"outfile: short path: /repos/curl/src/ignored\n")
	hashes, err = repo.LoadBuildOutputHashes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/repos/curl/src/curl": "0123456789abcdef0123456789abcdef01234567"}, hashes)
}

func TestRepository_LoadBuildEnvironment(t *testing.T) {
	tests := []struct {
		name string
		json string
		want entities.BuildEnvironment
	}{
		{
			name: "complete",
			json: `{"distro": "Ubuntu 22.04.4 LTS", "gcc_version": "gcc (Ubuntu 11.4.0) 11.4.0", "project_version": "7.2.4"}`,
			want: entities.BuildEnvironment{Distro: "Ubuntu 22.04.4 LTS", CompilerBanner: "gcc (Ubuntu 11.4.0) 11.4.0", ProjectVersion: "7.2.4"},
		},
		{
			name: "legacy curl_version",
			json: `{"distro": "Debian 12", "curl_version": "8.5.0"}`,
			want: entities.BuildEnvironment{Distro: "Debian 12", CompilerBanner: "unknown", ProjectVersion: "8.5.0"},
		},
		{
			name: "empty",
			json: `{}`,
			want: entities.BuildEnvironment{Distro: "unknown", CompilerBanner: "unknown"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bomDir := t.TempDir()
			writeMeta(t, filepath.Join(bomDir, "metadata"), ComponentMetadataFile, tt.json)

			env, err := NewRepository(bomDir, nil).LoadBuildEnvironment(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, *env)
		})
	}
}

func TestRepository_LoadBuildEnvironment_Errors(t *testing.T) {
	bomDir := t.TempDir()
	repo := NewRepository(bomDir, nil)

	_, err := repo.LoadBuildEnvironment(context.Background())
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	writeMeta(t, filepath.Join(bomDir, "metadata"), ComponentMetadataFile, `{"distro": `)
	_, err = repo.LoadBuildEnvironment(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse component metadata")
}

const dynamicLibsJSON = `{
  "binary": "/repos/curl/src/.libs/curl",
  "direct_needed": ["libcurl.so.4", "libz.so.1"],
  "dynamic_libs": {
    "libz.so.1": {
      "path": "/lib/x86_64-linux-gnu/libz.so.1",
      "real_path": "/usr/lib/x86_64-linux-gnu/libz.so.1.2.11",
      "direct": true,
      "dpkg_package": "zlib1g",
      "source": "zlib",
      "metadata": {"Package": "zlib1g", "Version": "1:1.2.11.dfsg-2ubuntu9.2", "Architecture": "amd64"}
    },
    "libbroken.so": 42,
    "libcrypto.so.3": {
      "direct": false,
      "dpkg_package": "libssl3",
      "metadata": {"Source": "openssl", "Version": "3.0.2-0ubuntu1.21"}
    }
  }
}`

func TestRepository_LoadDynamicLibraries(t *testing.T) {
	bomDir := t.TempDir()
	writeMeta(t, filepath.Join(bomDir, "metadata"), DynamicLibsFile, dynamicLibsJSON)

	libs, err := NewRepository(bomDir, nil).LoadDynamicLibraries(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "/repos/curl/src/.libs/curl", libs.Binary)
	assert.Equal(t, []string{"libcurl.so.4", "libz.so.1"}, libs.DirectNeeded)
	require.Len(t, libs.Libraries, 2, "undecodable entries are skipped")

	crypto := libs.Libraries[0]
	assert.Equal(t, "libcrypto.so.3", crypto.Soname)
	assert.False(t, crypto.Direct)
	assert.Equal(t, "openssl", crypto.Metadata.Source)

	zlib := libs.Libraries[1]
	assert.Equal(t, "libz.so.1", zlib.Soname)
	assert.True(t, zlib.Direct)
	assert.Equal(t, "zlib", zlib.Source)
	assert.Equal(t, "1:1.2.11.dfsg-2ubuntu9.2", zlib.Metadata.Version)
	assert.Equal(t, "/usr/lib/x86_64-linux-gnu/libz.so.1.2.11", zlib.RealPath)
}

func TestRepository_LoadDynamicLibraries_PerBinaryDir(t *testing.T) {
	bomDir := t.TempDir()
	libDir := filepath.Join(t.TempDir(), "libcurl")
	writeMeta(t, libDir, DynamicLibsFile, `{"binary": "libcurl.so.4", "dynamic_libs": {}}`)
	repo := NewRepository(bomDir, nil)

	libs, err := repo.LoadDynamicLibraries(context.Background(), libDir)
	require.NoError(t, err)
	assert.Equal(t, "libcurl.so.4", libs.Binary)
	assert.Empty(t, libs.Libraries)

	_, err = repo.LoadDynamicLibraries(context.Background(), "")
	assert.True(t, errors.Is(err, fs.ErrNotExist), "default dir has no metadata")
}
