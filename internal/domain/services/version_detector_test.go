package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendoredVersionDetector_Detect(t *testing.T) {
	tests := []struct {
		name      string
		lib       string
		files     map[string]string // relative path -> content
		candidate []string          // relative candidate paths
		want      string
		heuristic string
	}{
		{
			name: "VERSION file in library root",
			lib:  "lua",
			files: map[string]string{
				"deps/lua/VERSION":     "5.3.0-rc1\nsecond line\n",
				"deps/lua/src/lapi.c":  "int x;\n",
				"deps/lua/src/lua.h":   `#define LUA_RELEASE "Lua 5.3.6"` + "\n",
			},
			candidate: []string{"deps/lua/src/lapi.c", "deps/lua/src/lua.h"},
			want:      "5.3.0",
			heuristic: "version-file",
		},
		{
			name: "RELEASE define",
			lib:  "lua",
			files: map[string]string{
				"deps/lua/src/lua.h": "/* Lua */\n#define LUA_VERSION \"Lua 5.1\"\n#define LUA_RELEASE \"Lua 5.1.5\"\n",
			},
			candidate: []string{"deps/lua/src/lua.h"},
			want:      "5.1.5",
			heuristic: "release-define",
		},
		{
			name: "prefixed major minor patch",
			lib:  "hiredis",
			files: map[string]string{
				"deps/hiredis/hiredis.h": "#define HIREDIS_MAJOR 1\n#define HIREDIS_MINOR 2\n#define HIREDIS_PATCH 0\n#define HIREDIS_SONAME 1.1.0\n",
			},
			candidate: []string{"deps/hiredis/hiredis.h"},
			want:      "1.2.0",
			heuristic: "major-minor-defines",
		},
		{
			name: "generic major minor ignores non-patch third component",
			lib:  "xxhash",
			files: map[string]string{
				"deps/xxhash/xxhash.h": "#define XXH_VERSION_MAJOR    0\n#define XXH_VERSION_MINOR    8\n#define XXH_VERSION_RELEASE  1\n",
			},
			candidate: []string{"deps/xxhash/xxhash.h"},
			want:      "0.8",
			heuristic: "major-minor-defines",
		},
		{
			name: "leading header comment",
			lib:  "linenoise",
			files: map[string]string{
				"deps/linenoise/linenoise.h": "/* linenoise.h -- VERSION 1.0\n *\n * Guerrilla line editing library.\n */\n#ifndef __LINENOISE_H\n",
				"deps/linenoise/linenoise.c": "/* VERSION 9.9 */\n",
			},
			candidate: []string{"deps/linenoise/linenoise.c", "deps/linenoise/linenoise.h"},
			want:      "1.0",
			heuristic: "header-comment",
		},
		{
			name: "VERSION must be a whole token",
			lib:  "ae",
			files: map[string]string{
				"deps/ae/ae.h": "/* ae event loop, LIBVERSION 1.2 */\n",
			},
			candidate: []string{"deps/ae/ae.h"},
			want:      "",
		},
		{
			name: "pkg-config template",
			lib:  "hiredis",
			files: map[string]string{
				"deps/hiredis/hiredis.c":     "int main(void) { return 0; }\n",
				"deps/hiredis/hiredis.pc.in": "prefix=@CMAKE_INSTALL_PREFIX@\nName: hiredis\nVersion: 1.2.0\n",
			},
			candidate: []string{"deps/hiredis/hiredis.c"},
			want:      "1.2.0",
			heuristic: "pkg-config",
		},
		{
			name: "unsubstituted pkg-config template",
			lib:  "jemalloc",
			files: map[string]string{
				"deps/jemalloc/src/jemalloc.c":  "\n",
				"deps/jemalloc/jemalloc.pc.in": "Version: @jemalloc_version@\n",
			},
			candidate: []string{"deps/jemalloc/src/jemalloc.c"},
			want:      "",
		},
		{
			name: "unrelated macros do not match",
			lib:  "fpconv",
			files: map[string]string{
				"deps/fpconv/fpconv.h": "#define LUA_RELEASE \"Lua 5.1.5\"\n#define OTHER_VERSION \"2.0\"\n",
			},
			candidate: []string{"deps/fpconv/fpconv.h"},
			want:      "",
		},
		{
			name:      "unreadable candidates",
			lib:       "ghost",
			files:     map[string]string{},
			candidate: []string{"deps/ghost/ghost.h", "deps/ghost/ghost.c"},
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for rel, content := range tt.files {
				writeFile(t, root, rel, content)
			}
			candidates := make([]string, 0, len(tt.candidate))
			for _, rel := range tt.candidate {
				candidates = append(candidates, filepath.Join(root, rel))
			}

			d := NewVendoredVersionDetector(osReader{})
			got, heuristic := d.DetectWithSource(tt.lib, candidates)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.heuristic, heuristic)
			assert.Equal(t, tt.want, d.Detect(tt.lib, candidates))
		})
	}
}

func TestVendoredVersionDetector_EmptyInput(t *testing.T) {
	d := NewVendoredVersionDetector(osReader{})
	assert.Empty(t, d.Detect("", []string{"/x.h"}))
	assert.Empty(t, d.Detect("lua", nil))
}

func TestVendoredVersionDetector_NilReader(t *testing.T) {
	d := NewVendoredVersionDetector(nil)
	v, heuristic := d.DetectWithSource("lua", []string{"/repos/redis/deps/lua/src/lua.h"})
	assert.Empty(t, v)
	assert.Empty(t, heuristic)
}

func TestVendoredVersionDetector_ReusesCompiledPatterns(t *testing.T) {
	root := t.TempDir()
	files := []string{
		writeFile(t, root, "deps/hiredis/hiredis.h", "#define HIREDIS_MAJOR 1\n#define HIREDIS_MINOR 2\n#define HIREDIS_PATCH 0\n"),
		writeFile(t, root, "deps/hiredis/read.h", "#define REDIS_READER_MAX_BUF 16\n"),
		writeFile(t, root, "deps/hiredis/sds.h", "#define SDS_MAX_PREALLOC 1024\n"),
	}
	d := NewVendoredVersionDetector(osReader{})

	require.Equal(t, "1.2.0", d.Detect("hiredis", files))
	compiled := d.patterns.Len()
	assert.Positive(t, compiled)

	require.Equal(t, "1.2.0", d.Detect("hiredis", files))
	assert.Equal(t, compiled, d.patterns.Len(), "a second run compiles nothing new")
}

func TestDefinePrefix(t *testing.T) {
	assert.Equal(t, "LUA", DefinePrefix("lua"))
	assert.Equal(t, "LUACJSON", DefinePrefix("lua-cjson"))
	assert.Equal(t, "HDRHISTOGRAM", DefinePrefix("hdr_histogram"))
	assert.Equal(t, "", DefinePrefix("--"))
}
