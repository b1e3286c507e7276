package gateways

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSourceCacheSize bounds how many source files a reader keeps in memory
const DefaultSourceCacheSize = 512

// maxSourceFileSize skips generated blobs that no version heuristic needs
const maxSourceFileSize = 4 * 1024 * 1024

type cachedRead struct {
	data []byte
	err  error
}

// cachedSourceReader reads project sources from disk, memoizing hits and misses.
// The vendored splitter and the version detector read the same headers repeatedly.
type cachedSourceReader struct {
	cache *lru.Cache[string, cachedRead]
}

// NewSourceReader creates a reader caching up to size files; size < 1 uses the default
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewSourceReader(size int) *cachedSourceReader {
	if size < 1 {
		size = DefaultSourceCacheSize
	}
	cache, err := lru.New[string, cachedRead](size)
	if err != nil {
		// only reachable with a non-positive size, excluded above
		panic(err)
	}
	return &cachedSourceReader{cache: cache}
}

// ReadFile returns the file contents; errors are cached too
func (r *cachedSourceReader) ReadFile(path string) ([]byte, error) {
	if hit, ok := r.cache.Get(path); ok {
		return hit.data, hit.err
	}
	data, err := readSource(path)
	r.cache.Add(path, cachedRead{data: data, err: err})
	return data, err
}

// Glob lists files matching pattern
func (r *cachedSourceReader) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// Len returns the number of cached entries
func (r *cachedSourceReader) Len() int {
	return r.cache.Len()
}

func readSource(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxSourceFileSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, maxSourceFileSize)
	}
	//nolint:gosec // G304: paths come from the provenance graph of the traced build
	return os.ReadFile(path)
}
