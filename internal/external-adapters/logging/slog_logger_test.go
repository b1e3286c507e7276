package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/sbomgen/internal/domain/interfaces"
)

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, false)

	logger.Debug("hidden", interfaces.F("k", 1))
	logger.Info("document written", interfaces.F("path", "out/curl.spdx.json"), interfaces.F("files", 3))
	logger.Error("target failed", interfaces.F("error", errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"document written\"")
	assert.Contains(t, out, "path=out/curl.spdx.json")
	assert.Contains(t, out, "files=3")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")
}

func TestSlogLogger_Verbose(t *testing.T) {
	var buf bytes.Buffer
	NewSlogLogger(&buf, true).Debug("skipping record", interfaces.F("hash", "abc"))

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "hash=abc")
}
