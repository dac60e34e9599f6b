package flog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/katalvlaran/forest/internal/flog"
	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := flog.New(flog.LevelWarn, &buf)
	l.Info("should not appear")
	l.Warn("should appear %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear 1")
	assert.Contains(t, out, "[WARN]")
}

func TestWithAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	l := flog.New(flog.LevelDebug, &buf).With("tree", 3)
	l.Debug("hello")
	assert.True(t, strings.Contains(buf.String(), "tree=3"))
}

func TestNullLoggerDiscards(t *testing.T) {
	var n flog.Null
	assert.NotPanics(t, func() {
		n.Debug("x")
		n.With("k", "v").Info("y")
	})
}
