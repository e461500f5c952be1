package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuffer(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return &buf
}

func TestDebug_VerboseOff(t *testing.T) {
	buf := withBuffer(t)
	SetVerbose(false)
	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())
}

func TestDebug_VerboseOn(t *testing.T) {
	buf := withBuffer(t)
	SetVerbose(true)
	Debug("visible %d", 2)
	assert.Contains(t, buf.String(), "[DEBUG] visible 2")
}

func TestError_AlwaysPrinted(t *testing.T) {
	buf := withBuffer(t)
	SetVerbose(false)
	Error("lost %s", "work")
	assert.Contains(t, buf.String(), "[ERROR] lost work")
}

func TestIsVerbose(t *testing.T) {
	withBuffer(t)
	SetVerbose(true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}
