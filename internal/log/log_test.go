package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	t.Setenv(debugEnv, "")
	Debugf("hidden %d", 1)
	Debug("hidden")
	assert.Empty(t, buf.String())

	EnableDebug()
	assert.True(t, DebugEnabled())
	Debugf("shard %d", 7)
	assert.Contains(t, buf.String(), "shard 7")

	Errorf("failed: %s", "boom")
	assert.Contains(t, buf.String(), "failed: boom")
}
