package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger(&out, &errOut, "voxgrid", false)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	l.Infof("info")
	l.Warnf("careful")
	l.Errorf("broken")

	assert.Contains(t, out.String(), "[voxgrid] DEBUG: shown 2")
	assert.Contains(t, out.String(), "[voxgrid] INFO: info")
	assert.NotContains(t, out.String(), "WARN")
	assert.Contains(t, errOut.String(), "[voxgrid] WARN: careful")
	assert.Contains(t, errOut.String(), "[voxgrid] ERROR: broken")
}

func TestNamedLoggerSharesDebugSwitch(t *testing.T) {
	var out bytes.Buffer
	root := NewWriterLogger(&out, &out, "voxgrid", false)
	child := root.Named("renderer")

	root.SetDebug(true)
	assert.True(t, child.DebugEnabled())

	child.Debugf("init")
	assert.Contains(t, out.String(), "[voxgrid/renderer] DEBUG: init")

	unprefixed := NewWriterLogger(&out, &out, "", false).Named("gl")
	unprefixed.Infof("ready")
	assert.Contains(t, out.String(), "[gl] INFO: ready")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	assert.NotPanics(t, func() { l.Errorf("x %d", 1) })
}
