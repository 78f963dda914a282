package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, Info, LevelFromVerbosity(0))
	assert.Equal(t, Debug, LevelFromVerbosity(1))
	assert.Equal(t, Trace, LevelFromVerbosity(2))
	assert.Equal(t, Trace, LevelFromVerbosity(5))
}

func TestInfoSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Info)
	l.Debugf("hidden")
	l.Infof("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestTraceEnablesEverything(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Trace)
	l.Infof("a")
	l.Debugf("b")
	l.Tracef("c")
	out := buf.String()
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "b")
	assert.Contains(t, out, "c")
}

func TestWithPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Info).With("splitter")
	l.Infof("picked define set")
	assert.Contains(t, buf.String(), "splitter")
}

func TestErrorfAlwaysWrites(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Info)
	l.Errorf("unit %s failed", "a.c")
	assert.Contains(t, buf.String(), "ERROR")
	assert.Contains(t, buf.String(), "a.c")
}

func TestNilWriterDisablesOutput(t *testing.T) {
	l := New(nil, Trace)
	assert.NotPanics(t, func() {
		l.Infof("x")
		l.Errorf("y")
	})
}
