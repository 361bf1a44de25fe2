package obslog

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerFormatsComponentAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	SetLevel(LevelDebug)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	l := New("graph")
	l.Infof("rebased %d entities", 12)

	out := buf.String()
	require.True(t, strings.Contains(out, "[osmtopo] graph:"), out)
	require.True(t, strings.Contains(out, "[INFO]"), out)
	require.True(t, strings.Contains(out, "rebased 12 entities"), out)
}

func TestSetLevelSuppressesBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	SetLevel(LevelWarn)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	l := New("diff")
	l.Infof("this should not appear")
	l.Warnf("this should appear")

	out := buf.String()
	require.False(t, strings.Contains(out, "this should not appear"), out)
	require.True(t, strings.Contains(out, "this should appear"), out)
}
