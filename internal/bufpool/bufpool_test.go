package bufpool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReturnsEmptyBuffer(t *testing.T) {
	buf := Get()
	require.Equal(t, 0, buf.Len())
	buf.WriteString("hello")
	Put(buf)

	buf2 := Get()
	require.Equal(t, 0, buf2.Len(), "a reused buffer must come back reset")
}

func TestPutDropsOversizedBuffers(t *testing.T) {
	buf := Get()
	buf.WriteString(strings.Repeat("x", maxPooledCapacity+1))
	Put(buf) // must not panic; oversized buffers are simply discarded

	buf2 := Get()
	require.Equal(t, 0, buf2.Len())
}
