// Package bufpool pools byte buffers for the XML/JSON builders in
// internal/changeset and internal/wirejson, cutting GC churn when a
// session emits many changesets or marker-cache snapshots in a row.
package bufpool

import (
	"bytes"
	"sync"
)

var buffers = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// Get returns a reset, ready-to-write buffer.
func Get() *bytes.Buffer {
	buf := buffers.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf to the pool. Buffers that have grown unusually large
// are dropped instead of pooled, so one outsized changeset doesn't
// pin a multi-megabyte buffer in the pool for the rest of the session.
const maxPooledCapacity = 1 << 20 // 1 MiB

func Put(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledCapacity {
		return
	}
	buffers.Put(buf)
}
