package syncer

import (
	"io"
	"sync/atomic"
)

// ProgressFunc receives byte-level progress for one transfer.
// total is -1 when the object size is unknown.
type ProgressFunc func(key string, transferred, total int64)

// countingWriterAt wraps the download target and reports bytes written.
type countingWriterAt struct {
	w           io.WriterAt
	key         string
	total       int64
	transferred atomic.Int64
	fn          ProgressFunc
}

func newCountingWriterAt(w io.WriterAt, key string, total int64, fn ProgressFunc) *countingWriterAt {
	return &countingWriterAt{
		w:     w,
		key:   key,
		total: total,
		fn:    fn,
	}
}

func (c *countingWriterAt) WriteAt(p []byte, off int64) (int, error) {
	n, err := c.w.WriteAt(p, off)
	if n > 0 && c.fn != nil {
		c.fn(c.key, c.transferred.Add(int64(n)), c.total)
	}
	return n, err
}
