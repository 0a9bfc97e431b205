package engine

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/amaurea/fitsslice/pkg/slice"
)

// WriteQueue is a bounded gather buffer of output segments. It holds no
// ownership of the segments' backing memory: every slice pushed must stay
// valid until the next Flush, which is the caller's responsibility (the
// engine satisfies this by scoping the mmap, zero page, and header buffer
// to the whole call).
type WriteQueue struct {
	fd   int
	max  int
	segs [][]byte
}

// NewWriteQueue returns a WriteQueue that flushes to fd once it holds max
// segments.
func NewWriteQueue(fd int, max int) *WriteQueue {
	return &WriteQueue{fd: fd, max: max, segs: make([][]byte, 0, max)}
}

// Push enqueues a segment, flushing first if the queue is at capacity.
// Pushing a nil or empty segment enqueues nothing; it only runs the capacity
// check, so it flushes a full queue and otherwise does nothing. Draining the
// queue at end of stream is done with Flush.
func (q *WriteQueue) Push(buf []byte) error {
	if len(q.segs) >= q.max {
		if err := q.Flush(); err != nil {
			return err
		}
	}
	if len(buf) > 0 {
		q.segs = append(q.segs, buf)
	}
	return nil
}

// Flush issues a single vectored write of all buffered segments, handling
// short writes by advancing into the partially-written segment and
// retrying until every byte drains. Segment order is preserved across
// retries.
func (q *WriteQueue) Flush() error {
	if len(q.segs) == 0 {
		return nil
	}
	iovs := q.segs
	for len(iovs) > 0 {
		n, err := unix.Writev(q.fd, iovs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", slice.ErrWrite, err)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative write count", slice.ErrWrite)
		}
		for n > 0 && len(iovs) > 0 {
			if n < len(iovs[0]) {
				iovs[0] = iovs[0][n:]
				n = 0
			} else {
				n -= len(iovs[0])
				iovs = iovs[1:]
			}
		}
	}
	q.segs = q.segs[:0]
	return nil
}
