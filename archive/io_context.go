package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jaksonlabs/carbon/errs"
)

// IOContext is a reusable, lockable handle on the archive's underlying
// bytes for random string reads. Multiple goroutines may share one
// context by bracketing their seek/read sequences with Lock and Unlock;
// alternatively each goroutine creates its own context.
type IOContext struct {
	mu     sync.Mutex
	ra     io.ReaderAt
	closer io.Closer
}

// NewIOContext creates an IO context over the archive file. For
// mmap-opened archives the context reads the mapped bytes; otherwise it
// owns a dedicated file descriptor.
func (a *Archive) NewIOContext() (*IOContext, error) {
	if a.useMmap {
		if a.mapped == nil {
			return nil, fmt.Errorf("archive closed: %w", errs.ErrIllegalImpl)
		}

		return &IOContext{ra: bytes.NewReader(a.mapped)}, nil
	}

	file, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrOpenRead, err)
	}

	return &IOContext{ra: file, closer: file}, nil
}

// Lock acquires exclusive use of the context.
func (c *IOContext) Lock() {
	c.mu.Lock()
}

// Unlock releases the context.
func (c *IOContext) Unlock() {
	c.mu.Unlock()
}

// ReadAt reads len(p) bytes at the absolute file offset off. The caller
// must hold the lock.
func (c *IOContext) ReadAt(p []byte, off uint64) error {
	if _, err := c.ra.ReadAt(p, int64(off)); err != nil {
		return fmt.Errorf("read %d bytes at %d: %w", len(p), off, err)
	}

	return nil
}

// SectionAt returns a reader over the file starting at the absolute
// offset off. The caller must hold the lock while reading.
func (c *IOContext) SectionAt(off uint64) io.Reader {
	return io.NewSectionReader(c.ra, int64(off), 1<<62)
}

// Close releases the file handle, if the context owns one.
func (c *IOContext) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}

	return nil
}
