// Package source feeds terminal output into a parser: from any reader,
// from a transcript file that is still being written, or from a child
// process attached to a pseudo-terminal.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const readSize = 32 * 1024

type chunk struct {
	err  error
	data []byte
}

// Pump copies r to w until r reports EOF, either side fails, or ctx is
// cancelled. It returns the number of bytes written. EOF is not an error;
// cancellation returns ctx.Err().
//
// Reads happen on a separate goroutine so a blocked Read does not delay
// cancellation. That goroutine exits once the pending Read returns, so
// callers that cancel should also close r.
func Pump(ctx context.Context, r io.Reader, w io.Writer) (int64, error) {
	chunks := make(chan chunk)
	go func() {
		for {
			buf := make([]byte, readSize)
			n, err := r.Read(buf)
			select {
			case chunks <- chunk{data: buf[:n], err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		case c := <-chunks:
			if len(c.data) > 0 {
				n, err := w.Write(c.data)
				written += int64(n)
				if err != nil {
					return written, fmt.Errorf("write: %w", err)
				}
			}
			if c.err != nil {
				if errors.Is(c.err, io.EOF) {
					return written, nil
				}
				return written, fmt.Errorf("read: %w", c.err)
			}
		}
	}
}
