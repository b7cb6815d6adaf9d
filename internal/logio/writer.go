package logio

import (
	"bytes"
	"sync"
)

// Writer implements an io.Writer around a formatted logging function, so
// that stream-shaped output (dumps, traces) can land in line-shaped sinks
// like testing.T.Logf or a zap sugared logger.
type Writer struct {
	Logf   func(string, ...interface{})
	Prefix string

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends the given bytes into an internal buffer, then flushes any
// completed lines through Logf, one call per line. Writing is safe from
// multiple goroutines.
func (lw *Writer) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf.Write(p)
	lw.flushLines(false)
	return len(p), nil
}

// Sync flushes any remaining partial line from the internal buffer.
func (lw *Writer) Sync() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.flushLines(true)
	return nil
}

// Flush calls Sync, so a Writer can serve anywhere a flushable sink is
// expected.
func (lw *Writer) Flush() error {
	return lw.Sync()
}

// Close calls Sync.
func (lw *Writer) Close() error {
	return lw.Sync()
}

func (lw *Writer) flushLines(all bool) {
	for lw.buf.Len() > 0 {
		i := bytes.IndexByte(lw.buf.Bytes(), '\n')
		if i >= 0 {
			lw.logLine(lw.buf.Next(i))
			lw.buf.Next(1)
		} else if all {
			lw.logLine(lw.buf.Next(lw.buf.Len()))
		} else {
			break
		}
	}
}

func (lw *Writer) logLine(line []byte) {
	if lw.Prefix != "" {
		lw.Logf("%s", lw.Prefix+string(line))
	} else {
		lw.Logf("%s", line)
	}
}
