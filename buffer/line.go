package buffer

import (
	"bytes"
	"sync"

	sioctx "sioba/context"
)

func init() {
	RegisterScheme(newLineBuffer, "line")
}

// LineBuffer is a bounded, append-only line history with no screen model:
// Feed appends complete newline-terminated lines, DumpScreenState returns
// everything currently retained, and whole lines age out from the front
// once more than size complete lines are held. Ground: original_source
// BufferedInterface.scrollback_buffer trim-from-front logic, generalized
// from a byte bound to spec.md's line-count bound.
type LineBuffer struct {
	mu      sync.Mutex
	size    int
	lines   [][]byte
	pending []byte
}

func newLineBuffer(uri string, overrides ...sioctx.Option) (Buffer, error) {
	ctx, err := sioctx.FromURI(uri, nil, overrides...)
	if err != nil {
		return nil, err
	}
	size := 10_000
	if ctx.ScrollbackBufferSize != nil {
		size = *ctx.ScrollbackBufferSize
	}
	return NewLineBuffer(size), nil
}

// NewLineBuffer constructs a LineBuffer directly, bypassing URI parsing.
func NewLineBuffer(scrollbackSize int) *LineBuffer {
	return &LineBuffer{size: scrollbackSize}
}

func (b *LineBuffer) Feed(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	combined := append(append([]byte(nil), b.pending...), data...)
	parts := bytes.Split(combined, []byte("\n"))
	b.pending = nil

	for i, part := range parts {
		if i == len(parts)-1 {
			// no trailing newline yet; held back until the line completes
			b.pending = append([]byte(nil), part...)
			continue
		}
		line := make([]byte, len(part)+1)
		copy(line, part)
		line[len(part)] = '\n'
		b.lines = append(b.lines, line)
	}

	if excess := len(b.lines) - b.size; excess > 0 {
		b.lines = append([][]byte(nil), b.lines[excess:]...)
	}
	return nil, nil
}

func (b *LineBuffer) DumpScreenState() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []byte
	for _, line := range b.lines {
		out = append(out, line...)
	}
	out = append(out, b.pending...)
	return out
}

// SetTerminalSize is a no-op: a LineBuffer has no screen geometry.
func (b *LineBuffer) SetTerminalSize(rows, cols int) error { return nil }

// CursorPosition always reports (0, 0): a LineBuffer has no cursor.
func (b *LineBuffer) CursorPosition() (int, int) { return 0, 0 }
