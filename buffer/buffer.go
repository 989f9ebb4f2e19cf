// Package buffer implements the replayable view of an Interface's output
// stream: a Buffer accumulates bytes fed to it by the Interface's dispatch
// loop and can reproduce "what the screen looks like now" for a client that
// attaches mid-session. Two backends are registered: line:// (bounded
// append-only scrollback) and terminal:// (VT100/ANSI screen emulation).
package buffer

import (
	sioctx "sioba/context"
	"sioba/registry"
)

// Buffer is the replay surface an Interface feeds its outbound bytes into.
type Buffer interface {
	// Feed appends data to the buffer's notion of output history. It
	// returns any reply bytes the emulator itself generated (e.g. a
	// terminal status report) that the caller should route back to the
	// control side, and is empty for backends with no such concept.
	Feed(data []byte) (reply []byte, err error)

	// DumpScreenState renders a byte sequence that, fed into a fresh
	// client of the same kind, reproduces the current visible state.
	DumpScreenState() []byte

	// SetTerminalSize notifies the buffer of a frontend resize.
	SetTerminalSize(rows, cols int) error

	// CursorPosition reports the 0-based (row, col) of the cursor, or
	// (0, 0) for backends with no cursor concept.
	CursorPosition() (row, col int)
}

// Factory builds a Buffer from a raw scrollback-buffer URI (e.g.
// "terminal://", "line://?scrollback_buffer_size=5000") plus overrides.
type Factory = registry.Factory[Buffer]

var schemeRegistry = registry.New[Buffer]("buffer")

// RegisterScheme binds factory to the given URI schemes (e.g. "terminal",
// "line"). Call from an init() function; duplicate registration is a
// programming error and panics.
func RegisterScheme(factory Factory, schemes ...string) {
	schemeRegistry.MustRegister(factory, schemes...)
}

// ListSchemes returns every registered buffer scheme.
func ListSchemes() []string {
	return schemeRegistry.Schemes()
}

// FromURI builds the Buffer registered for uri's scheme, typically
// ctx.ScrollbackBufferURI (e.g. "terminal://", "line://").
func FromURI(uri string, overrides ...sioctx.Option) (Buffer, error) {
	return schemeRegistry.FromURI(uri, overrides...)
}
