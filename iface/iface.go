// Package iface implements the Interface lifecycle state machine shared by
// every endpoint: start/shutdown transitions, the two callback-fan-out byte
// paths (frontend-bound and frontend-originated), terminal metadata
// aggregation across attached clients, and reference-counted auto-shutdown.
// All state mutation happens on a private dispatch.Loop so concurrent
// goroutines (a socket's read loop, a pty's read loop) never touch a Base's
// fields directly. state itself is kept in an atomic so a precondition
// check (is this interface started?) never has to round-trip the loop.
package iface

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sioba/buffer"
	sioctx "sioba/context"
	"sioba/dispatch"
	sioerr "sioba/errors"
	"sioba/registry"
)

// State is the lifecycle stage of an Interface.
type State int32

const (
	StateInitialized State = iota
	StateStarted
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Impl is implemented by each concrete endpoint (echo, socket, pty, ...) and
// called through by Base at the corresponding lifecycle point.
type Impl interface {
	// StartInterface performs endpoint-specific startup (dial, spawn,
	// listen). Called once, on the dispatch loop, while state is
	// transitioning to Started.
	StartInterface() error
	// ShutdownInterface performs endpoint-specific teardown. Called once,
	// on the dispatch loop, while state is transitioning to Shutdown.
	ShutdownInterface() error
	// WriteToEndpoint is invoked for every byte chunk a frontend sends
	// toward the endpoint (keystrokes, socket payloads); it is the
	// endpoint's chance to actually write to the wire. Named distinctly
	// from Base.ReceiveFromFrontend (which concrete endpoints also
	// inherit by embedding *Base) so the two don't collide: this is the
	// inward half of the override point, that is the outward-facing
	// dispatcher. May itself call Base.SendToFrontend (e.g. an echo
	// endpoint) — safe to do from here since SendToFrontend never blocks
	// waiting on the dispatch loop.
	WriteToEndpoint(data []byte) error
}

// Resizer is optionally implemented by endpoints that need to react to
// terminal size changes (e.g. a pty sending SIGWINCH).
type Resizer interface {
	ResizeInterface(rows, cols int) error
}

type SendCallback func(i *Base, data []byte)
type ReceiveCallback func(i *Base, data []byte)
type ShutdownCallback func(i *Base)
type TitleCallback func(i *Base, title string)

// clientMetadata is one frontend client's reported terminal geometry.
type clientMetadata struct {
	rows, cols int
}

// Base is embedded by every concrete Interface implementation. It owns
// lifecycle state, callback registries, the scrollback Buffer, and the
// private dispatch loop serializing all of the above.
type Base struct {
	ID    uuid.UUID
	Title string

	ctx  *sioctx.Context
	impl Impl
	loop *dispatch.Loop
	buf  buffer.Buffer
	log  *logrus.Entry

	state          atomic.Int32
	referenceCount int
	rows, cols     atomic.Int32
	termClients    map[string]clientMetadata

	onSendToFrontend      []SendCallback
	onReceiveFromFrontend []ReceiveCallback
	onShutdown            []ShutdownCallback
	onSetTerminalTitle    []TitleCallback
}

// New builds a Base bound to impl, with ctx supplying rows/cols, convertEol,
// auto-shutdown, and the scrollback buffer's URI and size. ctx.Encoding is
// not consulted. ctx should already be the result of context.WithDefaults
// or context.FromURI.
func New(impl Impl, ctx *sioctx.Context) (*Base, error) {
	rows, cols := 24, 80
	if ctx.Rows != nil {
		rows = *ctx.Rows
	}
	if ctx.Cols != nil {
		cols = *ctx.Cols
	}

	b := &Base{
		ID:          uuid.New(),
		ctx:         ctx,
		impl:        impl,
		loop:        dispatch.New(),
		termClients: map[string]clientMetadata{},
		log:         logrus.WithField("component", "iface"),
	}
	b.state.Store(int32(StateInitialized))
	b.rows.Store(int32(rows))
	b.cols.Store(int32(cols))

	bufURI := "terminal://"
	if ctx.ScrollbackBufferURI != nil {
		bufURI = *ctx.ScrollbackBufferURI
	}
	bufOpts := []sioctx.Option{sioctx.WithRows(rows), sioctx.WithCols(cols)}
	if ctx.ScrollbackBufferSize != nil {
		size := *ctx.ScrollbackBufferSize
		bufOpts = append(bufOpts, func(c *sioctx.Context) { c.ScrollbackBufferSize = &size })
	}
	buf, err := buffer.FromURI(bufURI, bufOpts...)
	if err != nil {
		return nil, err
	}
	b.buf = buf

	return b, nil
}

//////////////////////////////////////////////////////////////////////////
// Lifecycle
//////////////////////////////////////////////////////////////////////////

// Start transitions Initialized -> Started, invoking impl.StartInterface on
// the dispatch loop. A no-op (returns nil) if not currently Initialized.
func (b *Base) Start() error {
	var startErr error
	b.loop.Submit(func() {
		if State(b.state.Load()) != StateInitialized {
			return
		}
		b.state.Store(int32(StateStarted))
		startErr = b.impl.StartInterface()
	})
	return startErr
}

// Shutdown transitions Started -> Shutdown, invoking impl.ShutdownInterface
// and then fanning out onShutdown callbacks, all on the dispatch loop.
func (b *Base) Shutdown() error {
	var shutdownErr error
	b.loop.Submit(func() {
		if State(b.state.Load()) != StateStarted {
			return
		}
		shutdownErr = b.impl.ShutdownInterface()
		b.state.Store(int32(StateShutdown))
		b.log.Debugf("shutting down interface %s", b.ID)
		for _, cb := range b.onShutdown {
			cb(b)
		}
	})
	b.loop.Close()
	return shutdownErr
}

func (b *Base) State() State     { return State(b.state.Load()) }
func (b *Base) Rows() int        { return int(b.rows.Load()) }
func (b *Base) Cols() int        { return int(b.cols.Load()) }
func (b *Base) IsRunning() bool  { return b.State() == StateStarted }
func (b *Base) IsShutdown() bool { return b.State() == StateShutdown }

//////////////////////////////////////////////////////////////////////////
// Callback registration
//////////////////////////////////////////////////////////////////////////

func (b *Base) OnSendToFrontend(cb SendCallback) {
	b.loop.SubmitAsync(func() { b.onSendToFrontend = append(b.onSendToFrontend, cb) })
}

func (b *Base) OnReceiveFromFrontend(cb ReceiveCallback) {
	b.loop.SubmitAsync(func() { b.onReceiveFromFrontend = append(b.onReceiveFromFrontend, cb) })
}

func (b *Base) OnShutdown(cb ShutdownCallback) {
	b.loop.SubmitAsync(func() { b.onShutdown = append(b.onShutdown, cb) })
}

func (b *Base) OnSetTerminalTitle(cb TitleCallback) {
	b.loop.SubmitAsync(func() { b.onSetTerminalTitle = append(b.onSetTerminalTitle, cb) })
}

//////////////////////////////////////////////////////////////////////////
// Byte paths
//////////////////////////////////////////////////////////////////////////

// SendToFrontend delivers data from the endpoint out to attached frontends.
// It feeds the scrollback Buffer, applies convertEol, and fans out to every
// registered SendCallback. The precondition check runs synchronously
// against the atomic state; the actual work is queued onto the dispatch
// loop with SubmitAsync, so SendToFrontend never blocks and is safe to call
// from Impl.WriteToEndpoint while that itself is running on the loop
// (an echo-style endpoint's defining behavior).
func (b *Base) SendToFrontend(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	switch State(b.state.Load()) {
	case StateInitialized:
		return sioerr.Wrap("SendToFrontend", sioerr.NotStarted, sioerr.ErrNotStarted)
	case StateShutdown:
		return sioerr.Wrap("SendToFrontend", sioerr.TerminalClosed, sioerr.ErrTerminalClosed)
	}

	b.loop.SubmitAsync(func() {
		out := data
		if b.ctx.ConvertEol == nil || *b.ctx.ConvertEol {
			out = convertEol(out)
		}

		if reply, err := b.buf.Feed(out); err != nil {
			b.log.Errorf("buffer feed failed: %v", err)
		} else if len(reply) > 0 {
			if err := b.impl.WriteToEndpoint(reply); err != nil {
				b.log.Errorf("writing emulator reply back to endpoint: %v", err)
			}
		}

		for _, cb := range b.onSendToFrontend {
			cb(b, out)
		}
	})
	return nil
}

// ReceiveFromFrontend delivers data originating from a frontend (user
// keystrokes, a pasted payload) toward the endpoint, via impl and any
// registered ReceiveCallback observers. Errors from impl are logged, not
// returned: a misbehaving write to one endpoint should not abort whatever
// triggered delivery (the ambient propagation policy applies here exactly
// as it does to every other callback fan-out).
func (b *Base) ReceiveFromFrontend(data []byte) error {
	switch State(b.state.Load()) {
	case StateInitialized:
		return sioerr.Wrap("ReceiveFromFrontend", sioerr.NotStarted, sioerr.ErrNotStarted)
	case StateShutdown:
		return sioerr.Wrap("ReceiveFromFrontend", sioerr.TerminalClosed, sioerr.ErrTerminalClosed)
	}

	b.loop.SubmitAsync(func() {
		for _, cb := range b.onReceiveFromFrontend {
			cb(b, data)
		}
		if err := b.impl.WriteToEndpoint(data); err != nil {
			b.log.Errorf("impl.WriteToEndpoint failed: %v", err)
		}
	})
	return nil
}

func convertEol(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/4)
	for _, c := range data {
		if c == '\r' {
			out = append(out, '\r', '\n')
			continue
		}
		out = append(out, c)
	}
	return out
}

//////////////////////////////////////////////////////////////////////////
// Terminal title, size, and metadata
//////////////////////////////////////////////////////////////////////////

func (b *Base) SetTerminalTitle(title string) {
	b.loop.SubmitAsync(func() {
		b.Title = title
		for _, cb := range b.onSetTerminalTitle {
			cb(b, title)
		}
	})
}

// SetTerminalSize resizes the scrollback Buffer and, if impl implements
// Resizer, notifies the endpoint (e.g. to send SIGWINCH).
func (b *Base) SetTerminalSize(rows, cols int) {
	b.loop.Submit(func() {
		b.rows.Store(int32(rows))
		b.cols.Store(int32(cols))
		if err := b.buf.SetTerminalSize(rows, cols); err != nil {
			b.log.Errorf("buffer resize failed: %v", err)
		}
		if resizer, ok := b.impl.(Resizer); ok {
			if err := resizer.ResizeInterface(rows, cols); err != nil {
				b.log.Errorf("endpoint resize failed: %v", err)
			}
		}
	})
}

// UpdateTerminalMetadata records clientID's reported geometry and resizes
// the interface to the minimum rows/cols across every attached client, so
// no client's view is ever clipped.
func (b *Base) UpdateTerminalMetadata(clientID string, rows, cols int) {
	var minRows, minCols int
	b.loop.Submit(func() {
		b.termClients[clientID] = clientMetadata{rows: rows, cols: cols}
		b.log.Debugf("updated client %s metadata: rows=%d cols=%d", clientID, rows, cols)

		first := true
		for _, m := range b.termClients {
			if first || m.rows < minRows {
				minRows = m.rows
			}
			if first || m.cols < minCols {
				minCols = m.cols
			}
			first = false
		}
	})
	b.SetTerminalSize(minRows, minCols)
}

// GetTerminalBuffer returns the Buffer's replayable dump of current screen
// state, for a frontend attaching mid-session.
func (b *Base) GetTerminalBuffer() []byte {
	return b.buf.DumpScreenState()
}

// GetTerminalCursorPosition returns the 0-based (row, col) cursor position.
func (b *Base) GetTerminalCursorPosition() (row, col int) {
	return b.buf.CursorPosition()
}

//////////////////////////////////////////////////////////////////////////
// Reference counting
//////////////////////////////////////////////////////////////////////////

// ReferenceIncrement records one more client referencing this interface.
func (b *Base) ReferenceIncrement() {
	b.loop.SubmitAsync(func() {
		b.referenceCount++
		b.log.Debugf("reference count: %d, incrementing", b.referenceCount)
	})
}

// ReferenceDecrement records one fewer client referencing this interface.
// If the count reaches zero and auto-shutdown is enabled, shutdown is
// scheduled on a fresh goroutine rather than run inline, so it never
// executes from within the call stack of the callback that dropped the
// last reference.
func (b *Base) ReferenceDecrement() {
	b.loop.SubmitAsync(func() {
		b.referenceCount--
		b.log.Debugf("reference count: %d, decrementing", b.referenceCount)
		autoShutdown := b.ctx.AutoShutdown == nil || *b.ctx.AutoShutdown
		if b.referenceCount <= 0 && autoShutdown && State(b.state.Load()) == StateStarted {
			go b.Shutdown()
		}
	})
}

//////////////////////////////////////////////////////////////////////////
// Scheme registry
//////////////////////////////////////////////////////////////////////////

// Interface is the surface every endpoint exposes once built, independent
// of the concrete transport. Every *Base satisfies it by construction;
// concrete endpoint types satisfy it transitively by embedding *Base.
type Interface interface {
	State() State
	IsRunning() bool
	IsShutdown() bool
	Rows() int
	Cols() int

	Start() error
	Shutdown() error

	SendToFrontend(data []byte) error
	ReceiveFromFrontend(data []byte) error

	OnSendToFrontend(cb SendCallback)
	OnReceiveFromFrontend(cb ReceiveCallback)
	OnShutdown(cb ShutdownCallback)
	OnSetTerminalTitle(cb TitleCallback)

	SetTerminalTitle(title string)
	SetTerminalSize(rows, cols int)
	UpdateTerminalMetadata(clientID string, rows, cols int)
	GetTerminalBuffer() []byte
	GetTerminalCursorPosition() (row, col int)

	ReferenceIncrement()
	ReferenceDecrement()
}

// Factory builds a concrete endpoint for a URI scheme (echo, tcp, ssl, udp,
// exec, ws, wss, serial, serial+loop). Mirrors buffer.Factory.
type Factory = registry.Factory[Interface]

var schemeRegistry = registry.New[Interface]("interface")

// RegisterScheme makes factory the handler for the given URI schemes. Meant
// to be called from endpoint packages' init() functions.
func RegisterScheme(factory Factory, schemes ...string) {
	schemeRegistry.MustRegister(factory, schemes...)
}

// ListSchemes returns every registered endpoint URI scheme.
func ListSchemes() []string {
	return schemeRegistry.Schemes()
}

// FromURI builds the Interface registered for uri's scheme.
func FromURI(uri string, overrides ...sioctx.Option) (Interface, error) {
	return schemeRegistry.FromURI(uri, overrides...)
}
