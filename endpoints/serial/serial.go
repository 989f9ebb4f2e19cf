// Package serial implements the "serial" and "serial+loop" endpoint
// schemes: "serial" opens a real serial port via go.bug.st/serial,
// "serial+loop" substitutes an in-memory loopback pipe (TX wired straight
// to RX, mirroring a hardware loopback plug) so the endpoint can be
// exercised without real hardware. Both share one Endpoint type, switched
// via ioswitch.Switch.
package serial

import (
	"io"
	"strconv"

	goserial "go.bug.st/serial"

	sioctx "sioba/context"
	sioerr "sioba/errors"
	"sioba/iface"
	"sioba/internal/ioswitch"
)

func init() {
	iface.RegisterScheme(NewReal, "serial")
	iface.RegisterScheme(NewLoopback, "serial+loop")
}

var defaultContext = sioctx.WithDefaults(nil, sioctx.WithConvertEol(false), sioctx.WithLocalEcho(false))

// Endpoint relays bytes between a serial port (or its loopback substitute)
// and the frontend.
type Endpoint struct {
	*iface.Base

	portName string
	baudRate int
	loopback bool

	port *ioswitch.Switch
}

// NewReal builds an Endpoint backed by a real serial port.
func NewReal(uri string, overrides ...sioctx.Option) (iface.Interface, error) {
	return newEndpoint(uri, false, overrides...)
}

// NewLoopback builds an Endpoint backed by an in-memory loopback pipe,
// for testing without hardware.
func NewLoopback(uri string, overrides ...sioctx.Option) (iface.Interface, error) {
	return newEndpoint(uri, true, overrides...)
}

func newEndpoint(uri string, loopback bool, overrides ...sioctx.Option) (iface.Interface, error) {
	ctx, err := sioctx.FromURI(uri, defaultContext, overrides...)
	if err != nil {
		return nil, err
	}

	baud := 9600
	if raw, ok := ctx.Get("baudrate", nil).(string); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			baud = n
		}
	}

	portName := ""
	if ctx.Host != nil {
		portName = *ctx.Host
	}
	if ctx.Path != nil && *ctx.Path != "" {
		portName += *ctx.Path
	}

	e := &Endpoint{portName: portName, baudRate: baud, loopback: loopback}
	base, err := iface.New(e, ctx)
	if err != nil {
		return nil, err
	}
	e.Base = base
	return e, nil
}

func (e *Endpoint) StartInterface() error {
	if e.loopback {
		sw := ioswitch.New(closedPort{})
		sw.EnableAlternate(newLoopbackPort())
		e.port = sw
		go e.readLoop()
		return nil
	}

	mode := &goserial.Mode{BaudRate: e.baudRate}
	realPort, err := goserial.Open(e.portName, mode)
	if err != nil {
		return sioerr.Wrap("StartInterface", sioerr.ConnectionFailed, err)
	}
	e.port = ioswitch.New(realPort)
	go e.readLoop()
	return nil
}

func (e *Endpoint) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := e.port.Read(buf)
		if n > 0 {
			if sendErr := e.Base.SendToFrontend(append([]byte(nil), buf[:n]...)); sendErr != nil {
				return
			}
		}
		if err != nil {
			go e.Base.Shutdown()
			return
		}
	}
}

// WriteToEndpoint writes frontend data to the serial port (or its loopback
// substitute).
func (e *Endpoint) WriteToEndpoint(data []byte) error {
	if e.port == nil {
		return nil
	}
	if _, err := e.port.Write(data); err != nil {
		return sioerr.Wrap("WriteToEndpoint", sioerr.TransportError, err)
	}
	return nil
}

func (e *Endpoint) ShutdownInterface() error {
	if e.port == nil {
		return nil
	}
	return e.port.Close()
}

// closedPort is the inert passthrough a loopback Endpoint's Switch starts
// with, before EnableAlternate immediately replaces it; it is never
// actually read from or written to.
type closedPort struct{}

func (closedPort) Read([]byte) (int, error)    { return 0, io.EOF }
func (closedPort) Write(p []byte) (int, error) { return len(p), nil }
func (closedPort) Close() error                { return nil }

// loopbackPort is a synchronous in-memory pipe: every Write is delivered to
// the next Read, exactly like a hardware serial loopback plug wiring TX to
// RX.
type loopbackPort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newLoopbackPort() *loopbackPort {
	r, w := io.Pipe()
	return &loopbackPort{r: r, w: w}
}

func (l *loopbackPort) Read(p []byte) (int, error)  { return l.r.Read(p) }
func (l *loopbackPort) Write(p []byte) (int, error) { return l.w.Write(p) }
func (l *loopbackPort) Close() error {
	l.w.Close()
	return l.r.Close()
}
