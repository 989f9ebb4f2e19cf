// Package socket implements the "tcp", "ssl", and "udp" endpoint schemes:
// each dials a remote host:port and relays bytes between it and the
// frontend, locally echoing frontend input the way a raw netcat-style
// terminal session would.
package socket

import (
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"time"

	sioctx "sioba/context"
	sioerr "sioba/errors"
	"sioba/iface"
	"sioba/internal/latency"
)

func init() {
	iface.RegisterScheme(NewTCP, "tcp")
	iface.RegisterScheme(NewSSL, "ssl")
	iface.RegisterScheme(NewUDP, "udp")
}

var defaultContext = sioctx.WithDefaults(nil, sioctx.WithConvertEol(true), sioctx.WithLocalEcho(true))

// Endpoint relays bytes between a net.Conn and the frontend. The same type
// backs tcp, ssl, and udp; only how conn is dialed differs.
type Endpoint struct {
	*iface.Base

	dial      func(addr string) (net.Conn, error)
	addr      string
	delay     time.Duration
	localEcho bool
	conn      net.Conn
	transport io.ReadWriteCloser
}

// NewTCP builds a tcp Endpoint.
func NewTCP(uri string, overrides ...sioctx.Option) (iface.Interface, error) {
	return newEndpoint(uri, func(addr string) (net.Conn, error) {
		return net.Dial("tcp", addr)
	}, overrides...)
}

// NewSSL builds a tls-wrapped tcp Endpoint.
func NewSSL(uri string, overrides ...sioctx.Option) (iface.Interface, error) {
	return newEndpoint(uri, func(addr string) (net.Conn, error) {
		return tls.Dial("tcp", addr, &tls.Config{})
	}, overrides...)
}

// NewUDP builds a udp Endpoint.
func NewUDP(uri string, overrides ...sioctx.Option) (iface.Interface, error) {
	return newEndpoint(uri, func(addr string) (net.Conn, error) {
		return net.Dial("udp", addr)
	}, overrides...)
}

func newEndpoint(uri string, dial func(addr string) (net.Conn, error), overrides ...sioctx.Option) (iface.Interface, error) {
	ctx, err := sioctx.FromURI(uri, defaultContext, overrides...)
	if err != nil {
		return nil, err
	}

	e := &Endpoint{dial: dial}
	if ctx.LocalEcho != nil {
		e.localEcho = *ctx.LocalEcho
	}
	base, err := iface.New(e, ctx)
	if err != nil {
		return nil, err
	}
	e.Base = base

	host := "localhost"
	if ctx.Host != nil && *ctx.Host != "" {
		host = *ctx.Host
	}
	port := 80
	if ctx.Port != nil {
		port = *ctx.Port
	}
	e.addr = net.JoinHostPort(host, strconv.Itoa(port))

	if raw, ok := ctx.Get("delay_ms", nil).(string); ok {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			e.delay = time.Duration(ms) * time.Millisecond
		}
	}

	return e, nil
}

func (e *Endpoint) StartInterface() error {
	conn, err := e.dial(e.addr)
	if err != nil {
		return sioerr.Wrap("StartInterface", sioerr.ConnectionFailed, err)
	}
	e.conn = conn
	if e.delay > 0 {
		e.transport = latency.NewRingDelay(conn, e.delay, 64)
	} else {
		e.transport = conn
	}
	go e.receiveLoop()
	return nil
}

func (e *Endpoint) receiveLoop() {
	buf := make([]byte, 4096)
	for e.Base.IsRunning() {
		n, err := e.transport.Read(buf)
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

// WriteToEndpoint writes frontend input to the socket (delayed by e.delay if
// a delay_ms query parameter was set, to simulate a slow remote peer). When
// local_echo is set (the scheme default), it also echoes the input back to
// the frontend so a raw terminal session reflects what the user typed even
// when the remote end never replies.
func (e *Endpoint) WriteToEndpoint(data []byte) error {
	if e.transport == nil {
		return nil
	}
	if _, err := e.transport.Write(data); err != nil {
		return sioerr.Wrap("WriteToEndpoint", sioerr.TransportError, err)
	}
	if e.localEcho {
		return e.Base.SendToFrontend(data)
	}
	return nil
}

func (e *Endpoint) ShutdownInterface() error {
	if e.transport != nil {
		return e.transport.Close()
	}
	return nil
}
